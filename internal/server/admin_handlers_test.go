package server

import (
	"fmt"
	"net/http"
	"testing"

	"whispervault/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestAdminAccessControl(t *testing.T) {
	srv, app := setupTestServer(t)
	registerUser(t, app, "Plain", "plain@example.com", "longenough")
	userToken := signIn(t, app, "plain@example.com", "longenough")
	adminToken := seedAdmin(t, srv, app)

	t.Run("anonymous rejected", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/admin/confessions", "", nil)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("regular user forbidden", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/admin/confessions", userToken, nil)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})

	t.Run("superuser allowed", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/admin/confessions", adminToken, nil)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})
}

func TestAdminReviewQueue(t *testing.T) {
	srv, app := setupTestServer(t)
	adminToken := seedAdmin(t, srv, app)

	first := seedConfession(t, srv, "first in queue", models.ConfessionStatusPendingModeration)
	seedConfession(t, srv, "second in queue", models.ConfessionStatusPendingModeration)
	seedConfession(t, srv, "already approved", models.ConfessionStatusApproved)

	t.Run("defaults to pending, oldest first", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/admin/confessions", adminToken, nil)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var page struct {
			Items []models.Confession `json:"items"`
			Total int64               `json:"total"`
		}
		decodeBody(t, resp, &page)
		assert.Equal(t, int64(2), page.Total)
		assert.Equal(t, first.ID, page.Items[0].ID)
	})

	t.Run("filter by status", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/admin/confessions?status=approved", adminToken, nil)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var page struct {
			Total int64 `json:"total"`
		}
		decodeBody(t, resp, &page)
		assert.Equal(t, int64(1), page.Total)
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/admin/confessions?status=bogus", adminToken, nil)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
}

func TestAdminReviewDecisions(t *testing.T) {
	srv, app := setupTestServer(t)
	adminToken := seedAdmin(t, srv, app)

	t.Run("approve", func(t *testing.T) {
		c := seedConfession(t, srv, "please approve", models.ConfessionStatusPendingModeration)

		resp := doJSON(t, app, http.MethodPost,
			fmt.Sprintf("/admin/confessions/%d/approve", c.ID), adminToken, nil)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var updated models.Confession
		decodeBody(t, resp, &updated)
		assert.Equal(t, models.ConfessionStatusApproved, updated.Status)
	})

	t.Run("block", func(t *testing.T) {
		c := seedConfession(t, srv, "please block", models.ConfessionStatusPendingModeration)

		resp := doJSON(t, app, http.MethodPost,
			fmt.Sprintf("/admin/confessions/%d/block", c.ID), adminToken, nil)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var updated models.Confession
		decodeBody(t, resp, &updated)
		assert.Equal(t, models.ConfessionStatusBlocked, updated.Status)
	})

	t.Run("missing confession", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/admin/confessions/99999/approve", adminToken, nil)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})

	t.Run("already reviewed", func(t *testing.T) {
		c := seedConfession(t, srv, "decided long ago", models.ConfessionStatusApproved)

		resp := doJSON(t, app, http.MethodPost,
			fmt.Sprintf("/admin/confessions/%d/block", c.ID), adminToken, nil)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

		var body models.ErrorResponse
		decodeBody(t, resp, &body)
		assert.Equal(t, "Only pending confessions can be reviewed", body.Detail)

		// The stored status is untouched
		var stored models.Confession
		assert.NoError(t, srv.db.First(&stored, c.ID).Error)
		assert.Equal(t, models.ConfessionStatusApproved, stored.Status)
	})

	t.Run("published is final", func(t *testing.T) {
		c := seedConfession(t, srv, "already on the feeds", models.ConfessionStatusPublished)

		resp := doJSON(t, app, http.MethodPost,
			fmt.Sprintf("/admin/confessions/%d/approve", c.ID), adminToken, nil)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
}

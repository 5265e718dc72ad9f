package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"whispervault/internal/config"
	"whispervault/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestServer(t *testing.T) (*Server, *fiber.App) {
	return setupTestServerWith(t, nil)
}

// setupTestServerRedis backs the server with an in-process Redis so the
// token blacklist and the task queue behave like production.
func setupTestServerRedis(t *testing.T) (*Server, *fiber.App) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return setupTestServerWith(t, rdb)
}

func setupTestServerWith(t *testing.T, rdb *redis.Client) (*Server, *fiber.App) {
	t.Setenv("APP_ENV", "test")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Confession{}, &models.PublishJob{}))

	cfg := &config.Config{
		Port:                   "8000",
		Env:                    "test",
		JWTSecret:              "unit-test-secret-0123456789abcdef",
		AssetsDir:              t.TempDir(),
		AdminRegistrationToken: "admin-token",
	}

	srv, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)

	app := fiber.New()
	srv.SetupRoutes(app)
	return srv, app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, payload any) *http.Response {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dest any) {
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

// registerUser creates an account directly through the API.
func registerUser(t *testing.T, app *fiber.App, name, email, password string) models.User {
	resp := doJSON(t, app, http.MethodPost, "/auth/register", "", map[string]string{
		"name": name, "email": email, "password": password,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var user models.User
	decodeBody(t, resp, &user)
	return user
}

// signIn exchanges credentials for a bearer token.
func signIn(t *testing.T, app *fiber.App, email, password string) string {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var tok TokenResponse
	decodeBody(t, resp, &tok)
	require.NotEmpty(t, tok.AccessToken)
	return tok.AccessToken
}

// seedConfession inserts a confession bypassing moderation.
func seedConfession(t *testing.T, srv *Server, content string, status models.ConfessionStatus) models.Confession {
	c := models.Confession{
		Gender:    "other",
		Age:       30,
		Content:   content,
		Anonymous: true,
		Status:    status,
	}
	require.NoError(t, srv.db.Create(&c).Error)
	return c
}

var adminSeq int

// seedAdmin registers a user, promotes it to superuser directly in the DB
// and returns a signed-in token.
func seedAdmin(t *testing.T, srv *Server, app *fiber.App) string {
	adminSeq++
	email := fmt.Sprintf("admin%d@example.com", adminSeq)
	user := registerUser(t, app, "Admin", email, "adminpass123")
	require.NoError(t, srv.db.Model(&models.User{}).
		Where("id = ?", user.ID).
		Update("is_superuser", true).Error)
	return signIn(t, app, email, "adminpass123")
}

package server

import (
	"strconv"

	"whispervault/internal/models"

	"github.com/gofiber/fiber/v2"
)

// parseID parses a positive integer route parameter. On failure it writes a
// 400 response and returns ok=false; callers must return nil in that case.
func parseID(c *fiber.Ctx, name string) (uint, bool) {
	raw := c.Params(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+name+" parameter"))
		return 0, false
	}
	return uint(id), true
}

// parsePagination reads page and per_page query parameters with defaults and
// clamps per_page to the given maximum.
func parsePagination(c *fiber.Ctx, defaultPerPage, maxPerPage int) (page, perPage int) {
	page = c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	perPage = c.QueryInt("per_page", defaultPerPage)
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}

// respondServiceError maps application errors to HTTP statuses. Unknown
// errors become opaque 500s so internals never leak onto the wire.
func respondServiceError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	if appErr, ok := err.(*models.AppError); ok {
		switch appErr.Code {
		case "NOT_FOUND":
			status = fiber.StatusNotFound
		case "VALIDATION_ERROR":
			status = fiber.StatusBadRequest
		case "UNAUTHORIZED":
			status = fiber.StatusUnauthorized
		case "FORBIDDEN":
			status = fiber.StatusForbidden
		case "UNAVAILABLE":
			status = fiber.StatusServiceUnavailable
		}
	} else {
		err = models.NewInternalError(err)
	}
	return models.RespondWithError(c, status, err)
}

package server

import (
	"whispervault/internal/middleware"
	"whispervault/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetAdminConfessions lists confessions in the given status, oldest first,
// so reviewers work through the backlog in submission order.
func (s *Server) GetAdminConfessions(c *fiber.Ctx) error {
	status := models.ConfessionStatus(c.Query("status", string(models.ConfessionStatusPendingModeration)))
	switch status {
	case models.ConfessionStatusDraft,
		models.ConfessionStatusPendingModeration,
		models.ConfessionStatusBlocked,
		models.ConfessionStatusApproved,
		models.ConfessionStatusPublished:
	default:
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unknown status: "+string(status)))
	}

	page, perPage := parsePagination(c, 20, 100)

	envelope, err := s.confessionService.ListByStatus(c.UserContext(), status, page, perPage)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(envelope)
}

// ApproveConfession marks a confession approved, making it eligible for
// publishing.
func (s *Server) ApproveConfession(c *fiber.Ctx) error {
	return s.review(c, models.ConfessionStatusApproved)
}

// BlockConfession marks a confession blocked.
func (s *Server) BlockConfession(c *fiber.Ctx) error {
	return s.review(c, models.ConfessionStatusBlocked)
}

func (s *Server) review(c *fiber.Ctx, status models.ConfessionStatus) error {
	id, ok := parseID(c, "id")
	if !ok {
		return nil
	}

	confession, err := s.confessionService.Review(c.UserContext(), id, status)
	if err != nil {
		return respondServiceError(c, err)
	}

	middleware.Logger.InfoContext(c.UserContext(), "confession reviewed",
		"confession_id", id, "status", status)
	return c.JSON(confession)
}

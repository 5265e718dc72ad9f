package server

import (
	"whispervault/internal/middleware"
	"whispervault/internal/models"
	"whispervault/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateConfessionRequest is the payload for submitting a confession.
type CreateConfessionRequest struct {
	Gender    string `json:"gender"`
	Age       int    `json:"age"`
	Content   string `json:"content"`
	Language  string `json:"language"`
	Anonymous *bool  `json:"anonymous"`
}

// CreateConfession handles confession submission. Authentication is optional;
// signed-in users get the confession attached to their account unless they
// asked for anonymity.
func (s *Server) CreateConfession(c *fiber.Ctx) error {
	var req CreateConfessionRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	// Anonymous defaults to true; the whole product is built around it.
	anonymous := true
	if req.Anonymous != nil {
		anonymous = *req.Anonymous
	}

	var userID *uint
	if id, ok := c.Locals("userID").(uint); ok && !anonymous {
		userID = &id
	}

	confession, err := s.confessionService.Create(c.UserContext(), service.CreateConfessionInput{
		UserID:    userID,
		Gender:    req.Gender,
		Age:       req.Age,
		Content:   req.Content,
		Language:  req.Language,
		Anonymous: anonymous,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	middleware.Logger.InfoContext(c.UserContext(), "confession submitted",
		"confession_id", confession.ID, "status", confession.Status)
	return c.Status(fiber.StatusCreated).JSON(confession)
}

// GetConfessions lists recent confessions, newest first.
func (s *Server) GetConfessions(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)

	confessions, err := s.confessionService.ListRecent(c.UserContext(), limit)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(confessions)
}

// GetMyConfessions lists the authenticated user's confessions as a
// pagination envelope.
func (s *Server) GetMyConfessions(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	page, perPage := parsePagination(c, 10, 100)

	envelope, err := s.confessionService.ListMine(c.UserContext(), userID, page, perPage)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(envelope)
}

// GetConfession returns a single confession by ID.
func (s *Server) GetConfession(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return nil
	}

	confession, err := s.confessionService.Get(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(confession)
}

package server

import (
	"whispervault/internal/models"
	"whispervault/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UpdateProfileRequest carries optional profile updates.
type UpdateProfileRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// PublicProfile is the view of a user exposed to other users.
type PublicProfile struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// GetMyProfile returns the authenticated user's own account.
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	user, err := s.userService.Get(c.UserContext(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(user)
}

// UpdateMyProfile updates the authenticated user's account fields.
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.Update(c.UserContext(), userID, service.UpdateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(user)
}

// GetUserProfile returns a limited public view of another user.
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return nil
	}

	user, err := s.userService.Get(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}

	// Requesting your own ID returns the full record
	if callerID, _ := c.Locals("userID").(uint); callerID == user.ID {
		return c.JSON(user)
	}

	return c.JSON(PublicProfile{ID: user.ID, Name: user.Name})
}

package server

import (
	"time"

	"whispervault/internal/middleware"
	"whispervault/internal/models"
	"whispervault/internal/service"

	"github.com/gofiber/fiber/v2"
)

// RegisterRequest is the payload for account creation.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenRequest mirrors the OAuth2 password grant form fields.
type TokenRequest struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

// TokenResponse is the successful sign-in payload.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Register handles user registration
func (s *Server) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.Register(c.UserContext(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	middleware.Logger.InfoContext(c.UserContext(), "user registered", "new_user_id", user.ID)
	return c.Status(fiber.StatusCreated).JSON(user)
}

// RegisterAdmin creates a superuser account. The endpoint is gated by a
// deploy-time registration token and disabled when none is configured.
func (s *Server) RegisterAdmin(c *fiber.Ctx) error {
	if s.config.AdminRegistrationToken == "" ||
		c.Get("X-Admin-Token") != s.config.AdminRegistrationToken {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("Admin registration is disabled"))
	}

	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.Register(c.UserContext(), service.RegisterInput{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		Superuser: true,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	middleware.Logger.InfoContext(c.UserContext(), "admin registered", "new_user_id", user.ID)
	return c.Status(fiber.StatusCreated).JSON(user)
}

// Token handles sign-in. It accepts the form-encoded username/password pair
// and returns a bearer access token.
func (s *Server) Token(c *fiber.Ctx) error {
	var req TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.Username == "" || req.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Username and password are required"))
	}

	user, err := s.userService.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return respondServiceError(c, err)
	}

	token, err := s.generateToken(user.ID, user.Email)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	middleware.Logger.InfoContext(c.UserContext(), "user signed in", "auth_user_id", user.ID)
	return c.JSON(TokenResponse{AccessToken: token, TokenType: "bearer"})
}

// Logout revokes the current access token by blacklisting its JTI until the
// token would have expired anyway.
func (s *Server) Logout(c *fiber.Ctx) error {
	jti, _ := c.Locals("jti").(string)
	exp, _ := c.Locals("tokenExp").(int64)

	if jti != "" && s.redis != nil {
		ttl := accessTokenTTL
		if exp > 0 {
			if remaining := time.Until(time.Unix(exp, 0)); remaining > 0 {
				ttl = remaining
			}
		}
		if err := s.redis.Set(c.Context(), "blacklist:"+jti, "1", ttl).Err(); err != nil {
			middleware.RedisErrors.WithLabelValues("blacklist").Inc()
			middleware.Logger.WarnContext(c.UserContext(), "failed to blacklist token", "error", err)
		}
	}

	return c.JSON(fiber.Map{"message": "Successfully logged out"})
}

// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"whispervault/internal/cache"
	"whispervault/internal/config"
	"whispervault/internal/database"
	"whispervault/internal/middleware"
	"whispervault/internal/models"
	"whispervault/internal/moderation"
	"whispervault/internal/queue"
	"whispervault/internal/render"
	"whispervault/internal/repository"
	"whispervault/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	userRepo       repository.UserRepository
	confessionRepo repository.ConfessionRepository
	jobRepo        repository.PublishJobRepository
	tasks          *queue.Queue
	stopEvents     context.CancelFunc

	userService       *service.UserService
	confessionService *service.ConfessionService
	publishService    *service.PublishService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Tests use this to inject an in-memory database and a nil Redis client.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	userRepo := repository.NewUserRepository(db)
	confessionRepo := repository.NewConfessionRepository(db)
	jobRepo := repository.NewPublishJobRepository(db)

	tasks := queue.New(redisClient)
	engine := moderation.NewEngine()
	renderer := render.New(cfg.AssetsDir)

	prom := middleware.InitMetrics("whispervault-api")

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: prom,
		userRepo:       userRepo,
		confessionRepo: confessionRepo,
		jobRepo:        jobRepo,
		tasks:          tasks,
	}
	server.userService = service.NewUserService(userRepo)
	server.confessionService = service.NewConfessionService(confessionRepo, engine, tasks)
	server.publishService = service.NewPublishService(jobRepo, confessionRepo, tasks, renderer)

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware runs before middlewares that can short-circuit (e.g.
	// limiter) so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000,http://127.0.0.1:3000"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"detail": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Auth routes
	auth := app.Group("/auth")
	auth.Post("/register", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "register"), s.Register)
	auth.Post("/register-admin", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "register_admin"), s.RegisterAdmin)
	auth.Post("/token", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "token"), s.Token)
	auth.Post("/logout", s.AuthRequired(), s.Logout)
	auth.Get("/me", s.AuthRequired(), s.GetMyProfile)

	// User routes
	users := app.Group("/users", s.AuthRequired())
	users.Get("/me", s.GetMyProfile)
	users.Put("/me", s.UpdateMyProfile)
	users.Get("/:id", s.GetUserProfile)

	// Confession routes
	confessions := app.Group("/confessions")
	confessions.Post("/", middleware.RateLimit(
		s.redis, 5, 5*time.Minute, "create_confession"), s.OptionalAuth(), s.CreateConfession)
	confessions.Get("/", s.GetConfessions)
	// Specific routes must come before the generic /:id
	confessions.Get("/my-confessions", s.AuthRequired(), s.GetMyConfessions)
	confessions.Post("/:id/post-to-social", s.AuthRequired(), s.PostToSocial)
	confessions.Post("/:id/generate-image", s.AuthRequired(), s.GenerateImage)
	confessions.Get("/:id/jobs", s.AuthRequired(), s.GetConfessionJobs)
	confessions.Get("/:id", s.GetConfession)

	// Publish job polling
	publish := app.Group("/publish", s.AuthRequired())
	publish.Get("/jobs", s.GetPublishJobs)
	publish.Get("/jobs/:id", s.GetPublishJob)

	// Admin review queue
	admin := app.Group("/admin", s.AuthRequired(), s.SuperuserRequired())
	admin.Get("/confessions", s.GetAdminConfessions)
	admin.Post("/confessions/:id/approve", s.ApproveConfession)
	admin.Post("/confessions/:id/block", s.BlockConfession)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// The API degrades gracefully without Redis: moderation runs inline
		// and publish jobs stay queued. Report it but stay ready.
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"service": "whispervault-api",
		"status":  overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// SuperuserRequired returns middleware that rejects non-superusers with 403.
// Must run after AuthRequired so the user ID is available in locals.
func (s *Server) SuperuserRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(uint)

		user, err := s.userRepo.GetByID(c.UserContext(), userID)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		}
		if user == nil || !user.IsSuperuser {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("The user doesn't have enough privileges"))
		}

		return c.Next()
	}
}

// AuthRequired returns the authentication middleware
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, claims, ok := s.parseBearer(c)
		if !ok {
			c.Set("WWW-Authenticate", "Bearer")
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Could not validate credentials"))
		}

		// Check JTI against the revocation list
		if jti, exists := claims["jti"].(string); exists && jti != "" {
			if s.redis != nil {
				blacklisted, err := s.redis.Exists(c.Context(), "blacklist:"+jti).Result()
				if err == nil && blacklisted > 0 {
					return models.RespondWithError(c, fiber.StatusUnauthorized,
						models.NewUnauthorizedError("Token has been revoked"))
				}
			}
			c.Locals("jti", jti)
		}
		if exp, exists := claims["exp"].(float64); exists {
			c.Locals("tokenExp", int64(exp))
		}

		c.Locals("userID", userID)
		// Sync to UserContext for logging and downstream services
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, userID)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// OptionalAuth extracts the user from a bearer token when one is present but
// never rejects the request. Anonymous confession submission depends on it.
func (s *Server) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if userID, _, ok := s.parseBearer(c); ok {
			c.Locals("userID", userID)
			ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, userID)
			c.SetUserContext(ctx)
		}
		return c.Next()
	}
}

// parseBearer validates the Authorization header and returns the user ID and
// the token claims.
func (s *Server) parseBearer(c *fiber.Ctx) (uint, jwt.MapClaims, bool) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return 0, nil, false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return 0, nil, false
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, nil, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, nil, false
	}

	if issuer, issuerOk := claims["iss"].(string); !issuerOk || issuer != tokenIssuer {
		return 0, nil, false
	}
	if audience, audienceOk := claims["aud"].(string); !audienceOk || audience != tokenAudience {
		return 0, nil, false
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, nil, false
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return 0, nil, false
	}

	return uint(userID), claims, true
}

// Start starts the server
func (s *Server) Start() error {
	app := fiber.New(fiber.Config{
		AppName: "WhisperVault API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Detail: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	s.watchTaskEvents()

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// watchTaskEvents follows worker completion events so task outcomes show up
// in the API server's logs and metrics without polling the database.
func (s *Server) watchTaskEvents() {
	ctx, cancel := context.WithCancel(context.Background())
	s.stopEvents = cancel

	err := s.tasks.StartEventSubscriber(ctx, func(ev queue.Event) {
		middleware.TaskEventsObserved.WithLabelValues(string(ev.Type), ev.Status).Inc()
		if ev.Error != "" {
			middleware.Logger.Warn("background task failed",
				"task", string(ev.Type), "id", ev.ID, "error", ev.Error)
			return
		}
		middleware.Logger.Info("background task finished",
			"task", string(ev.Type), "id", ev.ID, "status", ev.Status)
	})
	if err != nil {
		middleware.Logger.Warn("task event subscription failed", "error", err)
	}
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.stopEvents != nil {
		s.stopEvents()
	}
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}

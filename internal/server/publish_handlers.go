package server

import (
	"whispervault/internal/middleware"
	"whispervault/internal/models"

	"github.com/gofiber/fiber/v2"
)

// PostToSocialRequest names the platforms a confession should be posted to.
type PostToSocialRequest struct {
	Platforms []string `json:"platforms"`
}

// PostToSocial creates a publish job for an approved confession. The job runs
// asynchronously; clients poll /publish/jobs/:id for progress.
func (s *Server) PostToSocial(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return nil
	}

	var req PostToSocialRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	job, err := s.publishService.Enqueue(c.UserContext(), id, req.Platforms)
	if err != nil {
		return respondServiceError(c, err)
	}

	middleware.Logger.InfoContext(c.UserContext(), "publish job created",
		"job_id", job.ID, "confession_id", id)
	return c.Status(fiber.StatusAccepted).JSON(job)
}

// GenerateImage renders the confession card synchronously and returns the
// asset path.
func (s *Server) GenerateImage(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return nil
	}

	assetPath, err := s.publishService.GenerateImage(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"confession_id": id,
		"asset_path":    assetPath,
	})
}

// GetPublishJobs lists recent publish jobs.
func (s *Server) GetPublishJobs(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)

	jobs, err := s.publishService.ListJobs(c.UserContext(), limit)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(jobs)
}

// GetPublishJob returns one publish job for polling.
func (s *Server) GetPublishJob(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return nil
	}

	job, err := s.publishService.GetJob(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(job)
}

// GetConfessionJobs lists publish jobs for a single confession.
func (s *Server) GetConfessionJobs(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return nil
	}

	jobs, err := s.publishService.ListJobsForConfession(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(jobs)
}

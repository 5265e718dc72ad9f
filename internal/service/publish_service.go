package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"whispervault/internal/middleware"
	"whispervault/internal/models"
	"whispervault/internal/queue"
	"whispervault/internal/render"
	"whispervault/internal/repository"

	"github.com/google/uuid"
)

// PublishService creates publish jobs for approved confessions and serves
// them for polling. Job execution lives in the worker.
type PublishService struct {
	jobs        repository.PublishJobRepository
	confessions repository.ConfessionRepository
	tasks       *queue.Queue
	renderer    *render.Renderer
}

// NewPublishService returns a new PublishService.
func NewPublishService(
	jobs repository.PublishJobRepository,
	confessions repository.ConfessionRepository,
	tasks *queue.Queue,
	renderer *render.Renderer,
) *PublishService {
	return &PublishService{
		jobs:        jobs,
		confessions: confessions,
		tasks:       tasks,
		renderer:    renderer,
	}
}

// Enqueue validates the request and creates a queued publish job. Only
// approved confessions may be published.
func (s *PublishService) Enqueue(ctx context.Context, confessionID uint, platforms []string) (*models.PublishJob, error) {
	if len(platforms) == 0 {
		return nil, models.NewValidationError("At least one platform is required")
	}
	seen := map[string]bool{}
	cleaned := make([]string, 0, len(platforms))
	for _, p := range platforms {
		p = strings.ToLower(strings.TrimSpace(p))
		if !models.ValidPlatform(p) {
			return nil, models.NewValidationError("Unknown platform: " + p)
		}
		if !seen[p] {
			seen[p] = true
			cleaned = append(cleaned, p)
		}
	}

	confession, err := s.confessions.GetByID(ctx, confessionID)
	if err != nil {
		return nil, err
	}
	if !confession.CanPublish() {
		return nil, models.NewValidationError("Confession must be approved to publish")
	}

	job := &models.PublishJob{
		ConfessionID: confessionID,
		PlatformsCSV: strings.Join(cleaned, ","),
		Status:       models.PublishStatusQueued,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}

	if err := s.tasks.Enqueue(ctx, queue.Task{Type: queue.TaskRenderAndPublish, ID: job.ID}); err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to enqueue publish task",
			slog.Any("job_id", job.ID),
			slog.String("error", err.Error()),
		)
		// A queued row no worker will ever see must not linger; mark it
		// failed and tell the caller to retry.
		job.Status = models.PublishStatusFailed
		job.Error = "Publish queue is unavailable"
		if updateErr := s.jobs.Update(ctx, job); updateErr != nil {
			middleware.Logger.ErrorContext(ctx, "failed to record enqueue failure",
				slog.Any("job_id", job.ID),
				slog.String("error", updateErr.Error()),
			)
		}
		return nil, models.NewUnavailableError("Publish queue is unavailable")
	}

	return job, nil
}

// GetJob returns one publish job by ID.
func (s *PublishService) GetJob(ctx context.Context, id uint) (*models.PublishJob, error) {
	return s.jobs.GetByID(ctx, id)
}

// ListJobs returns the most recent publish jobs, newest first.
func (s *PublishService) ListJobs(ctx context.Context, limit int) ([]models.PublishJob, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.jobs.ListRecent(ctx, limit)
}

// ListJobsForConfession returns all publish jobs for the given confession.
func (s *PublishService) ListJobsForConfession(ctx context.Context, confessionID uint) ([]models.PublishJob, error) {
	return s.jobs.ListByConfession(ctx, confessionID)
}

// GenerateImage renders the confession card synchronously and returns the
// asset path. The confession must be approved, matching the publish rule.
func (s *PublishService) GenerateImage(ctx context.Context, confessionID uint) (string, error) {
	confession, err := s.confessions.GetByID(ctx, confessionID)
	if err != nil {
		return "", err
	}
	if !confession.CanPublish() {
		return "", models.NewValidationError("Confession must be approved to generate an image")
	}

	filename := fmt.Sprintf("confession_%d_%s.png", confession.ID, uuid.New().String()[:8])
	assetPath, err := s.renderer.Render(confession.Content, filename)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return assetPath, nil
}

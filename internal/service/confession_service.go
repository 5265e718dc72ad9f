package service

import (
	"context"
	"log/slog"
	"strings"

	"whispervault/internal/middleware"
	"whispervault/internal/models"
	"whispervault/internal/moderation"
	"whispervault/internal/queue"
	"whispervault/internal/repository"
)

const (
	maxGenderLen   = 16
	maxLanguageLen = 16
	maxContentLen  = 10000
	minAge         = 13
	maxAge         = 120
)

// CreateConfessionInput is the payload for submitting a confession.
type CreateConfessionInput struct {
	UserID    *uint
	Gender    string
	Age       int
	Content   string
	Language  string
	Anonymous bool
}

// ConfessionService owns the confession lifecycle: submission, inline
// moderation, listing and admin review.
type ConfessionService struct {
	repo   repository.ConfessionRepository
	engine *moderation.Engine
	tasks  *queue.Queue
}

// NewConfessionService returns a new ConfessionService.
func NewConfessionService(repo repository.ConfessionRepository, engine *moderation.Engine, tasks *queue.Queue) *ConfessionService {
	return &ConfessionService{repo: repo, engine: engine, tasks: tasks}
}

// StatusForDecision maps a moderation decision onto a confession status.
func StatusForDecision(d moderation.Decision) models.ConfessionStatus {
	switch d {
	case moderation.DecisionApproved:
		return models.ConfessionStatusApproved
	case moderation.DecisionBlocked:
		return models.ConfessionStatusBlocked
	default:
		return models.ConfessionStatusPendingModeration
	}
}

// Create validates the submission, runs the inline moderation decision and
// persists the confession. Validation failures are returned before any
// repository call. When the queue is reachable, an async re-evaluation task
// is enqueued; queue errors leave the initial status in place.
func (s *ConfessionService) Create(ctx context.Context, in CreateConfessionInput) (*models.Confession, error) {
	in.Gender = strings.TrimSpace(in.Gender)
	in.Content = strings.TrimSpace(in.Content)
	in.Language = strings.TrimSpace(in.Language)

	if in.Content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(in.Content) > maxContentLen {
		return nil, models.NewValidationError("Content is too long")
	}
	if in.Gender == "" || len(in.Gender) > maxGenderLen {
		return nil, models.NewValidationError("Gender is required and must be at most 16 characters")
	}
	if len(in.Language) > maxLanguageLen {
		return nil, models.NewValidationError("Language must be at most 16 characters")
	}
	if in.Age < minAge || in.Age > maxAge {
		return nil, models.NewValidationError("Age must be between 13 and 120")
	}

	result := s.engine.Moderate(in.Content)
	middleware.ModerationDecisions.WithLabelValues(string(result.Decision)).Inc()

	confession := &models.Confession{
		UserID:    in.UserID,
		Gender:    in.Gender,
		Age:       in.Age,
		Content:   in.Content,
		Language:  in.Language,
		Anonymous: in.Anonymous,
		Status:    StatusForDecision(result.Decision),
	}
	if err := s.repo.Create(ctx, confession); err != nil {
		return nil, err
	}

	if err := s.tasks.Enqueue(ctx, queue.Task{Type: queue.TaskModerateConfession, ID: confession.ID}); err != nil && err != queue.ErrUnavailable {
		middleware.Logger.WarnContext(ctx, "failed to enqueue moderation task",
			slog.Any("confession_id", confession.ID),
			slog.String("error", err.Error()),
		)
	}

	return confession, nil
}

// Get returns one confession by ID.
func (s *ConfessionService) Get(ctx context.Context, id uint) (*models.Confession, error) {
	return s.repo.GetByID(ctx, id)
}

// ListRecent returns the most recent confessions, newest first.
func (s *ConfessionService) ListRecent(ctx context.Context, limit int) ([]models.Confession, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.ListRecent(ctx, limit)
}

// ListMine returns the given user's confessions as a pagination envelope.
func (s *ConfessionService) ListMine(ctx context.Context, userID uint, page, perPage int) (*models.Page, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	offset := (page - 1) * perPage
	items, total, err := s.repo.ListByUser(ctx, userID, perPage, offset)
	if err != nil {
		return nil, err
	}

	envelope := models.NewPage(items, total, page, perPage)
	return &envelope, nil
}

// ListByStatus returns confessions in the given status, oldest first, as a
// pagination envelope. Used by the admin review queue.
func (s *ConfessionService) ListByStatus(ctx context.Context, status models.ConfessionStatus, page, perPage int) (*models.Page, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}

	offset := (page - 1) * perPage
	items, total, err := s.repo.ListByStatus(ctx, status, perPage, offset)
	if err != nil {
		return nil, err
	}

	envelope := models.NewPage(items, total, page, perPage)
	return &envelope, nil
}

// Review applies an admin review decision to a confession. Only confessions
// awaiting moderation can be reviewed; approved, blocked and published ones
// are final from the reviewer's point of view.
func (s *ConfessionService) Review(ctx context.Context, id uint, status models.ConfessionStatus) (*models.Confession, error) {
	if status != models.ConfessionStatusApproved && status != models.ConfessionStatusBlocked {
		return nil, models.NewValidationError("status must be approved or blocked")
	}

	confession, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if confession.Status != models.ConfessionStatusPendingModeration {
		return nil, models.NewValidationError("Only pending confessions can be reviewed")
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	confession.Status = status
	return confession, nil
}

// Remoderate re-runs the moderation engine against a stored confession and
// updates its status. Called by the background worker.
func (s *ConfessionService) Remoderate(ctx context.Context, id uint) (*models.Confession, error) {
	confession, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	result := s.engine.Moderate(confession.Content)
	middleware.ModerationDecisions.WithLabelValues(string(result.Decision)).Inc()

	status := StatusForDecision(result.Decision)
	if status == confession.Status {
		return confession, nil
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	confession.Status = status
	return confession, nil
}

package repository

import (
	"context"
	"errors"

	"whispervault/internal/cache"
	"whispervault/internal/models"

	"gorm.io/gorm"
)

// PublishJobRepository defines persistence operations for publish jobs.
type PublishJobRepository interface {
	GetByID(ctx context.Context, id uint) (*models.PublishJob, error)
	Create(ctx context.Context, job *models.PublishJob) error
	Update(ctx context.Context, job *models.PublishJob) error
	ListRecent(ctx context.Context, limit int) ([]models.PublishJob, error)
	ListByConfession(ctx context.Context, confessionID uint) ([]models.PublishJob, error)
}

type publishJobRepository struct {
	db *gorm.DB
}

// NewPublishJobRepository returns a new PublishJobRepository implementation.
func NewPublishJobRepository(db *gorm.DB) PublishJobRepository {
	return &publishJobRepository{db: db}
}

func (r *publishJobRepository) GetByID(ctx context.Context, id uint) (*models.PublishJob, error) {
	var job models.PublishJob
	// Short TTL: clients poll jobs while a worker mutates them.
	err := cache.Aside(ctx, cache.PublishJobKey(id), &job, cache.PublishJobTTL, func() error {
		if err := r.db.WithContext(ctx).First(&job, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Publish job")
			}
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *publishJobRepository) Create(ctx context.Context, job *models.PublishJob) error {
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *publishJobRepository) Update(ctx context.Context, job *models.PublishJob) error {
	if err := r.db.WithContext(ctx).Save(job).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePublishJob(ctx, job.ID)
	return nil
}

func (r *publishJobRepository) ListRecent(ctx context.Context, limit int) ([]models.PublishJob, error) {
	var jobs []models.PublishJob
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&jobs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return jobs, nil
}

func (r *publishJobRepository) ListByConfession(ctx context.Context, confessionID uint) ([]models.PublishJob, error) {
	var jobs []models.PublishJob
	if err := r.db.WithContext(ctx).
		Where("confession_id = ?", confessionID).
		Order("created_at DESC").
		Find(&jobs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return jobs, nil
}

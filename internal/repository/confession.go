package repository

import (
	"context"
	"errors"

	"whispervault/internal/cache"
	"whispervault/internal/models"

	"gorm.io/gorm"
)

// ConfessionRepository defines persistence operations for confessions.
type ConfessionRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Confession, error)
	Create(ctx context.Context, confession *models.Confession) error
	UpdateStatus(ctx context.Context, id uint, status models.ConfessionStatus) error
	ListRecent(ctx context.Context, limit int) ([]models.Confession, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Confession, int64, error)
	ListByStatus(ctx context.Context, status models.ConfessionStatus, limit, offset int) ([]models.Confession, int64, error)
}

type confessionRepository struct {
	db *gorm.DB
}

// NewConfessionRepository returns a new ConfessionRepository implementation.
func NewConfessionRepository(db *gorm.DB) ConfessionRepository {
	return &confessionRepository{db: db}
}

func (r *confessionRepository) GetByID(ctx context.Context, id uint) (*models.Confession, error) {
	var confession models.Confession
	key := cache.ConfessionKey(id)

	err := cache.Aside(ctx, key, &confession, cache.ConfessionTTL, func() error {
		if err := r.db.WithContext(ctx).First(&confession, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Confession")
			}
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &confession, nil
}

func (r *confessionRepository) Create(ctx context.Context, confession *models.Confession) error {
	if err := r.db.WithContext(ctx).Create(confession).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *confessionRepository) UpdateStatus(ctx context.Context, id uint, status models.ConfessionStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.Confession{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Confession")
	}
	cache.InvalidateConfession(ctx, id)
	return nil
}

func (r *confessionRepository) ListRecent(ctx context.Context, limit int) ([]models.Confession, error) {
	var confessions []models.Confession
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&confessions).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return confessions, nil
}

func (r *confessionRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Confession, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.Confession{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var confessions []models.Confession
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&confessions).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return confessions, total, nil
}

func (r *confessionRepository) ListByStatus(ctx context.Context, status models.ConfessionStatus, limit, offset int) ([]models.Confession, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.Confession{}).
		Where("status = ?", status).
		Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var confessions []models.Confession
	if err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&confessions).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return confessions, total, nil
}

package service

import (
	"context"

	"whispervault/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	args := m.Called(ctx, limit, offset)
	if u := args.Get(0); u != nil {
		return u.([]models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockConfessionRepo struct {
	mock.Mock
}

func (m *mockConfessionRepo) GetByID(ctx context.Context, id uint) (*models.Confession, error) {
	args := m.Called(ctx, id)
	if c := args.Get(0); c != nil {
		return c.(*models.Confession), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockConfessionRepo) Create(ctx context.Context, confession *models.Confession) error {
	args := m.Called(ctx, confession)
	return args.Error(0)
}

func (m *mockConfessionRepo) UpdateStatus(ctx context.Context, id uint, status models.ConfessionStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *mockConfessionRepo) ListRecent(ctx context.Context, limit int) ([]models.Confession, error) {
	args := m.Called(ctx, limit)
	if c := args.Get(0); c != nil {
		return c.([]models.Confession), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockConfessionRepo) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Confession, int64, error) {
	args := m.Called(ctx, userID, limit, offset)
	if c := args.Get(0); c != nil {
		return c.([]models.Confession), args.Get(1).(int64), args.Error(2)
	}
	return nil, args.Get(1).(int64), args.Error(2)
}

func (m *mockConfessionRepo) ListByStatus(ctx context.Context, status models.ConfessionStatus, limit, offset int) ([]models.Confession, int64, error) {
	args := m.Called(ctx, status, limit, offset)
	if c := args.Get(0); c != nil {
		return c.([]models.Confession), args.Get(1).(int64), args.Error(2)
	}
	return nil, args.Get(1).(int64), args.Error(2)
}

type mockJobRepo struct {
	mock.Mock
}

func (m *mockJobRepo) GetByID(ctx context.Context, id uint) (*models.PublishJob, error) {
	args := m.Called(ctx, id)
	if j := args.Get(0); j != nil {
		return j.(*models.PublishJob), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockJobRepo) Create(ctx context.Context, job *models.PublishJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *mockJobRepo) Update(ctx context.Context, job *models.PublishJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *mockJobRepo) ListRecent(ctx context.Context, limit int) ([]models.PublishJob, error) {
	args := m.Called(ctx, limit)
	if j := args.Get(0); j != nil {
		return j.([]models.PublishJob), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockJobRepo) ListByConfession(ctx context.Context, confessionID uint) ([]models.PublishJob, error) {
	args := m.Called(ctx, confessionID)
	if j := args.Get(0); j != nil {
		return j.([]models.PublishJob), args.Error(1)
	}
	return nil, args.Error(1)
}

package service

import (
	"context"
	"testing"

	"whispervault/internal/models"
	"whispervault/internal/moderation"
	"whispervault/internal/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newConfessionService(repo *mockConfessionRepo) *ConfessionService {
	return NewConfessionService(repo, moderation.NewEngine(), queue.New(nil))
}

func validInput() CreateConfessionInput {
	return CreateConfessionInput{
		Gender:    "female",
		Age:       27,
		Content:   "I pretend to be busy at work when I have nothing to do.",
		Language:  "en",
		Anonymous: true,
	}
}

func TestCreateConfessionValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateConfessionInput)
	}{
		{"empty content", func(in *CreateConfessionInput) { in.Content = "" }},
		{"whitespace content", func(in *CreateConfessionInput) { in.Content = "   \n\t " }},
		{"missing gender", func(in *CreateConfessionInput) { in.Gender = "" }},
		{"gender too long", func(in *CreateConfessionInput) { in.Gender = "aaaaaaaaaaaaaaaaa" }},
		{"language too long", func(in *CreateConfessionInput) { in.Language = "aaaaaaaaaaaaaaaaa" }},
		{"too young", func(in *CreateConfessionInput) { in.Age = 12 }},
		{"too old", func(in *CreateConfessionInput) { in.Age = 121 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockConfessionRepo)
			svc := newConfessionService(repo)

			in := validInput()
			tt.mutate(&in)

			_, err := svc.Create(context.Background(), in)
			assert.Error(t, err)
			appErr, ok := err.(*models.AppError)
			assert.True(t, ok)
			assert.Equal(t, "VALIDATION_ERROR", appErr.Code)

			// Rejected before any persistence happens
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateConfessionModerationStatus(t *testing.T) {
	tests := []struct {
		name    string
		content string
		status  models.ConfessionStatus
	}{
		{"clean content approved", "I sing in the shower every day.", models.ConfessionStatusApproved},
		{"banned word blocked", "I hate everyone around me.", models.ConfessionStatusBlocked},
		{"pii blocked", "text me on 5551234567 please", models.ConfessionStatusBlocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockConfessionRepo)
			repo.On("Create", mock.Anything, mock.Anything).Return(nil)
			svc := newConfessionService(repo)

			in := validInput()
			in.Content = tt.content

			confession, err := svc.Create(context.Background(), in)
			assert.NoError(t, err)
			assert.Equal(t, tt.status, confession.Status)
			repo.AssertExpectations(t)
		})
	}
}

func TestListMineEnvelope(t *testing.T) {
	repo := new(mockConfessionRepo)
	items := make([]models.Confession, 5)
	repo.On("ListByUser", mock.Anything, uint(7), 5, 5).Return(items, int64(12), nil)
	svc := newConfessionService(repo)

	page, err := svc.ListMine(context.Background(), 7, 2, 5)
	assert.NoError(t, err)
	assert.Equal(t, int64(12), page.Total)
	assert.Equal(t, 3, page.Pages)
	assert.True(t, page.HasNext)
	assert.True(t, page.HasPrev)
	repo.AssertExpectations(t)
}

func TestReviewRejectsNonTerminalStatus(t *testing.T) {
	repo := new(mockConfessionRepo)
	svc := newConfessionService(repo)

	_, err := svc.Review(context.Background(), 1, models.ConfessionStatusPendingModeration)
	assert.Error(t, err)
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestReviewAppliesDecision(t *testing.T) {
	repo := new(mockConfessionRepo)
	repo.On("UpdateStatus", mock.Anything, uint(3), models.ConfessionStatusApproved).Return(nil)
	repo.On("GetByID", mock.Anything, uint(3)).Return(&models.Confession{
		ID:     3,
		Status: models.ConfessionStatusPendingModeration,
	}, nil)
	svc := newConfessionService(repo)

	confession, err := svc.Review(context.Background(), 3, models.ConfessionStatusApproved)
	assert.NoError(t, err)
	assert.Equal(t, models.ConfessionStatusApproved, confession.Status)
	repo.AssertExpectations(t)
}

func TestReviewOnlyAppliesToPendingConfessions(t *testing.T) {
	for _, current := range []models.ConfessionStatus{
		models.ConfessionStatusDraft,
		models.ConfessionStatusApproved,
		models.ConfessionStatusBlocked,
		models.ConfessionStatusPublished,
	} {
		t.Run(string(current), func(t *testing.T) {
			repo := new(mockConfessionRepo)
			repo.On("GetByID", mock.Anything, uint(4)).Return(&models.Confession{
				ID:     4,
				Status: current,
			}, nil)
			svc := newConfessionService(repo)

			_, err := svc.Review(context.Background(), 4, models.ConfessionStatusBlocked)
			assert.Error(t, err)
			assert.Contains(t, err.Error(), "Only pending confessions")
			repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestRemoderateUpdatesChangedStatus(t *testing.T) {
	repo := new(mockConfessionRepo)
	repo.On("GetByID", mock.Anything, uint(9)).Return(&models.Confession{
		ID:      9,
		Content: "I hate this so much",
		Status:  models.ConfessionStatusApproved,
	}, nil)
	repo.On("UpdateStatus", mock.Anything, uint(9), models.ConfessionStatusBlocked).Return(nil)
	svc := newConfessionService(repo)

	confession, err := svc.Remoderate(context.Background(), 9)
	assert.NoError(t, err)
	assert.Equal(t, models.ConfessionStatusBlocked, confession.Status)
	repo.AssertExpectations(t)
}

package repository

import (
	"context"
	"testing"

	"whispervault/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestPublishJobRepository(t *testing.T) {
	db := setupTestDB(t)
	confessions := NewConfessionRepository(db)
	repo := NewPublishJobRepository(db)
	ctx := context.Background()

	confession := &models.Confession{Content: "approved one", Status: models.ConfessionStatusApproved}
	assert.NoError(t, confessions.Create(ctx, confession))

	t.Run("Create and GetByID", func(t *testing.T) {
		job := &models.PublishJob{
			ConfessionID: confession.ID,
			PlatformsCSV: "fb,x",
			Status:       models.PublishStatusQueued,
		}
		assert.NoError(t, repo.Create(ctx, job))
		assert.NotZero(t, job.ID)

		fetched, err := repo.GetByID(ctx, job.ID)
		assert.NoError(t, err)
		assert.Equal(t, models.PublishStatusQueued, fetched.Status)
		assert.Equal(t, []string{"fb", "x"}, fetched.Platforms())
	})

	t.Run("GetByID not found", func(t *testing.T) {
		_, err := repo.GetByID(ctx, 9999)
		assert.Error(t, err)
	})

	t.Run("Update lifecycle", func(t *testing.T) {
		job := &models.PublishJob{ConfessionID: confession.ID, PlatformsCSV: "ig", Status: models.PublishStatusQueued}
		assert.NoError(t, repo.Create(ctx, job))

		job.Status = models.PublishStatusFailed
		job.Error = "Confession is no longer approved"
		assert.NoError(t, repo.Update(ctx, job))

		fetched, err := repo.GetByID(ctx, job.ID)
		assert.NoError(t, err)
		assert.Equal(t, models.PublishStatusFailed, fetched.Status)
		assert.Equal(t, "Confession is no longer approved", fetched.Error)
	})

	t.Run("ListByConfession", func(t *testing.T) {
		jobs, err := repo.ListByConfession(ctx, confession.ID)
		assert.NoError(t, err)
		assert.Len(t, jobs, 2)
	})
}

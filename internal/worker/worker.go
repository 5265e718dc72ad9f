// Package worker drains the background task queue: async moderation
// re-evaluation and render-and-publish jobs.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"whispervault/internal/middleware"
	"whispervault/internal/models"
	"whispervault/internal/queue"
	"whispervault/internal/render"
	"whispervault/internal/repository"
	"whispervault/internal/service"
	"whispervault/internal/social"
)

// Worker consumes tasks from the queue and executes them.
type Worker struct {
	confessions *service.ConfessionService
	confRepo    repository.ConfessionRepository
	jobs        repository.PublishJobRepository
	tasks       *queue.Queue
	renderer    *render.Renderer
	publishers  social.Registry
}

// New returns a Worker wired to the given dependencies.
func New(
	confessions *service.ConfessionService,
	confRepo repository.ConfessionRepository,
	jobs repository.PublishJobRepository,
	tasks *queue.Queue,
	renderer *render.Renderer,
	publishers social.Registry,
) *Worker {
	return &Worker{
		confessions: confessions,
		confRepo:    confRepo,
		jobs:        jobs,
		tasks:       tasks,
		renderer:    renderer,
		publishers:  publishers,
	}
}

// Run processes tasks until ctx is done. Individual task failures are logged
// and recorded on the job; they never stop the loop.
func (w *Worker) Run(ctx context.Context) error {
	if !w.tasks.Available() {
		return queue.ErrUnavailable
	}

	for {
		task, err := w.tasks.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			middleware.Logger.ErrorContext(ctx, "worker dequeue failed",
				slog.String("error", err.Error()),
			)
			// Transient Redis failure: back off briefly before retrying.
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}

		w.Process(ctx, *task)

		if depth, err := w.tasks.Depth(ctx); err == nil {
			middleware.QueueDepth.Set(float64(depth))
		}
	}
}

// Process executes a single task.
func (w *Worker) Process(ctx context.Context, task queue.Task) {
	switch task.Type {
	case queue.TaskModerateConfession:
		w.processModeration(ctx, task.ID)
	case queue.TaskRenderAndPublish:
		w.processPublish(ctx, task.ID)
	default:
		middleware.Logger.WarnContext(ctx, "worker received unknown task type",
			slog.String("type", string(task.Type)),
			slog.Any("id", task.ID),
		)
	}
}

func (w *Worker) processModeration(ctx context.Context, confessionID uint) {
	confession, err := w.confessions.Remoderate(ctx, confessionID)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == "NOT_FOUND" {
			// Deleted between enqueue and processing; nothing to do.
			return
		}
		middleware.Logger.ErrorContext(ctx, "worker moderation task failed",
			slog.Any("confession_id", confessionID),
			slog.String("error", err.Error()),
		)
		return
	}

	_ = w.tasks.PublishEvent(ctx, queue.Event{
		Type:   queue.TaskModerateConfession,
		ID:     confessionID,
		Status: string(confession.Status),
	})
}

func (w *Worker) processPublish(ctx context.Context, jobID uint) {
	job, err := w.jobs.GetByID(ctx, jobID)
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "worker publish task: job lookup failed",
			slog.Any("job_id", jobID),
			slog.String("error", err.Error()),
		)
		return
	}

	job.Status = models.PublishStatusProcessing
	if err := w.jobs.Update(ctx, job); err != nil {
		middleware.Logger.ErrorContext(ctx, "worker publish task: status update failed",
			slog.Any("job_id", jobID),
			slog.String("error", err.Error()),
		)
		return
	}

	confession, err := w.confRepo.GetByID(ctx, job.ConfessionID)
	if err != nil {
		w.failJob(ctx, job, "Confession missing")
		return
	}
	// The confession may have been blocked between enqueue and processing.
	if confession.Status != models.ConfessionStatusApproved && confession.Status != models.ConfessionStatusPublished {
		w.failJob(ctx, job, "Confession is no longer approved")
		return
	}

	filename := fmt.Sprintf("confession_%d_job_%d.png", confession.ID, job.ID)
	assetPath, err := w.renderer.Render(confession.Content, filename)
	if err != nil {
		w.failJob(ctx, job, err.Error())
		return
	}
	job.AssetPath = assetPath

	post := social.Post{
		ConfessionID: confession.ID,
		Content:      confession.Content,
		AssetPath:    assetPath,
	}
	for _, platform := range job.Platforms() {
		publisher, ok := w.publishers.Lookup(platform)
		if !ok {
			w.failJob(ctx, job, "Unknown platform: "+platform)
			return
		}
		if err := publisher.Publish(ctx, post); err != nil {
			w.failJob(ctx, job, err.Error())
			return
		}
	}

	job.Status = models.PublishStatusCompleted
	job.Error = ""
	if err := w.jobs.Update(ctx, job); err != nil {
		middleware.Logger.ErrorContext(ctx, "worker publish task: completion update failed",
			slog.Any("job_id", job.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	if confession.Status == models.ConfessionStatusApproved {
		if err := w.confRepo.UpdateStatus(ctx, confession.ID, models.ConfessionStatusPublished); err != nil {
			middleware.Logger.WarnContext(ctx, "worker publish task: failed to mark confession published",
				slog.Any("confession_id", confession.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	middleware.PublishJobsProcessed.WithLabelValues(string(models.PublishStatusCompleted)).Inc()
	_ = w.tasks.PublishEvent(ctx, queue.Event{
		Type:   queue.TaskRenderAndPublish,
		ID:     job.ID,
		Status: string(models.PublishStatusCompleted),
	})
}

func (w *Worker) failJob(ctx context.Context, job *models.PublishJob, reason string) {
	if len(reason) > 512 {
		reason = reason[:512]
	}
	job.Status = models.PublishStatusFailed
	job.Error = reason
	if err := w.jobs.Update(ctx, job); err != nil {
		middleware.Logger.ErrorContext(ctx, "worker publish task: failure update failed",
			slog.Any("job_id", job.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	middleware.PublishJobsProcessed.WithLabelValues(string(models.PublishStatusFailed)).Inc()
	_ = w.tasks.PublishEvent(ctx, queue.Event{
		Type:   queue.TaskRenderAndPublish,
		ID:     job.ID,
		Status: string(models.PublishStatusFailed),
		Error:  reason,
	})
}

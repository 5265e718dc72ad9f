// Package queue provides the Redis-backed background task queue shared by
// the API server (producer) and the worker (consumer).
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"runtime/debug"

	"github.com/redis/go-redis/v9"
)

const (
	tasksKey      = "wv:jobs"
	eventsChannel = "wv:jobs:events"
)

// ErrUnavailable is returned when no Redis connection is configured.
var ErrUnavailable = errors.New("queue: redis unavailable")

// TaskType names a background task.
type TaskType string

const (
	TaskModerateConfession TaskType = "moderate_confession"
	TaskRenderAndPublish   TaskType = "render_and_publish"
)

// Task is one unit of background work. ID refers to a confession for
// moderation tasks and to a publish job for render-and-publish tasks.
type Task struct {
	Type TaskType `json:"type"`
	ID   uint     `json:"id"`
}

// Event is broadcast on the events channel when a worker finishes a task.
type Event struct {
	Type   TaskType `json:"type"`
	ID     uint     `json:"id"`
	Status string   `json:"status"`
	Error  string   `json:"error,omitempty"`
}

// Queue is a Redis list based task queue with a pub/sub event side channel.
type Queue struct {
	rdb *redis.Client
}

// New returns a Queue backed by the given Redis client. A nil client yields
// a queue whose operations return ErrUnavailable.
func New(rdb *redis.Client) *Queue {
	return &Queue{rdb: rdb}
}

// Available reports whether the queue has a Redis connection.
func (q *Queue) Available() bool {
	return q != nil && q.rdb != nil
}

// Enqueue pushes a task onto the queue.
func (q *Queue) Enqueue(ctx context.Context, task Task) error {
	if !q.Available() {
		return ErrUnavailable
	}
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("queue: marshal task: %w", err)
	}
	return q.rdb.LPush(ctx, tasksKey, payload).Err()
}

// Dequeue blocks until a task is available or ctx is done.
func (q *Queue) Dequeue(ctx context.Context) (*Task, error) {
	if !q.Available() {
		return nil, ErrUnavailable
	}
	// BRPOP with zero timeout blocks until a task arrives; context
	// cancellation unblocks it.
	res, err := q.rdb.BRPop(ctx, 0, tasksKey).Result()
	if err != nil {
		return nil, err
	}
	if len(res) != 2 {
		return nil, fmt.Errorf("queue: unexpected BRPOP reply of length %d", len(res))
	}

	var task Task
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		return nil, fmt.Errorf("queue: unmarshal task: %w", err)
	}
	return &task, nil
}

// Depth returns the number of tasks waiting in the queue.
func (q *Queue) Depth(ctx context.Context) (int64, error) {
	if !q.Available() {
		return 0, ErrUnavailable
	}
	return q.rdb.LLen(ctx, tasksKey).Result()
}

// PublishEvent broadcasts a task completion event. Best-effort: a nil client
// is a no-op.
func (q *Queue) PublishEvent(ctx context.Context, ev Event) error {
	if !q.Available() {
		return nil
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("queue: marshal event: %w", err)
	}
	return q.rdb.Publish(ctx, eventsChannel, payload).Err()
}

// StartEventSubscriber subscribes to task completion events and calls onEvent
// for each one until ctx is done.
func (q *Queue) StartEventSubscriber(ctx context.Context, onEvent func(Event)) error {
	if !q.Available() {
		return nil
	}
	sub := q.rdb.Subscribe(ctx, eventsChannel)
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in queue event subscriber: %v\n%s", r, debug.Stack())
						}
					}()
					var ev Event
					if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
						log.Printf("queue: dropping malformed event: %v", err)
						return
					}
					onEvent(ev)
				}()
			}
		}
	}()

	return nil
}

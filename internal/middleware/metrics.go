package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "whispervault_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// ModerationDecisions counts moderation engine decisions by outcome.
	ModerationDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "whispervault_moderation_decisions_total",
		Help: "Total number of moderation decisions by outcome",
	}, []string{"decision"})

	// PublishJobsProcessed counts finished publish jobs by result status.
	PublishJobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "whispervault_publish_jobs_processed_total",
		Help: "Total number of publish jobs processed by result status",
	}, []string{"status"})

	// TaskEventsObserved counts worker completion events seen by the API
	// server's event subscriber.
	TaskEventsObserved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "whispervault_task_events_observed_total",
		Help: "Total number of background task completion events observed",
	}, []string{"task", "status"})

	// QueueDepth is the gauge of tasks waiting in the Redis job queue.
	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "whispervault_queue_depth",
		Help: "Number of tasks waiting in the job queue",
	})
)

var (
	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus
)

// InitMetrics creates the Prometheus HTTP middleware for the given service
// name. HTTP collectors register against the global registry, so repeated
// calls return the same instance.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		prom = fiberprometheus.New(serviceName)
	})
	return prom
}

// MetricsMiddleware returns the Fiber handler recording HTTP metrics.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}

// Package cache holds the shared Redis client plus the JSON cache helpers
// and the key inventory used by the repositories.
package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"whispervault/internal/middleware"

	"github.com/redis/go-redis/v9"
)

var client *redis.Client

const connectTimeout = 5 * time.Second

// errCounterHook feeds command failures into the Redis error counter.
type errCounterHook struct{}

func (errCounterHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (errCounterHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if err != nil && !errors.Is(err, redis.Nil) {
			middleware.RedisErrors.WithLabelValues(cmd.Name()).Inc()
		}
		return err
	}
}

func (errCounterHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, redis.Nil) {
			middleware.RedisErrors.WithLabelValues("pipeline").Inc()
		}
		return err
	}
}

// InitRedis connects the package client. REDIS_URL may be a redis:// URL or
// a bare host:port. Connection problems are not fatal; the API runs without
// caching, token revocation or the task queue, and InitRedis leaves the
// client nil so every caller degrades the same way.
func InitRedis(addr string) {
	opts, err := parseAddr(addr)
	if err != nil {
		middleware.Logger.Warn("invalid REDIS_URL, continuing without Redis",
			"addr", addr, "error", err)
		client = nil
		return
	}

	rdb := redis.NewClient(opts)
	rdb.AddHook(errCounterHook{})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		middleware.Logger.Warn("Redis unreachable, continuing without it",
			"addr", addr, "error", err)
		client = nil
		return
	}

	middleware.Logger.Info("Redis connected")
	client = rdb
}

func parseAddr(addr string) (*redis.Options, error) {
	if strings.Contains(addr, "://") {
		return redis.ParseURL(addr)
	}
	return &redis.Options{Addr: addr}, nil
}

// GetClient returns the shared Redis client, or nil when Redis is not
// configured or unreachable.
func GetClient() *redis.Client {
	return client
}

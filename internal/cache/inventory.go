package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix       = "user:%d"
	ConfessionKeyPrefix = "confession:%d"
	PublishJobKeyPrefix = "job:%d"
)

const (
	UserTTL       = 5 * time.Minute
	ConfessionTTL = 10 * time.Minute
	PublishJobTTL = 30 * time.Second
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func ConfessionKey(id uint) string {
	return fmt.Sprintf(ConfessionKeyPrefix, id)
}

func PublishJobKey(id uint) string {
	return fmt.Sprintf(PublishJobKeyPrefix, id)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidateConfession(ctx context.Context, id uint) {
	Invalidate(ctx, ConfessionKey(id))
}

func InvalidatePublishJob(ctx context.Context, id uint) {
	Invalidate(ctx, PublishJobKey(id))
}

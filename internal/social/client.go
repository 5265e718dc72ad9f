// Package social implements the outbound publishers that post approved
// confessions to external platforms.
package social

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"whispervault/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// Post is the payload delivered to a platform.
type Post struct {
	ConfessionID uint   `json:"confession_id"`
	Content      string `json:"content"`
	AssetPath    string `json:"asset_path,omitempty"`
}

// Publisher posts a confession to one platform.
type Publisher interface {
	Platform() string
	Publish(ctx context.Context, post Post) error
}

// Hourly post budgets per platform.
var postsPerHour = map[string]int{
	"fb": 25,
	"ig": 25,
	"x":  50,
}

const rateWindow = time.Hour

// ErrRateLimited is wrapped into publish errors when the hourly budget for a
// platform is exhausted.
var ErrRateLimited = fmt.Errorf("social: platform rate limit exceeded")

// Client posts to a platform's configured HTTP endpoint. An empty endpoint
// puts the client in dry-run mode: the post is counted and logged but no
// outbound call is made.
type Client struct {
	platform   string
	endpoint   string
	apiKey     string
	httpClient *http.Client
	rdb        *redis.Client
}

// NewClient creates a publisher for the given platform code.
func NewClient(platform, endpoint, apiKey string, rdb *redis.Client) *Client {
	return &Client{
		platform: platform,
		endpoint: endpoint,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		rdb: rdb,
	}
}

// Platform returns the platform code this client posts to.
func (c *Client) Platform() string {
	return c.platform
}

// Publish delivers the post, honoring the platform's hourly budget.
func (c *Client) Publish(ctx context.Context, post Post) error {
	allowed, err := c.canPost(ctx)
	if err != nil {
		// Rate-limit bookkeeping is best-effort; fail open like the
		// request rate limiter does.
		middleware.Logger.WarnContext(ctx, "social rate limit check failed",
			slog.String("platform", c.platform),
			slog.String("error", err.Error()),
		)
	} else if !allowed {
		return fmt.Errorf("%w: %s", ErrRateLimited, c.platform)
	}

	if c.endpoint == "" {
		middleware.Logger.InfoContext(ctx, "social publish (dry run)",
			slog.String("platform", c.platform),
			slog.Any("confession_id", post.ConfessionID),
		)
		c.recordPost(ctx)
		return nil
	}

	body, err := json.Marshal(post)
	if err != nil {
		return fmt.Errorf("social: marshal post: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("social: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("social: post to %s: %w", c.platform, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("social: %s returned status %d: %s", c.platform, resp.StatusCode, bytes.TrimSpace(detail))
	}

	c.recordPost(ctx)
	middleware.Logger.InfoContext(ctx, "social publish delivered",
		slog.String("platform", c.platform),
		slog.Any("confession_id", post.ConfessionID),
		slog.Int("status", resp.StatusCode),
	)
	return nil
}

func (c *Client) rateKey() string {
	return fmt.Sprintf("rate_limit:%s:posts", c.platform)
}

func (c *Client) canPost(ctx context.Context) (bool, error) {
	if c.rdb == nil {
		return true, nil
	}
	limit, ok := postsPerHour[c.platform]
	if !ok {
		limit = 10
	}
	cnt, err := c.rdb.Get(ctx, c.rateKey()).Int64()
	if err == redis.Nil {
		return true, nil
	}
	if err != nil {
		return true, err
	}
	return cnt < int64(limit), nil
}

func (c *Client) recordPost(ctx context.Context) {
	if c.rdb == nil {
		return
	}
	pipe := c.rdb.Pipeline()
	pipe.Incr(ctx, c.rateKey())
	pipe.Expire(ctx, c.rateKey(), rateWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		middleware.Logger.WarnContext(ctx, "social rate limit record failed",
			slog.String("platform", c.platform),
			slog.String("error", err.Error()),
		)
	}
}

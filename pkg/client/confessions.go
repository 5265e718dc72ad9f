package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrEmptyContent is returned by CreateConfession before any request is
// issued when the confession text is empty.
var ErrEmptyContent = errors.New("client: confession content is required")

// Confession is a confession as returned by the API.
type Confession struct {
	ID        uint      `json:"id"`
	UserID    *uint     `json:"user_id,omitempty"`
	Gender    string    `json:"gender"`
	Age       int       `json:"age"`
	Content   string    `json:"content"`
	Language  string    `json:"language,omitempty"`
	Anonymous bool      `json:"anonymous"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PublishJob tracks one social posting request. Callers create it via
// PostToSocial and poll it via GetPublishJob.
type PublishJob struct {
	ID           uint      `json:"id"`
	ConfessionID uint      `json:"confession_id"`
	PlatformsCSV string    `json:"platforms_csv"`
	AssetPath    string    `json:"asset_path,omitempty"`
	Status       string    `json:"status"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ConfessionPage is the pagination envelope for confession listings.
type ConfessionPage struct {
	Items   []Confession `json:"items"`
	Total   int64        `json:"total"`
	Page    int          `json:"page"`
	PerPage int          `json:"per_page"`
	Pages   int          `json:"pages"`
	HasNext bool         `json:"has_next"`
	HasPrev bool         `json:"has_prev"`
}

// CreateConfessionInput is the payload for submitting a confession.
// Anonymous defaults to true server-side when left nil.
type CreateConfessionInput struct {
	Gender    string `json:"gender"`
	Age       int    `json:"age"`
	Content   string `json:"content"`
	Language  string `json:"language,omitempty"`
	Anonymous *bool  `json:"anonymous,omitempty"`
}

// CreateConfession submits a confession. Empty content is rejected locally
// with ErrEmptyContent; no request reaches the network in that case.
func (c *Client) CreateConfession(ctx context.Context, in CreateConfessionInput) (*Confession, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, ErrEmptyContent
	}

	var confession Confession
	if err := c.postJSON(ctx, "/confessions/", in, &confession); err != nil {
		return nil, err
	}
	return &confession, nil
}

// Confessions lists the most recent public confessions, newest first.
func (c *Client) Confessions(ctx context.Context, limit int) ([]Confession, error) {
	path := "/confessions/"
	if limit > 0 {
		path = fmt.Sprintf("/confessions/?limit=%d", limit)
	}

	var confessions []Confession
	if err := c.getJSON(ctx, path, &confessions); err != nil {
		return nil, err
	}
	return confessions, nil
}

// Confession fetches one confession by ID.
func (c *Client) Confession(ctx context.Context, id uint) (*Confession, error) {
	var confession Confession
	if err := c.getJSON(ctx, fmt.Sprintf("/confessions/%d", id), &confession); err != nil {
		return nil, err
	}
	return &confession, nil
}

// MyConfessions lists the signed-in user's confessions as a pagination
// envelope.
func (c *Client) MyConfessions(ctx context.Context, page, perPage int) (*ConfessionPage, error) {
	if page < 1 {
		page = 1
	}
	path := fmt.Sprintf("/confessions/my-confessions?page=%d", page)
	if perPage > 0 {
		path = fmt.Sprintf("%s&per_page=%d", path, perPage)
	}

	var envelope ConfessionPage
	if err := c.getJSON(ctx, path, &envelope); err != nil {
		return nil, err
	}
	return &envelope, nil
}

// PostToSocial asks the server to publish an approved confession to the
// given platforms. The returned job starts queued; poll it with
// GetPublishJob.
func (c *Client) PostToSocial(ctx context.Context, confessionID uint, platforms []string) (*PublishJob, error) {
	payload := map[string][]string{"platforms": platforms}
	var job PublishJob
	path := fmt.Sprintf("/confessions/%d/post-to-social", confessionID)
	if err := c.postJSON(ctx, path, payload, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// GetPublishJob fetches one publish job by ID.
func (c *Client) GetPublishJob(ctx context.Context, id uint) (*PublishJob, error) {
	var job PublishJob
	if err := c.getJSON(ctx, fmt.Sprintf("/publish/jobs/%d", id), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

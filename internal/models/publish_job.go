package models

import (
	"strings"
	"time"
)

// PublishStatus is the lifecycle state of a publish job.
type PublishStatus string

const (
	PublishStatusQueued     PublishStatus = "queued"
	PublishStatusProcessing PublishStatus = "processing"
	PublishStatusCompleted  PublishStatus = "completed"
	PublishStatusFailed     PublishStatus = "failed"
)

// Publish platforms accepted in a publish request.
const (
	PlatformFacebook  = "fb"
	PlatformInstagram = "ig"
	PlatformX         = "x"
)

// ValidPlatform reports whether p names a supported social platform.
func ValidPlatform(p string) bool {
	switch p {
	case PlatformFacebook, PlatformInstagram, PlatformX:
		return true
	}
	return false
}

// PublishJob represents one unit of work posting an approved confession
// to a set of social platforms. Lifecycle is worker-owned; the API only
// creates jobs and serves them for polling.
type PublishJob struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	ConfessionID uint          `gorm:"not null;index" json:"confession_id"`
	Confession   Confession    `gorm:"foreignKey:ConfessionID" json:"-"`
	PlatformsCSV string        `gorm:"size:64;not null" json:"platforms_csv"`
	AssetPath    string        `gorm:"size:512" json:"asset_path,omitempty"`
	Status       PublishStatus `gorm:"size:16;not null;default:queued;index" json:"status"`
	Error        string        `gorm:"size:512" json:"error,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Platforms splits the stored CSV into platform names.
func (j *PublishJob) Platforms() []string {
	if j.PlatformsCSV == "" {
		return nil
	}
	parts := strings.Split(j.PlatformsCSV, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

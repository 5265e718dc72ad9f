package models

import (
	"time"

	"gorm.io/gorm"
)

// ConfessionStatus is the moderation lifecycle state of a confession.
type ConfessionStatus string

const (
	ConfessionStatusDraft             ConfessionStatus = "draft"
	ConfessionStatusPendingModeration ConfessionStatus = "pending_moderation"
	ConfessionStatusBlocked           ConfessionStatus = "blocked"
	ConfessionStatusApproved          ConfessionStatus = "approved"
	ConfessionStatusPublished         ConfessionStatus = "published"
)

// Confession represents an anonymous confession submitted by a visitor.
// UserID is optional: anonymous submissions carry no author.
type Confession struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    *uint            `gorm:"index" json:"user_id,omitempty"`
	Gender    string           `gorm:"size:16;not null" json:"gender"`
	Age       int              `gorm:"not null" json:"age"`
	Content   string           `gorm:"type:text;not null" json:"content"`
	Language  string           `gorm:"size:16" json:"language,omitempty"`
	Anonymous bool             `gorm:"not null;default:true" json:"anonymous"`
	Status    ConfessionStatus `gorm:"size:32;not null;default:pending_moderation;index" json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	DeletedAt gorm.DeletedAt   `gorm:"index" json:"-"`
}

// CanPublish reports whether the confession is eligible for an outbound
// publish job. Only approved confessions may leave the vault.
func (c *Confession) CanPublish() bool {
	return c.Status == ConfessionStatusApproved
}

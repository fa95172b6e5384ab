// Package domain contains the access grant records for gated resources.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	AssignmentStatusLocked   = "locked"
	AssignmentStatusUnlocked = "unlocked"
)

// Assignment ties a consumer to a gated resource. A pair is unlocked by at
// most one logical event; the underlying write converges under replays.
type Assignment struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	ResourceID string       `gorm:"type:text;not null;uniqueIndex:uq_assignments_resource_consumer" json:"resource_id"`
	ConsumerID string       `gorm:"type:text;not null;uniqueIndex:uq_assignments_resource_consumer" json:"consumer_id"`
	Status     string       `gorm:"type:text;not null;default:'locked'" json:"status"`
	Source     string       `gorm:"type:text;not null;default:''" json:"source"`
	UnlockedAt *time.Time   `json:"unlocked_at,omitempty"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Assignment) TableName() string { return "assignments" }

// ResourceAccess is the companion record kept under the resource itself so
// resource-side reads never join through assignments.
type ResourceAccess struct {
	ResourceID string    `gorm:"primaryKey;type:text" json:"resource_id"`
	ConsumerID string    `gorm:"primaryKey;type:text" json:"consumer_id"`
	Source     string    `gorm:"type:text;not null;default:''" json:"source"`
	UnlockedAt time.Time `gorm:"not null" json:"unlocked_at"`
}

func (ResourceAccess) TableName() string { return "resource_access" }

type Service interface {
	// Unlock grants access. Safe to call repeatedly; replays converge on
	// the state produced by the first call.
	Unlock(ctx context.Context, resourceID, consumerID, source string) error
	IsUnlocked(ctx context.Context, resourceID, consumerID string) (bool, error)
}

var ErrInvalidUnlock = errors.New("invalid_unlock")

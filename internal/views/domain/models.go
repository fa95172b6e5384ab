// Package domain contains view counting records.
package domain

import (
	"context"
	"time"
)

// ViewRecord marks that a device saw a resource on a given day. The key is
// deterministic over (resource, device, day), so a duplicate creation
// attempt collides instead of double counting.
type ViewRecord struct {
	ViewKey      string    `gorm:"primaryKey;type:text" json:"view_key"`
	ResourceID   string    `gorm:"type:text;not null" json:"resource_id"`
	DeviceID     string    `gorm:"type:text;not null" json:"device_id"`
	Day          string    `gorm:"type:text;not null" json:"day"`
	ViewerUserID *string   `gorm:"type:text" json:"viewer_user_id,omitempty"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (ViewRecord) TableName() string { return "view_records" }

// ResourceViews is the per-resource rollup counter.
type ResourceViews struct {
	ResourceID string    `gorm:"primaryKey;type:text" json:"resource_id"`
	ViewCount  int64     `gorm:"not null;default:0" json:"view_count"`
	UpdatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (ResourceViews) TableName() string { return "resource_views" }

// RegisterRequest carries one view sighting.
type RegisterRequest struct {
	ResourceID   string
	DeviceID     string
	ViewerUserID string
}

// Recorder counts views best-effort. RegisterView never propagates
// failures to the caller; it reports whether a new view was counted.
type Recorder interface {
	RegisterView(ctx context.Context, req RegisterRequest) bool
	Count(ctx context.Context, resourceID string) (int64, error)
}

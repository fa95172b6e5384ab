package service

import (
	"context"
	"strings"

	"github.com/pedraum/payments/internal/clock"
	"github.com/pedraum/payments/internal/events"
	"github.com/pedraum/payments/internal/observability/logger"
	viewsdomain "github.com/pedraum/payments/internal/views/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dayLayout = "2006-01-02"

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Clock  clock.Clock
	Outbox *events.Outbox
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	clock  clock.Clock
	outbox *events.Outbox
}

func NewService(p Params) viewsdomain.Recorder {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("views.service"),
		clock:  p.Clock,
		outbox: p.Outbox,
	}
}

// RegisterView counts at most one view per (resource, device, day). The
// dedup mechanism is the keyed insert itself: a conflict means the device
// was already counted today. Failures are logged and swallowed; view
// counting never blocks the caller's primary action.
func (s *Service) RegisterView(ctx context.Context, req viewsdomain.RegisterRequest) bool {
	resourceID := strings.TrimSpace(req.ResourceID)
	deviceID := strings.TrimSpace(req.DeviceID)
	if resourceID == "" || deviceID == "" {
		return false
	}

	now := s.clock.Now().UTC()
	day := now.Format(dayLayout)
	key := resourceID + ":" + deviceID + ":" + day

	var viewer *string
	if v := strings.TrimSpace(req.ViewerUserID); v != "" {
		viewer = &v
	}

	result := s.db.WithContext(ctx).Exec(
		`INSERT INTO view_records (view_key, resource_id, device_id, day, viewer_user_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (view_key) DO NOTHING`,
		key,
		resourceID,
		deviceID,
		day,
		viewer,
		now,
	)
	if result.Error != nil {
		logger.FromContext(ctx).Warn("view record write failed",
			zap.String("resource_id", resourceID),
			zap.Error(result.Error),
		)
		return false
	}
	if result.RowsAffected == 0 {
		// Already counted today.
		return false
	}

	if err := s.db.WithContext(ctx).Exec(
		`INSERT INTO resource_views (resource_id, view_count, updated_at)
		 VALUES (?, 1, ?)
		 ON CONFLICT (resource_id) DO UPDATE SET
		   view_count = resource_views.view_count + 1,
		   updated_at = excluded.updated_at`,
		resourceID,
		now,
	).Error; err != nil {
		logger.FromContext(ctx).Warn("view counter increment failed",
			zap.String("resource_id", resourceID),
			zap.Error(err),
		)
		return false
	}

	// Events fire only on real increments; the key makes replays collide
	// in the outbox as well.
	if err := s.outbox.Publish(ctx, events.Event{
		Type: events.EventViewRegistered,
		Payload: map[string]any{
			"resource_id": resourceID,
			"device_id":   deviceID,
			"day":         day,
		},
		DedupeKey: events.EventViewRegistered + ":" + key,
	}); err != nil {
		logger.FromContext(ctx).Warn("view event publish failed",
			zap.String("resource_id", resourceID),
			zap.Error(err),
		)
	}
	return true
}

func (s *Service) Count(ctx context.Context, resourceID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Raw(
		`SELECT COALESCE(MAX(view_count), 0) FROM resource_views WHERE resource_id = ?`,
		strings.TrimSpace(resourceID),
	).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

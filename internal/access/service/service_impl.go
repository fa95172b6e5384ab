package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	accessdomain "github.com/pedraum/payments/internal/access/domain"
	"github.com/pedraum/payments/internal/events"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Outbox *events.Outbox
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	outbox *events.Outbox
}

func NewService(p Params) accessdomain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("access.service"),
		genID:  p.GenID,
		outbox: p.Outbox,
	}
}

// Unlock merge-writes the assignment and the companion resource record in
// one transaction. Both upserts are keyed, so a webhook replay or the
// client-side fallback lands on the same final state: unlocked_at keeps the
// timestamp of the first unlock.
func (s *Service) Unlock(ctx context.Context, resourceID, consumerID, source string) error {
	resourceID = strings.TrimSpace(resourceID)
	consumerID = strings.TrimSpace(consumerID)
	source = strings.TrimSpace(source)
	if resourceID == "" || consumerID == "" {
		return accessdomain.ErrInvalidUnlock
	}

	now := time.Now().UTC()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).Exec(
			`INSERT INTO assignments (id, resource_id, consumer_id, status, source, unlocked_at, created_at, updated_at)
			 VALUES (?, ?, ?, 'unlocked', ?, ?, ?, ?)
			 ON CONFLICT (resource_id, consumer_id) DO UPDATE SET
			   status = 'unlocked',
			   unlocked_at = COALESCE(assignments.unlocked_at, excluded.unlocked_at),
			   source = CASE WHEN assignments.source = '' THEN excluded.source ELSE assignments.source END,
			   updated_at = excluded.updated_at`,
			s.genID.Generate(),
			resourceID,
			consumerID,
			source,
			now,
			now,
			now,
		).Error; err != nil {
			return err
		}

		if err := tx.WithContext(ctx).Exec(
			`INSERT INTO resource_access (resource_id, consumer_id, source, unlocked_at)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT (resource_id, consumer_id) DO NOTHING`,
			resourceID,
			consumerID,
			source,
			now,
		).Error; err != nil {
			return err
		}

		return s.outbox.PublishTx(ctx, tx, events.Event{
			Type:      events.EventAccessUnlocked,
			Payload:   events.UnlockPayload{ResourceID: resourceID, ConsumerID: consumerID, Source: source}.ToMap(),
			DedupeKey: events.EventAccessUnlocked + ":" + resourceID + ":" + consumerID,
		})
	})
}

func (s *Service) IsUnlocked(ctx context.Context, resourceID, consumerID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM assignments
		 WHERE resource_id = ? AND consumer_id = ? AND status = 'unlocked'`,
		strings.TrimSpace(resourceID),
		strings.TrimSpace(consumerID),
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, order *Order) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Order, error)
	FindByBuyer(ctx context.Context, db *gorm.DB, buyerID string) ([]Order, error)
	// SetPaymentLink backfills the provider redirect URL once. A second
	// write for the same order is a no-op and reports false.
	SetPaymentLink(ctx context.Context, db *gorm.DB, id snowflake.ID, link, providerRef string) (bool, error)
	// AdvanceStatus applies a forward-only transition and reports whether
	// the row actually changed.
	AdvanceStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, to Status, providerRef string) (bool, error)
}

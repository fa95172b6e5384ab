package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Get(ctx context.Context, id string) (*Order, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]Order, error)
}

var (
	ErrOrderNotFound       = errors.New("order_not_found")
	ErrInvalidOrderID      = errors.New("invalid_order_id")
	ErrInvalidResourceKind = errors.New("invalid_resource_kind")
	ErrInvalidStatus       = errors.New("invalid_status")
)

// ParseID converts a client-supplied order identifier.
func ParseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return 0, ErrInvalidOrderID
	}
	return id, nil
}

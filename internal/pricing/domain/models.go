// Package domain defines the price resolution contract.
package domain

import (
	"context"
	"errors"
)

// CandidateFields is the fixed, ordered list of column names that may hold
// a price. Older records predate the price column and carry the value under
// a legacy name; the order encodes which name wins when several are set.
var CandidateFields = []string{"price", "value", "amount", "valor", "preco"}

// ResolveRequest identifies the resource whose price is wanted. RelatedID
// names the parent demand for nested lead records. PathHint, when present,
// is checked before the ordered candidate list.
type ResolveRequest struct {
	ResourceID string
	RelatedID  string
	PathHint   string
}

// Quote is the ephemeral result of a price lookup. It is never persisted.
type Quote struct {
	Price float64 `json:"price"`
	Path  string  `json:"path"`
	Field string  `json:"field"`
}

type Resolver interface {
	Resolve(ctx context.Context, req ResolveRequest) (Quote, error)
}

var (
	// ErrPriceNotFound means every candidate location was exhausted.
	// Callers surface this as "price unavailable", not as a server fault.
	ErrPriceNotFound   = errors.New("price_not_found")
	ErrInvalidResource = errors.New("invalid_resource")
)

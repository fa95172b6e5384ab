// Package domain defines the checkout initiation contract.
package domain

import (
	"context"
	"errors"
)

// CreateRequest starts a purchase. RelatedID and PathHint feed the price
// resolver for nested lead records.
type CreateRequest struct {
	ResourceKind string
	ResourceID   string
	BuyerID      string
	Title        string
	RelatedID    string
	PathHint     string
}

type CreateResponse struct {
	OrderID     string  `json:"order_id"`
	RedirectURL string  `json:"redirect_url"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*CreateResponse, error)
}

var (
	ErrMissingResource = errors.New("missing_resource_id")
	ErrMissingBuyer    = errors.New("missing_buyer_id")
	ErrMissingTitle    = errors.New("missing_title")
)

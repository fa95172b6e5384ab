// Package domain contains the order record and its lifecycle rules.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusCreated  Status = "created"
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

// statusRank orders the lifecycle. Transitions only move to a strictly
// higher rank, which makes late or replayed provider notifications safe:
// an approved order can never fall back to pending.
var statusRank = map[Status]int{
	StatusCreated:  0,
	StatusPending:  1,
	StatusApproved: 2,
	StatusFailed:   2,
	StatusCanceled: 2,
}

func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusFailed || s == StatusCanceled
}

// CanTransition reports whether an order may move from one status to
// another. Terminal states accept nothing; equal or lower ranks are no-ops.
func CanTransition(from, to Status) bool {
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	return toRank > fromRank
}

// PriorStatuses returns every status an order may hold immediately before
// reaching the target. Used to build guarded UPDATE clauses.
func PriorStatuses(to Status) []Status {
	priors := make([]Status, 0, 2)
	for status, rank := range statusRank {
		if rank < statusRank[to] {
			priors = append(priors, status)
		}
	}
	return priors
}

const (
	ResourceKindLead    = "lead"
	ResourceKindPlan    = "plan"
	ResourceKindProduct = "product"
)

func ValidResourceKind(kind string) bool {
	switch kind {
	case ResourceKindLead, ResourceKindPlan, ResourceKindProduct:
		return true
	}
	return false
}

// Order records an attempt to purchase a resource. Orders are never
// deleted; the status column is the single source of truth for the
// payment lifecycle.
type Order struct {
	ID                snowflake.ID `gorm:"primaryKey" json:"id"`
	ResourceKind      string       `gorm:"type:text;not null" json:"resource_kind"`
	ResourceID        string       `gorm:"type:text;not null" json:"resource_id"`
	BuyerID           string       `gorm:"type:text;not null" json:"buyer_id"`
	Title             string       `gorm:"type:text;not null;default:''" json:"title"`
	Amount            float64      `gorm:"not null" json:"amount"`
	Currency          string       `gorm:"type:text;not null;default:'BRL'" json:"currency"`
	Status            Status       `gorm:"type:text;not null;default:'created'" json:"status"`
	ProviderReference string       `gorm:"type:text;not null;default:''" json:"provider_reference"`
	PaymentLink       string       `gorm:"type:text;not null;default:''" json:"payment_link"`
	CreatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Order) TableName() string { return "orders" }

package domain

import "context"

// Notification is a provider webhook delivery after transport decoding.
// Raw keeps the original body for the audit trail.
type Notification struct {
	Topic     string
	PaymentID string
	Raw       map[string]any
}

// Outcomes recorded per processed notification.
const (
	OutcomeIgnored = "ignored"
	OutcomeApplied = "applied"
	OutcomeNoop    = "noop"
	OutcomeError   = "error"
)

// Result describes what a notification did to local state. The transport
// layer acknowledges deliveries regardless of the outcome, so failures
// surface here instead of in an error return.
type Result struct {
	Outcome string
	Detail  string
	OrderID string
}

type Service interface {
	// Process reconciles one provider notification against local orders.
	// The provider is always re-queried for the authoritative payment
	// status; the notification payload is only a pointer.
	Process(ctx context.Context, n Notification) Result
}

package events

// Domain event types consumed by notification delivery.
const (
	EventOrderApproved  = "order.approved"
	EventOrderFailed    = "order.failed"
	EventOrderCanceled  = "order.canceled"
	EventAccessUnlocked = "access.unlocked"
	EventViewRegistered = "view.registered"
)

// OrderPayload captures the minimal data needed to notify about an order
// lifecycle change.
type OrderPayload struct {
	OrderID      string `json:"order_id"`
	ResourceKind string `json:"resource_kind"`
	ResourceID   string `json:"resource_id"`
	BuyerID      string `json:"buyer_id"`
	Status       string `json:"status"`
}

func (p OrderPayload) ToMap() map[string]any {
	return map[string]any{
		"order_id":      p.OrderID,
		"resource_kind": p.ResourceKind,
		"resource_id":   p.ResourceID,
		"buyer_id":      p.BuyerID,
		"status":        p.Status,
	}
}

// UnlockPayload captures the minimal data needed to notify about an unlock.
type UnlockPayload struct {
	ResourceID string `json:"resource_id"`
	ConsumerID string `json:"consumer_id"`
	Source     string `json:"source"`
}

func (p UnlockPayload) ToMap() map[string]any {
	return map[string]any{
		"resource_id": p.ResourceID,
		"consumer_id": p.ConsumerID,
		"source":      p.Source,
	}
}

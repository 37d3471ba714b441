package events

import "context"

// Event types
const (
	EventFundsLocked    = "funds_locked"
	EventFundsReleased  = "funds_released"
	EventFundsRefunded  = "funds_refunded"
	EventOrderShipped   = "order_shipped"
	EventDisputeOpened  = "dispute_opened"
	EventDisputeVerdict = "dispute_verdict"
)

// StreamMarketplace carries every engine event; the notification hub fans
// them out to the users the event names in its payload.
const StreamMarketplace = "events:marketplace"

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

// Publisher is fire-and-forget from the engine's perspective: a publish
// failure never fails the transition that produced the event.
type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}

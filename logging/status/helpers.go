package status

import (
	"context"

	"grindfall/server/logging"
)

const (
	// EventApplied is emitted when a status lands on a character.
	EventApplied logging.EventType = "status.applied"
	// EventRejected is emitted when a weaker reapplication leaves the existing status in place.
	EventRejected logging.EventType = "status.rejected"
	// EventExpired is emitted when a status runs out.
	EventExpired logging.EventType = "status.expired"
)

// Payload describes a status instance.
type Payload struct {
	Kind       string  `json:"kind"`
	Source     string  `json:"source,omitempty"`
	Value      float64 `json:"value"`
	Duration   float64 `json:"duration,omitempty"`
	Permanent  bool    `json:"permanent,omitempty"`
	Cumulative bool    `json:"cumulative,omitempty"`
}

// Applied publishes a status application event.
func Applied(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, target logging.EntityRef, payload Payload, extra map[string]any) {
	publish(ctx, pub, EventApplied, tick, actor, target, payload, extra)
}

// Rejected publishes an event for a reapplication that lost the strength comparison.
func Rejected(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, target logging.EntityRef, payload Payload, extra map[string]any) {
	publish(ctx, pub, EventRejected, tick, actor, target, payload, extra)
}

// Expired publishes a status expiry event. The actor is the character that
// carried the status.
func Expired(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload Payload, extra map[string]any) {
	publish(ctx, pub, EventExpired, tick, actor, logging.EntityRef{}, payload, extra)
}

func publish(ctx context.Context, pub logging.Publisher, eventType logging.EventType, tick uint64, actor logging.EntityRef, target logging.EntityRef, payload Payload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     eventType,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryStatus,
		Payload:  payload,
		Extra:    extra,
	}
	if target.Kind != "" {
		event.Targets = []logging.EntityRef{target}
	}
	pub.Publish(ctx, event)
}

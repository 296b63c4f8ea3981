package persistence

import (
	"context"

	"grindfall/server/logging"
)

const (
	// EventSaved is emitted after an instance snapshot is written.
	EventSaved logging.EventType = "persistence.saved"
	// EventSaveFailed is emitted when writing a snapshot fails.
	EventSaveFailed logging.EventType = "persistence.save_failed"
	// EventLoadFailed is emitted when a stored snapshot cannot be read or decoded.
	EventLoadFailed logging.EventType = "persistence.load_failed"
)

// SavedPayload describes a successful write.
type SavedPayload struct {
	Bytes  int    `json:"bytes"`
	Reason string `json:"reason"`
}

// FailurePayload describes a failed persistence operation.
type FailurePayload struct {
	Reason string `json:"reason"`
	Error  string `json:"error"`
}

// Saved publishes a debug event for a persisted snapshot.
func Saved(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload SavedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventSaved,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryPersistence,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// SaveFailed publishes an error event for a failed write.
func SaveFailed(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload FailurePayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventSaveFailed,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityError,
		Category: logging.CategoryPersistence,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// LoadFailed publishes an error event for an unreadable snapshot.
func LoadFailed(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload FailurePayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventLoadFailed,
		Actor:    actor,
		Severity: logging.SeverityError,
		Category: logging.CategoryPersistence,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

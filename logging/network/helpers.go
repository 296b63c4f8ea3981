package network

import (
	"context"

	"grindfall/server/logging"
)

const (
	// EventConnected is emitted after a client completes the connect handshake.
	EventConnected logging.EventType = "network.connected"
	// EventProtocolError is emitted when a client sends a malformed or unexpected message.
	EventProtocolError logging.EventType = "network.protocol_error"
	// EventDisconnected is emitted when a connection closes.
	EventDisconnected logging.EventType = "network.disconnected"
)

// ConnectionPayload identifies a connection.
type ConnectionPayload struct {
	ConnectionID string `json:"connectionId"`
	Remote       string `json:"remote,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// Connected publishes a handshake completion event.
func Connected(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload ConnectionPayload, extra map[string]any) {
	publish(ctx, pub, EventConnected, logging.SeverityInfo, actor, payload, extra)
}

// ProtocolError publishes a warning for a misbehaving client.
func ProtocolError(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload ConnectionPayload, extra map[string]any) {
	publish(ctx, pub, EventProtocolError, logging.SeverityWarn, actor, payload, extra)
}

// Disconnected publishes a connection close event.
func Disconnected(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload ConnectionPayload, extra map[string]any) {
	publish(ctx, pub, EventDisconnected, logging.SeverityInfo, actor, payload, extra)
}

func publish(ctx context.Context, pub logging.Publisher, eventType logging.EventType, severity logging.Severity, actor logging.EntityRef, payload ConnectionPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     eventType,
		Actor:    actor,
		Severity: severity,
		Category: logging.CategoryNetwork,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

package lifecycle

import (
	"context"

	"grindfall/server/logging"
)

const (
	// EventSessionStarted is emitted when a character's instance is checked out.
	EventSessionStarted logging.EventType = "lifecycle.session_started"
	// EventSessionReleased is emitted when an instance returns to the registry.
	EventSessionReleased logging.EventType = "lifecycle.session_released"
	// EventSessionExpired is emitted when the sweep evicts an idle instance.
	EventSessionExpired logging.EventType = "lifecycle.session_expired"
	// EventPlayerDied is emitted when the player's life reaches zero.
	EventPlayerDied logging.EventType = "lifecycle.player_died"
	// EventPlayerRespawned is emitted when the player comes back after the respawn delay.
	EventPlayerRespawned logging.EventType = "lifecycle.player_respawned"
	// EventAreaLevelChanged is emitted when the area level moves.
	EventAreaLevelChanged logging.EventType = "lifecycle.area_level_changed"
	// EventQuestEnded is emitted when a run reaches its terminal state.
	EventQuestEnded logging.EventType = "lifecycle.quest_ended"
)

// SessionPayload describes where a session came from or went to.
type SessionPayload struct {
	Origin string `json:"origin,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// AreaLevelPayload captures an area level transition.
type AreaLevelPayload struct {
	From int  `json:"from"`
	To   int  `json:"to"`
	Boss bool `json:"boss,omitempty"`
}

// QuestEndedPayload summarizes a finished run.
type QuestEndedPayload struct {
	AreaLevel      int    `json:"areaLevel"`
	MonstersKilled uint64 `json:"monstersKilled"`
	Terminated     bool   `json:"terminated,omitempty"`
}

// SessionStarted publishes a session checkout event.
func SessionStarted(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload SessionPayload, extra map[string]any) {
	publish(ctx, pub, EventSessionStarted, logging.SeverityInfo, 0, actor, payload, extra)
}

// SessionReleased publishes a session release event.
func SessionReleased(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload SessionPayload, extra map[string]any) {
	publish(ctx, pub, EventSessionReleased, logging.SeverityInfo, tick, actor, payload, extra)
}

// SessionExpired publishes an idle eviction event.
func SessionExpired(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload SessionPayload, extra map[string]any) {
	publish(ctx, pub, EventSessionExpired, logging.SeverityInfo, 0, actor, payload, extra)
}

// PlayerDied publishes a player death event.
func PlayerDied(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, extra map[string]any) {
	publish(ctx, pub, EventPlayerDied, logging.SeverityInfo, tick, actor, nil, extra)
}

// PlayerRespawned publishes a respawn event.
func PlayerRespawned(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, extra map[string]any) {
	publish(ctx, pub, EventPlayerRespawned, logging.SeverityDebug, tick, actor, nil, extra)
}

// AreaLevelChanged publishes an area transition event.
func AreaLevelChanged(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload AreaLevelPayload, extra map[string]any) {
	publish(ctx, pub, EventAreaLevelChanged, logging.SeverityDebug, tick, actor, payload, extra)
}

// QuestEnded publishes the end of a run.
func QuestEnded(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload QuestEndedPayload, extra map[string]any) {
	publish(ctx, pub, EventQuestEnded, logging.SeverityInfo, tick, actor, payload, extra)
}

func publish(ctx context.Context, pub logging.Publisher, eventType logging.EventType, severity logging.Severity, tick uint64, actor logging.EntityRef, payload any, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     eventType,
		Tick:     tick,
		Actor:    actor,
		Severity: severity,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

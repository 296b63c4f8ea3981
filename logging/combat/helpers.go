package combat

import (
	"context"

	"grindfall/server/logging"
)

const (
	// EventSkillUsed is emitted when a character commits a skill.
	EventSkillUsed logging.EventType = "combat.skill_used"
	// EventHit is emitted for every resolved damage hit.
	EventHit logging.EventType = "combat.hit"
	// EventKill is emitted when a hit or a status drops a character to zero life.
	EventKill logging.EventType = "combat.kill"
	// EventTriggerFired is emitted when a trigger applies its effects.
	EventTriggerFired logging.EventType = "combat.trigger_fired"
)

// SkillUsedPayload identifies the skill and how many targets it affected.
type SkillUsedPayload struct {
	Skill   string `json:"skill"`
	Targets int    `json:"targets"`
}

// HitPayload captures the outcome of one hit.
type HitPayload struct {
	Skill      string             `json:"skill,omitempty"`
	Damage     map[string]float64 `json:"damage,omitempty"`
	Crit       bool               `json:"crit,omitempty"`
	Blocked    bool               `json:"blocked,omitempty"`
	Evaded     bool               `json:"evaded,omitempty"`
	Triggered  bool               `json:"triggered,omitempty"`
	TargetLife float64            `json:"targetLife"`
}

// KillPayload describes the final blow.
type KillPayload struct {
	Skill string `json:"skill,omitempty"`
}

// TriggerFiredPayload identifies the trigger that fired.
type TriggerFiredPayload struct {
	Trigger string `json:"trigger"`
	Event   string `json:"event"`
}

// SkillUsed publishes a debug event for a committed skill.
func SkillUsed(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload SkillUsedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventSkillUsed,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryCombat,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// Hit publishes a combat hit event for a single target.
func Hit(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, target logging.EntityRef, payload HitPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventHit,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityDebug,
		Category: logging.CategoryCombat,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// Kill publishes a kill event for the defeated character.
func Kill(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, target logging.EntityRef, payload KillPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventKill,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// TriggerFired publishes a debug event for an applied trigger.
func TriggerFired(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload TriggerFiredPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventTriggerFired,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryCombat,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

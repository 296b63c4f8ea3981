package simulation

import (
	"context"

	"grindfall/server/logging"
)

const (
	// EventTickBudgetOverrun is emitted when a tick takes longer than the tick period.
	EventTickBudgetOverrun logging.EventType = "simulation.tick_budget_overrun"
	// EventCommandRejected is emitted when a player command fails validation.
	EventCommandRejected logging.EventType = "simulation.command_rejected"
	// EventCommandPanicked is emitted when a command handler panics and the tick recovers.
	EventCommandPanicked logging.EventType = "simulation.command_panicked"
	// EventCommandsDeferred is emitted when the per-tick command budget leaves commands queued.
	EventCommandsDeferred logging.EventType = "simulation.commands_deferred"
)

// TickBudgetOverrunPayload captures timing details for a tick budget breach.
type TickBudgetOverrunPayload struct {
	DurationMillis int64   `json:"durationMillis"`
	BudgetMillis   int64   `json:"budgetMillis"`
	Ratio          float64 `json:"ratio"`
	Streak         uint64  `json:"streak"`
}

// CommandPayload identifies the command and why it failed.
type CommandPayload struct {
	Command string `json:"command"`
	Kind    string `json:"kind,omitempty"`
	Reason  string `json:"reason"`
}

// CommandsDeferredPayload counts commands left for the next tick.
type CommandsDeferredPayload struct {
	Pending int `json:"pending"`
	Budget  int `json:"budget"`
}

// TickBudgetOverrun publishes a warning when a tick exceeds its budget.
func TickBudgetOverrun(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload TickBudgetOverrunPayload, extra map[string]any) {
	publish(ctx, pub, EventTickBudgetOverrun, logging.SeverityWarn, tick, actor, payload, extra)
}

// CommandRejected publishes a debug event for an invalid player action.
func CommandRejected(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload CommandPayload, extra map[string]any) {
	publish(ctx, pub, EventCommandRejected, logging.SeverityDebug, tick, actor, payload, extra)
}

// CommandPanicked publishes an error event for a recovered handler panic.
func CommandPanicked(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload CommandPayload, extra map[string]any) {
	publish(ctx, pub, EventCommandPanicked, logging.SeverityError, tick, actor, payload, extra)
}

// CommandsDeferred publishes a warning when commands spill into the next tick.
func CommandsDeferred(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload CommandsDeferredPayload, extra map[string]any) {
	publish(ctx, pub, EventCommandsDeferred, logging.SeverityWarn, tick, actor, payload, extra)
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
		Category: logging.CategorySimulation,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

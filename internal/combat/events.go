package combat

import "grindfall/server/internal/state"

// EventKind enumerates the game events triggers react to.
type EventKind string

const (
	EventHit             EventKind = "hit"
	EventKill            EventKind = "kill"
	EventWaveCompleted   EventKind = "wave_completed"
	EventThreatIncreased EventKind = "threat_increased"
)

// HitEvent records one resolved damage hit. Damage holds the final amount
// per damage type after every reduction.
type HitEvent struct {
	Source    state.CharacterRef
	Target    state.CharacterRef
	SkillType state.SkillType
	Range     state.Range
	Crit      bool
	Blocked   bool
	Hurt      bool
	Triggered bool
	Damage    map[state.DamageType]float64
}

// Total sums the damage of every type.
func (h HitEvent) Total() float64 {
	total := 0.0
	for _, amount := range h.Damage {
		total += amount
	}
	return total
}

// Event is one entry of the events queue. Hit is set for EventHit, Source
// and Target for EventKill, AreaLevel for EventWaveCompleted and
// ThreatLevel for EventThreatIncreased.
type Event struct {
	Kind        EventKind
	Hit         *HitEvent
	Source      state.CharacterRef
	Target      state.CharacterRef
	AreaLevel   int
	ThreatLevel int
}

// EventsQueue collects the events of one tick. It is never persisted.
type EventsQueue struct {
	events []Event
}

// Push appends an event.
func (q *EventsQueue) Push(event Event) {
	if q == nil {
		return
	}
	q.events = append(q.events, event)
}

// Drain returns the queued events and leaves the queue empty.
func (q *EventsQueue) Drain() []Event {
	if q == nil || len(q.events) == 0 {
		return nil
	}
	drained := q.events
	q.events = nil
	return drained
}

// Len reports the number of queued events.
func (q *EventsQueue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.events)
}

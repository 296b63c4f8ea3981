package logging

import (
	"context"
	"errors"
	"testing"
	"time"
)

type recordingSink struct {
	events chan Event
}

func (s *recordingSink) Write(event Event) error {
	s.events <- event
	return nil
}

func (s *recordingSink) Close(context.Context) error { return nil }

func TestRouterFiltersSeverityAndAddsFields(t *testing.T) {
	sink := &recordingSink{events: make(chan Event, 4)}
	cfg := DefaultConfig()
	cfg.MinimumSeverity = SeverityInfo
	cfg.Fields = map[string]any{"service": "grindfall"}
	fixed := time.Unix(1700000000, 0)
	router, err := NewRouter(ClockFunc(func() time.Time { return fixed }), cfg, []NamedSink{{Name: "test", Sink: sink}})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}

	router.Publish(context.Background(), Event{Type: "debug.only", Severity: SeverityDebug})
	router.Publish(context.Background(), Event{Type: "combat.kill", Severity: SeverityInfo})

	select {
	case event := <-sink.events:
		if event.Type != "combat.kill" {
			t.Fatalf("expected debug event to be filtered, got %s", event.Type)
		}
		if event.Extra["service"] != "grindfall" {
			t.Fatalf("expected router fields on the event, got %v", event.Extra)
		}
		if !event.Time.Equal(fixed) {
			t.Fatalf("expected clock time, got %v", event.Time)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for event")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := router.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := router.Metrics().Snapshot()[metricEventsTotal]; got != 1 {
		t.Fatalf("expected one forwarded event, got %d", got)
	}
}

type failingSink struct{}

func (failingSink) Write(Event) error           { return errors.New("disk full") }
func (failingSink) Close(context.Context) error { return nil }

func TestRouterCountsSinkFailures(t *testing.T) {
	router, err := NewRouter(nil, DefaultConfig(), []NamedSink{{Name: "broken", Sink: failingSink{}}, {Name: "skipped"}})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	if router.Sink("broken") == nil || router.Sink("skipped") != nil {
		t.Fatalf("expected only the non-nil sink to be registered")
	}
	router.Publish(context.Background(), Event{Type: "persistence.save_failed", Severity: SeverityError})
	router.Publish(context.Background(), Event{Severity: SeverityError})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := router.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	snapshot := router.Metrics().Snapshot()
	if snapshot[metricSinkFailures] != 1 || snapshot[metricEventsTotal] != 1 {
		t.Fatalf("unexpected metrics %v", snapshot)
	}
	router.Publish(context.Background(), Event{Type: "late"})
	if stats := router.Stats(); stats.EventsTotal != 1 || stats.DroppedTotal != 0 {
		t.Fatalf("events after close must be ignored, got %+v", stats)
	}
}

func TestRetryDelayCaps(t *testing.T) {
	if retryDelay(1) != 2*time.Second || retryDelay(5) != 32*time.Second || retryDelay(40) != 32*time.Second {
		t.Fatalf("unexpected retry delays %s %s %s", retryDelay(1), retryDelay(5), retryDelay(40))
	}
}

func TestWithFieldsKeepsExplicitExtra(t *testing.T) {
	var got Event
	pub := WithFields(PublisherFunc(func(_ context.Context, event Event) { got = event }), map[string]any{"instance": "a", "tick": 1})
	pub.Publish(context.Background(), Event{Type: "x", Extra: map[string]any{"tick": 7}})
	if got.Extra["instance"] != "a" || got.Extra["tick"] != 7 {
		t.Fatalf("unexpected extra %v", got.Extra)
	}
}

func TestParseSeverity(t *testing.T) {
	if sev, ok := ParseSeverity("warn"); !ok || sev != SeverityWarn {
		t.Fatalf("expected warn, got %v %v", sev, ok)
	}
	if _, ok := ParseSeverity("loud"); ok {
		t.Fatalf("expected unknown severity to be rejected")
	}
}

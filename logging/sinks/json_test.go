package sinks

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"grindfall/server/logging"
)

func TestJSONWritesOneRecordPerEvent(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSON(&buf, 0)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	err := sink.Write(logging.Event{
		Type:     "combat.kill",
		Tick:     42,
		Time:     at,
		Severity: logging.SeverityWarn,
		Actor:    logging.PlayerEntity("hero"),
		Extra:    map[string]any{"area": "sewers"},
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if record["type"] != "combat.kill" || record["tick"] != float64(42) {
		t.Fatalf("unexpected record %v", record)
	}
	if record["severity"] != logging.SeverityWarn.String() || record["time"] != at.Format(time.RFC3339Nano) {
		t.Fatalf("unexpected severity or time in %v", record)
	}
	if extra, _ := record["extra"].(map[string]any); extra["area"] != "sewers" {
		t.Fatalf("expected extra fields, got %v", record["extra"])
	}
}

func TestJSONBuffersUntilClose(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSON(&buf, time.Hour)
	if err := sink.Write(logging.Event{Type: "session.started"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected the line to stay buffered")
	}
	if err := sink.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatalf("expected close to flush")
	}
	if err := sink.Close(context.Background()); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if err := sink.Write(logging.Event{Type: "late"}); err == nil {
		t.Fatalf("expected writes after close to fail")
	}
}

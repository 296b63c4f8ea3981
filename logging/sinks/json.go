package sinks

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"grindfall/server/logging"
)

var errJSONClosed = errors.New("json sink closed")

// jsonRecord is one line of the event log.
type jsonRecord struct {
	Type      logging.EventType   `json:"type"`
	Tick      uint64              `json:"tick"`
	Time      string              `json:"time"`
	Severity  string              `json:"severity"`
	Category  string              `json:"category"`
	Actor     logging.EntityRef   `json:"actor"`
	Targets   []logging.EntityRef `json:"targets"`
	Payload   any                 `json:"payload"`
	Extra     map[string]any      `json:"extra"`
	TraceID   string              `json:"traceId"`
	CommandID string              `json:"commandId"`
}

// JSON appends one JSON object per event, for offline replay of a grind.
// With a positive flush interval lines are buffered and flushed by a
// background ticker until Close; otherwise every Write flushes.
type JSON struct {
	mu      sync.Mutex
	out     *bufio.Writer
	enc     *json.Encoder
	eager   bool
	closed  bool
	stopped chan struct{}
}

// NewJSON writes event lines to w. A nil w discards them.
func NewJSON(w io.Writer, flushInterval time.Duration) *JSON {
	if w == nil {
		w = io.Discard
	}
	out := bufio.NewWriter(w)
	sink := &JSON{
		out:     out,
		enc:     json.NewEncoder(out),
		eager:   flushInterval <= 0,
		stopped: make(chan struct{}),
	}
	if !sink.eager {
		go sink.flushEvery(flushInterval)
	}
	return sink
}

func (s *JSON) Write(event logging.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errJSONClosed
	}
	record := jsonRecord{
		Type:      event.Type,
		Tick:      event.Tick,
		Time:      event.Time.Format(time.RFC3339Nano),
		Severity:  event.Severity.String(),
		Category:  event.Category,
		Actor:     event.Actor,
		Targets:   event.Targets,
		Payload:   event.Payload,
		Extra:     event.Extra,
		TraceID:   event.TraceID,
		CommandID: event.CommandID,
	}
	if err := s.enc.Encode(record); err != nil {
		return err
	}
	if s.eager {
		return s.out.Flush()
	}
	return nil
}

// Close flushes pending lines and stops the flush ticker. It does not close
// the underlying writer.
func (s *JSON) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.stopped)
	}
	return s.out.Flush()
}

func (s *JSON) flushEvery(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopped:
			return
		case <-ticker.C:
			s.mu.Lock()
			_ = s.out.Flush()
			s.mu.Unlock()
		}
	}
}

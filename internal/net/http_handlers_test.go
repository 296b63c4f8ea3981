package net

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"grindfall/server/internal/observability"
	"grindfall/server/logging"
)

type fixedCount int

func (c fixedCount) Len() int    { return int(c) }
func (c fixedCount) Active() int { return int(c) }

func TestHealthReturnsOK(t *testing.T) {
	handler := NewHTTPHandler(HTTPHandlerConfig{})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health", nil))

	if resp.Code != http.StatusOK || resp.Body.String() != "ok" {
		t.Fatalf("expected ok, got %d %q", resp.Code, resp.Body.String())
	}
}

func TestDiagnosticsReportsCountersAndTelemetry(t *testing.T) {
	metrics := &logging.Metrics{}
	metrics.TelemetryAdd("sim_tick_overrun_total", 2)
	fixed := time.UnixMilli(1_700_000_000_000)

	handler := NewHTTPHandler(HTTPHandlerConfig{
		Clock:       logging.ClockFunc(func() time.Time { return fixed }),
		Sessions:    fixedCount(3),
		Connections: fixedCount(5),
		Metrics:     metrics,
		TickPeriod:  100 * time.Millisecond,
	})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/diagnostics", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 OK, got %d", resp.Code)
	}
	if contentType := resp.Header().Get("Content-Type"); contentType != "application/json" {
		t.Fatalf("expected Content-Type application/json, got %q", contentType)
	}
	var payload diagnosticsPayload
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode diagnostics payload: %v", err)
	}
	if payload.ServerTime != fixed.UnixMilli() || payload.TickMillis != 100 {
		t.Fatalf("unexpected timing fields: %+v", payload)
	}
	if payload.Cached != 3 || payload.Connections != 5 {
		t.Fatalf("unexpected counters: %+v", payload)
	}
	if payload.Telemetry["sim_tick_overrun_total"] != 2 {
		t.Fatalf("expected telemetry counter, got %v", payload.Telemetry)
	}
}

func TestDiagnosticsRejectsWrongMethod(t *testing.T) {
	handler := NewHTTPHandler(HTTPHandlerConfig{})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/diagnostics", nil))

	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", resp.Code)
	}
}

func TestWebSocketRouteDelegates(t *testing.T) {
	called := false
	handler := NewHTTPHandler(HTTPHandlerConfig{
		WebSocket: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			w.WriteHeader(http.StatusTeapot)
		}),
	})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/ws", nil))
	if !called || resp.Code != http.StatusTeapot {
		t.Fatalf("expected the websocket handler to serve /ws, got %d", resp.Code)
	}

	handler = NewHTTPHandler(HTTPHandlerConfig{})
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/ws", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without a websocket handler, got %d", resp.Code)
	}
}

func TestPprofIsOptIn(t *testing.T) {
	handler := NewHTTPHandler(HTTPHandlerConfig{})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected pprof to be disabled by default, got %d", resp.Code)
	}

	handler = NewHTTPHandler(HTTPHandlerConfig{Observability: observability.Config{EnablePprofTrace: true}})
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected the pprof index, got %d", resp.Code)
	}
}

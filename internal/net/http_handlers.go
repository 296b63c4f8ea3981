package net

import (
	"encoding/json"
	nethttp "net/http"
	"net/http/pprof"
	"time"

	"grindfall/server/internal/observability"
	"grindfall/server/internal/telemetry"
	"grindfall/server/logging"
)

// SessionCounter reports the number of cached game instances.
type SessionCounter interface {
	Len() int
}

// ConnectionCounter reports the number of open client connections.
type ConnectionCounter interface {
	Active() int
}

type HTTPHandlerConfig struct {
	Logger      telemetry.Logger
	Clock       logging.Clock
	WebSocket   nethttp.Handler
	Sessions    SessionCounter
	Connections ConnectionCounter
	Metrics     *logging.Metrics
	TickPeriod  time.Duration

	Observability observability.Config
}

type diagnosticsPayload struct {
	Status      string            `json:"status"`
	ServerTime  int64             `json:"serverTime"`
	TickMillis  int64             `json:"tickMillis"`
	Connections int               `json:"connections"`
	Cached      int               `json:"cachedSessions"`
	Telemetry   map[string]uint64 `json:"telemetry,omitempty"`
}

// NewHTTPHandler builds the server mux: the websocket endpoint plus the
// health and diagnostics endpoints.
func NewHTTPHandler(cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.LoggerFunc(nil)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = logging.ClockFunc(time.Now)
	}

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodGet {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}
		payload := diagnosticsPayload{
			Status:     "ok",
			ServerTime: clock.Now().UnixMilli(),
			TickMillis: cfg.TickPeriod.Milliseconds(),
		}
		if cfg.Connections != nil {
			payload.Connections = cfg.Connections.Active()
		}
		if cfg.Sessions != nil {
			payload.Cached = cfg.Sessions.Len()
		}
		if cfg.Metrics != nil {
			payload.Telemetry = cfg.Metrics.Snapshot()
		}

		data, err := json.Marshal(payload)
		if err != nil {
			logger.Printf("[http] failed to encode diagnostics: %v", err)
			httpError(w, "failed to encode", nethttp.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	if cfg.Observability.EnablePprofTrace {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
		logger.Printf("[http] pprof endpoints enabled under /debug/pprof/")
	}

	if cfg.WebSocket != nil {
		mux.Handle("/ws", cfg.WebSocket)
	} else {
		mux.HandleFunc("/ws", func(w nethttp.ResponseWriter, r *nethttp.Request) {
			httpError(w, "websocket endpoint unavailable", nethttp.StatusServiceUnavailable)
		})
	}

	return mux
}

func httpError(w nethttp.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

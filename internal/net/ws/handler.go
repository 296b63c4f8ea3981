// Package ws serves game clients over websocket connections. Each connection
// checks a character out of the session registry, runs its instance until
// the client leaves and hands the state back.
package ws

import (
	"context"
	"errors"
	nethttp "net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"grindfall/server/internal/auth"
	"grindfall/server/internal/blueprint"
	"grindfall/server/internal/session"
	"grindfall/server/internal/sim"
	"grindfall/server/internal/telemetry"
	"grindfall/server/logging"
)

const (
	metricConnectionsActive = "ws_connections_active"
	metricConnectionsTotal  = "ws_connections_total"
	metricProtocolErrors    = "ws_protocol_errors_total"
	metricBackpressure      = "ws_backpressure_disconnects_total"
)

// ErrShuttingDown is returned to clients connecting while the server stops.
var ErrShuttingDown = errors.New("server is shutting down")

// HandlerConfig wires a Handler to the rest of the server.
type HandlerConfig struct {
	Logger    telemetry.Logger
	Metrics   telemetry.Metrics
	Publisher logging.Publisher
	Clock     logging.Clock

	Registry *session.Registry
	Catalog  *blueprint.Catalog
	Verifier *auth.Verifier
	Saver    sim.Saver
	Sim      sim.Config

	// ConnectTimeout bounds the wait for the connect frame.
	ConnectTimeout time.Duration
	// PongWait is the longest silence tolerated from the client.
	PongWait time.Duration
	// WriteTimeout bounds a single frame write.
	WriteTimeout time.Duration
	// SendQueue is the number of outbound frames buffered per connection.
	SendQueue int
	// ReadLimit caps the size of one inbound frame.
	ReadLimit int64
}

func (c HandlerConfig) withDefaults() HandlerConfig {
	if c.Logger == nil {
		c.Logger = telemetry.LoggerFunc(nil)
	}
	if c.Metrics == nil {
		c.Metrics = telemetry.Nop()
	}
	if c.Publisher == nil {
		c.Publisher = logging.NopPublisher()
	}
	if c.Clock == nil {
		c.Clock = logging.ClockFunc(time.Now)
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	if c.PongWait <= 0 {
		c.PongWait = 60 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.SendQueue <= 0 {
		c.SendQueue = 64
	}
	if c.ReadLimit <= 0 {
		c.ReadLimit = 16 << 10
	}
	return c
}

// Handler upgrades HTTP requests and owns the resulting sessions.
type Handler struct {
	cfg      HandlerConfig
	upgrader websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	closing  bool
	sessions sync.WaitGroup
	active   int
}

// NewHandler constructs a websocket handler.
func NewHandler(cfg HandlerConfig) *Handler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Handler{
		cfg: cfg.withDefaults(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *nethttp.Request) bool {
				return true
			},
		},
		ctx:    ctx,
		cancel: cancel,
	}
}

// Handle upgrades the request and serves the connection until it closes.
func (h *Handler) Handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	if !h.begin() {
		nethttp.Error(w, ErrShuttingDown.Error(), nethttp.StatusServiceUnavailable)
		return
	}
	defer h.end()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.cfg.Logger.Printf("[ws] upgrade failed for %s: %v", r.RemoteAddr, err)
		return
	}
	newSession(h, conn, r.RemoteAddr).serve(h.ctx)
}

// Shutdown stops accepting connections, asks every session to finish its
// current tick and waits until all of them released their instance.
func (h *Handler) Shutdown(ctx context.Context) error {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	h.closing = true
	h.mu.Unlock()
	h.cancel()

	done := make(chan struct{})
	go func() {
		h.sessions.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Active reports the number of open connections.
func (h *Handler) Active() int {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}

func (h *Handler) begin() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closing {
		return false
	}
	h.sessions.Add(1)
	h.active++
	h.cfg.Metrics.Add(metricConnectionsTotal, 1)
	h.cfg.Metrics.Store(metricConnectionsActive, uint64(h.active))
	return true
}

func (h *Handler) end() {
	h.mu.Lock()
	h.active--
	h.cfg.Metrics.Store(metricConnectionsActive, uint64(h.active))
	h.mu.Unlock()
	h.sessions.Done()
}

package logging

import (
	"context"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Clock stamps events published without a time.
type Clock interface {
	Now() time.Time
}

// ClockFunc turns a function into a Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

// Sink is a destination for routed events. Write is only ever called from the
// sink's own lane goroutine.
type Sink interface {
	Write(Event) error
	Close(context.Context) error
}

// NamedSink pairs a sink with the name it is configured and looked up by.
type NamedSink struct {
	Name string
	Sink Sink
}

// RouterStats counts what the router accepted and what it had to drop.
type RouterStats struct {
	EventsTotal  uint64
	DroppedTotal uint64
}

const (
	metricEventsTotal  = "logging_events_total"
	metricDroppedTotal = "logging_dropped_total"
	metricSinkFailures = "logging_sink_failures_total"
)

const (
	defaultInboxSize = 512
	minLaneSize      = 32
	maxLaneSize      = 1024
	defaultDropWarn  = 5 * time.Second
)

// Router is the process wide Publisher. Simulation, session and network code
// publish into a bounded inbox; one dispatcher applies the severity threshold
// and the static fields, then hands a copy to the lane of every sink. Full
// queues drop instead of blocking a tick.
type Router struct {
	cfg       Config
	clock     Clock
	threshold Severity
	static    map[string]any
	stderr    *log.Logger
	metrics   *Metrics

	inbox chan Event
	lanes []*sinkLane

	stop      context.CancelFunc
	stopped   <-chan struct{}
	closed    atomic.Bool
	startOnce sync.Once
	running   sync.WaitGroup

	accepted    atomic.Uint64
	dropped     atomic.Uint64
	nextDropLog atomic.Int64
}

// NewRouter starts routing to namedSinks. Nil sinks are skipped.
func NewRouter(clock Clock, cfg Config, namedSinks []NamedSink) (*Router, error) {
	if clock == nil {
		clock = ClockFunc(time.Now)
	}
	inboxSize := cfg.BufferSize
	if inboxSize <= 0 {
		inboxSize = defaultInboxSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &Router{
		cfg:       cfg,
		clock:     clock,
		threshold: cfg.MinimumSeverity,
		static:    cfg.CloneFields(),
		stderr:    log.New(os.Stderr, "[logging] ", log.LstdFlags),
		metrics:   &Metrics{},
		inbox:     make(chan Event, inboxSize),
		stop:      cancel,
		stopped:   ctx.Done(),
	}

	laneSize := min(max(inboxSize, minLaneSize), maxLaneSize)
	for _, named := range namedSinks {
		if named.Sink == nil {
			continue
		}
		r.lanes = append(r.lanes, &sinkLane{
			name:    named.Name,
			sink:    named.Sink,
			queue:   make(chan Event, laneSize),
			stderr:  r.stderr,
			metrics: r.metrics,
		})
	}

	r.startOnce.Do(r.launch)
	return r, nil
}

func (r *Router) launch() {
	r.running.Add(1 + len(r.lanes))
	go r.dispatch()
	for _, lane := range r.lanes {
		go func(l *sinkLane) {
			defer r.running.Done()
			l.run()
		}(lane)
	}
}

// dispatch moves events from the inbox to the lanes until the router stops,
// then empties the inbox and closes every lane.
func (r *Router) dispatch() {
	defer r.running.Done()
	defer func() {
		for _, lane := range r.lanes {
			close(lane.queue)
		}
	}()
	for {
		select {
		case <-r.stopped:
			for {
				select {
				case event := <-r.inbox:
					r.route(event)
				default:
					return
				}
			}
		case event := <-r.inbox:
			r.route(event)
		}
	}
}

func (r *Router) route(event Event) {
	if event.Severity < r.threshold {
		return
	}
	if event.Time.IsZero() {
		event.Time = r.clock.Now()
	}
	event = withStaticFields(event, r.static)
	r.accepted.Add(1)
	r.metrics.TelemetryAdd(metricEventsTotal, 1)
	for _, lane := range r.lanes {
		lane.offer(event)
	}
}

// Publish queues event for routing. Untyped events and events published
// after Close are ignored.
func (r *Router) Publish(_ context.Context, event Event) {
	if event.Type == "" || r.closed.Load() {
		return
	}
	select {
	case r.inbox <- event:
	default:
		r.noteDrop(event)
	}
}

// noteDrop counts a dropped event and warns on stderr at most once per
// DropWarnInterval.
func (r *Router) noteDrop(event Event) {
	r.dropped.Add(1)
	r.metrics.TelemetryAdd(metricDroppedTotal, 1)
	every := r.cfg.DropWarnInterval
	if every <= 0 {
		every = defaultDropWarn
	}
	now := time.Now().UnixNano()
	due := r.nextDropLog.Load()
	if now < due {
		return
	}
	if r.nextDropLog.CompareAndSwap(due, now+every.Nanoseconds()) {
		r.stderr.Printf("inbox full, dropping %s at tick %d", event.Type, event.Tick)
	}
}

// Close stops accepting events, waits for queued events to reach their sinks
// and closes the sinks. A second Close only waits for ctx.
func (r *Router) Close(ctx context.Context) error {
	if !r.closed.CompareAndSwap(false, true) {
		<-ctx.Done()
		return ctx.Err()
	}
	r.stop()
	flushed := make(chan struct{})
	go func() {
		r.running.Wait()
		close(flushed)
	}()
	select {
	case <-flushed:
	case <-ctx.Done():
		return ctx.Err()
	}
	var firstErr error
	for _, lane := range r.lanes {
		if err := lane.sink.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Router) Stats() RouterStats {
	return RouterStats{
		EventsTotal:  r.accepted.Load(),
		DroppedTotal: r.dropped.Load(),
	}
}

// Metrics returns the router's counters. The sim and the session registry
// record into the same set through telemetry.WrapMetrics.
func (r *Router) Metrics() *Metrics {
	if r == nil {
		return nil
	}
	return r.metrics
}

// Sink returns the sink registered under name, or nil.
func (r *Router) Sink(name string) Sink {
	for _, lane := range r.lanes {
		if lane.name == name {
			return lane.sink
		}
	}
	return nil
}

// sinkLane feeds one sink from its own queue. After a failed write the lane
// backs off before the next one.
type sinkLane struct {
	name    string
	sink    Sink
	queue   chan Event
	stderr  *log.Logger
	metrics *Metrics

	failures int
	retryAt  time.Time
}

func (l *sinkLane) offer(event Event) {
	select {
	case l.queue <- cloneForFields(event):
	default:
		l.stderr.Printf("sink %s is behind, dropping %s", l.name, event.Type)
	}
}

func (l *sinkLane) run() {
	for event := range l.queue {
		if wait := time.Until(l.retryAt); l.failures > 0 && wait > 0 {
			time.Sleep(wait)
		}
		err := l.sink.Write(event)
		if err == nil {
			l.failures = 0
			l.retryAt = time.Time{}
			continue
		}
		l.failures++
		l.metrics.TelemetryAdd(metricSinkFailures, 1)
		delay := retryDelay(l.failures)
		l.retryAt = time.Now().Add(delay)
		l.stderr.Printf("sink %s write failed, retrying in %s: %v", l.name, delay, err)
	}
}

// retryDelay doubles from two seconds per consecutive failure, capped at 32s.
func retryDelay(failures int) time.Duration {
	return time.Duration(1<<min(failures, 5)) * time.Second
}

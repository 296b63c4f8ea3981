// Package telemetry is the narrow logging and counter surface handed to the
// sim, the session registry and the network handlers, so they never depend on
// the router directly.
package telemetry

import (
	"log"

	"grindfall/server/logging"
)

// Logger receives free-form diagnostic lines such as failed saves or
// recovered stage panics. Structured events go through logging.Publisher.
type Logger interface {
	Printf(format string, args ...any)
}

// LoggerFunc is a Logger backed by a function. A nil LoggerFunc discards.
type LoggerFunc func(format string, args ...any)

func (f LoggerFunc) Printf(format string, args ...any) {
	if f != nil {
		f(format, args...)
	}
}

// WrapLogger returns a Logger writing to logger, or one that discards when
// logger is nil.
func WrapLogger(logger *log.Logger) Logger {
	if logger == nil {
		return LoggerFunc(nil)
	}
	return LoggerFunc(logger.Printf)
}

// Metrics records named counters and gauges, e.g. command buffer overflow or
// sessions saved.
type Metrics interface {
	Add(key string, delta uint64)
	Store(key string, value uint64)
}

// routerMetrics records into the counter set exposed by logging.Router.
type routerMetrics struct {
	set *logging.Metrics
}

// WrapMetrics records into set. A nil set discards.
func WrapMetrics(set *logging.Metrics) Metrics {
	if set == nil {
		return Nop()
	}
	return routerMetrics{set: set}
}

func (m routerMetrics) Add(key string, delta uint64)   { m.set.TelemetryAdd(key, delta) }
func (m routerMetrics) Store(key string, value uint64) { m.set.TelemetryStore(key, value) }

type nopMetrics struct{}

func (nopMetrics) Add(string, uint64)   {}
func (nopMetrics) Store(string, uint64) {}

// Nop returns metrics that discard every value.
func Nop() Metrics {
	return nopMetrics{}
}

// Package config reads the server settings from GRINDFALL_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"grindfall/server/logging"
)

// Store backends.
const (
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Log sinks.
const (
	LogConsole = "console"
	LogJSON    = "json"
)

// Config holds every setting of the server process.
type Config struct {
	Addr            string        `env:"GRINDFALL_ADDR"             envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"GRINDFALL_SHUTDOWN_TIMEOUT" envDefault:"15s"`

	Store        string `env:"GRINDFALL_STORE"         envDefault:"sqlite"`
	DatabasePath string `env:"GRINDFALL_DATABASE_PATH" envDefault:"grindfall.db"`

	// BlueprintPath overrides the embedded game data when set.
	BlueprintPath string `env:"GRINDFALL_BLUEPRINT_PATH"`

	AuthSecret    string        `env:"GRINDFALL_AUTH_SECRET"`
	AuthIssuer    string        `env:"GRINDFALL_AUTH_ISSUER"    envDefault:"grindfall"`
	AuthLeeway    time.Duration `env:"GRINDFALL_AUTH_LEEWAY"    envDefault:"30s"`
	AuthAnonymous bool          `env:"GRINDFALL_AUTH_ANONYMOUS" envDefault:"false"`

	TickPeriod         time.Duration `env:"GRINDFALL_TICK_PERIOD"           envDefault:"100ms"`
	MaxCommandsPerTick int           `env:"GRINDFALL_MAX_COMMANDS_PER_TICK" envDefault:"100"`
	CommandCapacity    int           `env:"GRINDFALL_COMMAND_CAPACITY"      envDefault:"256"`
	AutosaveInterval   time.Duration `env:"GRINDFALL_AUTOSAVE_INTERVAL"     envDefault:"1m"`

	IdleTimeout     time.Duration `env:"GRINDFALL_IDLE_TIMEOUT"     envDefault:"5m"`
	SweepInterval   time.Duration `env:"GRINDFALL_SWEEP_INTERVAL"   envDefault:"1m"`
	SaveConcurrency int           `env:"GRINDFALL_SAVE_CONCURRENCY" envDefault:"8"`
	SaveTimeout     time.Duration `env:"GRINDFALL_SAVE_TIMEOUT"     envDefault:"10s"`

	LogSinks    []string `env:"GRINDFALL_LOG_SINKS"     envDefault:"console" envSeparator:","`
	LogLevel    string   `env:"GRINDFALL_LOG_LEVEL"     envDefault:"info"`
	LogJSONPath string   `env:"GRINDFALL_LOG_JSON_PATH"`
	LogColor    bool     `env:"GRINDFALL_LOG_COLOR"     envDefault:"false"`

	EnablePprof bool `env:"GRINDFALL_ENABLE_PPROF" envDefault:"false"`
}

// Load parses the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// LoadFrom parses environ instead of the process environment.
func LoadFrom(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate reports the first inconsistent setting.
func (c Config) Validate() error {
	var errs []error
	switch c.Store {
	case StoreSQLite:
		if strings.TrimSpace(c.DatabasePath) == "" {
			errs = append(errs, errors.New("GRINDFALL_DATABASE_PATH is required for the sqlite store"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("GRINDFALL_STORE must be %q or %q, got %q", StoreSQLite, StoreMemory, c.Store))
	}
	if !c.AuthAnonymous && strings.TrimSpace(c.AuthSecret) == "" {
		errs = append(errs, errors.New("GRINDFALL_AUTH_SECRET is required unless GRINDFALL_AUTH_ANONYMOUS is set"))
	}
	if c.TickPeriod <= 0 {
		errs = append(errs, errors.New("GRINDFALL_TICK_PERIOD must be positive"))
	}
	if c.MaxCommandsPerTick <= 0 {
		errs = append(errs, errors.New("GRINDFALL_MAX_COMMANDS_PER_TICK must be positive"))
	}
	if _, ok := logging.ParseSeverity(c.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("GRINDFALL_LOG_LEVEL %q is unknown", c.LogLevel))
	}
	for _, sink := range c.LogSinks {
		if sink != LogConsole && sink != LogJSON {
			errs = append(errs, fmt.Errorf("GRINDFALL_LOG_SINKS contains unknown sink %q", sink))
		}
	}
	return errors.Join(errs...)
}

// Logging converts the log settings into a router configuration.
func (c Config) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	if len(c.LogSinks) > 0 {
		cfg.EnabledSinks = append([]string(nil), c.LogSinks...)
	}
	if severity, ok := logging.ParseSeverity(c.LogLevel); ok {
		cfg.MinimumSeverity = severity
	}
	cfg.JSON.FilePath = c.LogJSONPath
	cfg.Console.UseColor = c.LogColor
	return cfg
}

package config

import (
	"strings"
	"testing"
	"time"

	"grindfall/server/logging"
)

func TestLoadFromAppliesDefaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{"GRINDFALL_AUTH_SECRET": "secret"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.Store != StoreSQLite || cfg.DatabasePath != "grindfall.db" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.TickPeriod != 100*time.Millisecond || cfg.MaxCommandsPerTick != 100 {
		t.Fatalf("unexpected tick defaults: %+v", cfg)
	}
	if cfg.IdleTimeout != 5*time.Minute || cfg.SweepInterval != time.Minute {
		t.Fatalf("unexpected session defaults: %+v", cfg)
	}
	if len(cfg.LogSinks) != 1 || cfg.LogSinks[0] != LogConsole {
		t.Fatalf("unexpected log sinks: %v", cfg.LogSinks)
	}
}

func TestLoadFromOverrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"GRINDFALL_STORE":          "memory",
		"GRINDFALL_AUTH_ANONYMOUS": "true",
		"GRINDFALL_TICK_PERIOD":    "50ms",
		"GRINDFALL_LOG_SINKS":      "console,json",
		"GRINDFALL_LOG_LEVEL":      "debug",
		"GRINDFALL_LOG_JSON_PATH":  "events.jsonl",
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store != StoreMemory || !cfg.AuthAnonymous || cfg.TickPeriod != 50*time.Millisecond {
		t.Fatalf("overrides not applied: %+v", cfg)
	}

	logCfg := cfg.Logging()
	if !logCfg.HasSink(LogJSON) || !logCfg.HasSink(LogConsole) {
		t.Fatalf("expected both sinks, got %v", logCfg.EnabledSinks)
	}
	if logCfg.MinimumSeverity != logging.SeverityDebug || logCfg.JSON.FilePath != "events.jsonl" {
		t.Fatalf("unexpected logging config: %+v", logCfg)
	}
}

func TestLoadFromRejectsInvalidSettings(t *testing.T) {
	cases := map[string]struct {
		environ map[string]string
		want    string
	}{
		"missing secret": {
			environ: map[string]string{},
			want:    "GRINDFALL_AUTH_SECRET",
		},
		"unknown store": {
			environ: map[string]string{"GRINDFALL_AUTH_ANONYMOUS": "true", "GRINDFALL_STORE": "redis"},
			want:    "GRINDFALL_STORE",
		},
		"unknown sink": {
			environ: map[string]string{"GRINDFALL_AUTH_ANONYMOUS": "true", "GRINDFALL_LOG_SINKS": "syslog"},
			want:    "syslog",
		},
		"unknown level": {
			environ: map[string]string{"GRINDFALL_AUTH_ANONYMOUS": "true", "GRINDFALL_LOG_LEVEL": "loud"},
			want:    "GRINDFALL_LOG_LEVEL",
		},
		"malformed duration": {
			environ: map[string]string{"GRINDFALL_AUTH_ANONYMOUS": "true", "GRINDFALL_TICK_PERIOD": "soon"},
			want:    "parse env",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFrom(tc.environ)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected an error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

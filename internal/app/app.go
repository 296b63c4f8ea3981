package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"grindfall/server/internal/auth"
	"grindfall/server/internal/blueprint"
	"grindfall/server/internal/config"
	servernet "grindfall/server/internal/net"
	"grindfall/server/internal/net/ws"
	"grindfall/server/internal/observability"
	"grindfall/server/internal/session"
	"grindfall/server/internal/sim"
	"grindfall/server/internal/storage"
	"grindfall/server/internal/storage/memory"
	"grindfall/server/internal/storage/sqlite"
	"grindfall/server/internal/telemetry"
	"grindfall/server/logging"
	loggingSinks "grindfall/server/logging/sinks"
)

type Config struct {
	Logger   telemetry.Logger
	Settings config.Config
}

// Run serves game clients until ctx is cancelled, then drains connections
// and persists every cached instance.
func Run(ctx context.Context, cfg Config) error {
	telemetryLogger := cfg.Logger
	if telemetryLogger == nil {
		telemetryLogger = telemetry.WrapLogger(log.Default())
	}
	settings := cfg.Settings

	namedSinks, closeSinks, err := buildSinks(settings)
	if err != nil {
		return err
	}
	defer closeSinks()

	clock := logging.ClockFunc(time.Now)
	router, err := logging.NewRouter(clock, settings.Logging(), namedSinks)
	if err != nil {
		return fmt.Errorf("failed to construct logging router: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if cerr := router.Close(closeCtx); cerr != nil {
			telemetryLogger.Printf("failed to close logging router: %v", cerr)
		}
	}()
	metrics := telemetry.WrapMetrics(router.Metrics())

	catalog, err := loadCatalog(settings.BlueprintPath)
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(settings)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeStore(); cerr != nil {
			telemetryLogger.Printf("failed to close store: %v", cerr)
		}
	}()

	registry, err := session.NewRegistry(store, func(characterID, areaID string) (*sim.State, error) {
		return sim.NewState(catalog, characterID, areaID, uuid.NewString())
	}, session.Config{
		IdleTimeout:     settings.IdleTimeout,
		SweepInterval:   settings.SweepInterval,
		SaveConcurrency: settings.SaveConcurrency,
		SaveTimeout:     settings.SaveTimeout,
	}, session.Deps{
		Logger:    telemetryLogger,
		Metrics:   metrics,
		Publisher: router,
		Clock:     clock,
	})
	if err != nil {
		return fmt.Errorf("failed to construct session registry: %w", err)
	}

	verifier, err := auth.NewVerifier(auth.Config{
		Secret:    []byte(settings.AuthSecret),
		Issuer:    settings.AuthIssuer,
		Leeway:    settings.AuthLeeway,
		Anonymous: settings.AuthAnonymous,
	})
	if err != nil {
		return fmt.Errorf("failed to construct token verifier: %w", err)
	}
	if settings.AuthAnonymous {
		telemetryLogger.Printf("[auth] anonymous connections enabled, tokens are not checked")
	}

	simCfg := sim.DefaultConfig()
	simCfg.TickPeriod = settings.TickPeriod
	simCfg.MaxCommandsPerTick = settings.MaxCommandsPerTick
	simCfg.CommandCapacity = settings.CommandCapacity
	simCfg.AutosaveInterval = settings.AutosaveInterval
	simCfg.SaveTimeout = settings.SaveTimeout

	wsHandler := ws.NewHandler(ws.HandlerConfig{
		Logger:    telemetryLogger,
		Metrics:   metrics,
		Publisher: router,
		Clock:     clock,
		Registry:  registry,
		Catalog:   catalog,
		Verifier:  verifier,
		Saver:     store,
		Sim:       simCfg,
	})

	handler := servernet.NewHTTPHandler(servernet.HTTPHandlerConfig{
		Logger:        telemetryLogger,
		Clock:         clock,
		WebSocket:     http.HandlerFunc(wsHandler.Handle),
		Sessions:      registry,
		Connections:   wsHandler,
		Metrics:       router.Metrics(),
		TickPeriod:    simCfg.TickPeriod,
		Observability: observability.Config{EnablePprofTrace: settings.EnablePprof},
	})

	srv := &http.Server{
		Addr:              settings.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		telemetryLogger.Printf("server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		return registry.Run(groupCtx)
	})
	group.Go(func() error {
		<-groupCtx.Done()
		return shutdown(srv, wsHandler, registry, settings.ShutdownTimeout, telemetryLogger)
	})
	return group.Wait()
}

// shutdown stops accepting clients, lets every session finish its tick and
// release its instance, then persists the registry.
func shutdown(srv *http.Server, handler *ws.Handler, registry *session.Registry, timeout time.Duration, logger telemetry.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	logger.Printf("shutting down")
	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("http shutdown: %v", err)
	}
	if err := handler.Shutdown(ctx); err != nil {
		logger.Printf("websocket shutdown: %v", err)
	}
	if err := registry.Flush(ctx); err != nil {
		return fmt.Errorf("failed to persist sessions: %w", err)
	}
	logger.Printf("persisted %d cached sessions", registry.Len())
	return nil
}

func buildSinks(settings config.Config) ([]logging.NamedSink, func(), error) {
	var (
		named   []logging.NamedSink
		closers []io.Closer
	)
	closeAll := func() {
		for _, c := range closers {
			c.Close()
		}
	}
	for _, name := range settings.Logging().EnabledSinks {
		switch name {
		case config.LogConsole:
			named = append(named, logging.NamedSink{
				Name: name,
				Sink: loggingSinks.NewConsoleSink(os.Stdout, settings.Logging().Console),
			})
		case config.LogJSON:
			var w io.Writer = os.Stdout
			if path := settings.LogJSONPath; path != "" {
				file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
				if err != nil {
					closeAll()
					return nil, nil, fmt.Errorf("failed to open json log %s: %w", path, err)
				}
				closers = append(closers, file)
				w = file
			}
			named = append(named, logging.NamedSink{
				Name: name,
				Sink: loggingSinks.NewJSON(w, settings.Logging().JSON.FlushInterval),
			})
		}
	}
	return named, closeAll, nil
}

func loadCatalog(path string) (*blueprint.Catalog, error) {
	if path == "" {
		catalog, err := blueprint.Default()
		if err != nil {
			return nil, fmt.Errorf("failed to load embedded blueprint: %w", err)
		}
		return catalog, nil
	}
	catalog, err := blueprint.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load blueprint %s: %w", path, err)
	}
	return catalog, nil
}

func openStore(settings config.Config) (storage.Store, func() error, error) {
	switch settings.Store {
	case config.StoreMemory:
		return memory.New(), func() error { return nil }, nil
	default:
		store, err := sqlite.Open(settings.DatabasePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database %s: %w", settings.DatabasePath, err)
		}
		return store, store.Close, nil
	}
}

package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"grindfall/server/internal/config"
	"grindfall/server/logging"
)

func TestOpenStoreBackends(t *testing.T) {
	store, closeStore, err := openStore(config.Config{Store: config.StoreMemory})
	if err != nil {
		t.Fatalf("memory store: %v", err)
	}
	if err := store.Save(context.Background(), "hero", []byte{1}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := closeStore(); err != nil {
		t.Fatalf("close: %v", err)
	}

	path := filepath.Join(t.TempDir(), "game.db")
	store, closeStore, err = openStore(config.Config{Store: config.StoreSQLite, DatabasePath: path})
	if err != nil {
		t.Fatalf("sqlite store: %v", err)
	}
	defer closeStore()
	if err := store.Save(context.Background(), "hero", []byte{1, 2}); err != nil {
		t.Fatalf("save: %v", err)
	}
	blob, ok, err := store.Load(context.Background(), "hero")
	if err != nil || !ok || len(blob) != 2 {
		t.Fatalf("unexpected load: %v %v %v", blob, ok, err)
	}
}

func TestLoadCatalogFallsBackToEmbeddedData(t *testing.T) {
	catalog, err := loadCatalog("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(catalog.Areas) == 0 {
		t.Fatalf("expected the embedded catalog to define areas")
	}
	if _, err := loadCatalog(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected an error for a missing blueprint file")
	}
}

func TestBuildSinksWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	sinks, closeSinks, err := buildSinks(config.Config{LogSinks: []string{config.LogJSON}, LogLevel: "info", LogJSONPath: path})
	if err != nil {
		t.Fatalf("build sinks: %v", err)
	}
	if len(sinks) != 1 || sinks[0].Name != config.LogJSON {
		t.Fatalf("unexpected sinks: %+v", sinks)
	}
	if err := sinks[0].Sink.Write(logging.Event{Type: "test.event"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := sinks[0].Sink.Close(context.Background()); err != nil {
		t.Fatalf("close sink: %v", err)
	}
	closeSinks()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected the event to be written")
	}
}

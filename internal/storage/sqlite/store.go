// Package sqlite persists encoded instances in a single SQLite table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"grindfall/server/internal/storage"
)

const schema = `CREATE TABLE IF NOT EXISTS game_instances (
	character_id TEXT PRIMARY KEY,
	blob BLOB NOT NULL,
	updated_at INTEGER NOT NULL
)`

// Store provides SQLite-backed persistence for game instances.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Open opens the database at path and creates the table when missing.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close releases the underlying SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Load returns the blob stored for characterID.
func (s *Store) Load(ctx context.Context, characterID string) ([]byte, bool, error) {
	if s == nil || s.sqlDB == nil {
		return nil, false, fmt.Errorf("storage is not configured")
	}
	id, err := storage.NormalizeID(characterID)
	if err != nil {
		return nil, false, err
	}

	var blob []byte
	row := s.sqlDB.QueryRowContext(ctx, `SELECT blob FROM game_instances WHERE character_id = ?`, id)
	if err := row.Scan(&blob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("load game instance: %w", err)
	}
	return blob, true, nil
}

// Save upserts the blob stored for characterID.
func (s *Store) Save(ctx context.Context, characterID string, blob []byte) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	id, err := storage.NormalizeID(characterID)
	if err != nil {
		return err
	}
	if len(blob) == 0 {
		return fmt.Errorf("game instance blob is required")
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO game_instances (character_id, blob, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(character_id) DO UPDATE SET
		    blob = excluded.blob,
		    updated_at = excluded.updated_at`,
		id,
		blob,
		s.now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save game instance: %w", err)
	}
	return nil
}

var _ storage.Store = (*Store)(nil)

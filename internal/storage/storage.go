// Package storage defines how encoded game instances are persisted. Blobs are
// opaque to every implementation.
package storage

//go:generate go tool mockgen -destination=./mocks/store_mock.go -package=mocks . Store

import (
	"context"
	"errors"
	"strings"
)

// ErrInvalidID reports an empty character id.
var ErrInvalidID = errors.New("storage: character id is required")

// Store loads and saves encoded instances by character id.
type Store interface {
	// Load returns the blob stored for characterID. The boolean is false
	// when nothing was saved yet.
	Load(ctx context.Context, characterID string) ([]byte, bool, error)
	// Save replaces the blob stored for characterID.
	Save(ctx context.Context, characterID string, blob []byte) error
}

// NormalizeID trims characterID and rejects empty ids.
func NormalizeID(characterID string) (string, error) {
	id := strings.TrimSpace(characterID)
	if id == "" {
		return "", ErrInvalidID
	}
	return id, nil
}

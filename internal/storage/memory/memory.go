// Package memory is an in-process storage.Store for tests and single-node
// development servers.
package memory

import (
	"context"
	"sync"

	"grindfall/server/internal/storage"
)

// Store keeps blobs in a map.
type Store struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// New returns an empty store.
func New() *Store {
	return &Store{blobs: make(map[string][]byte)}
}

// Load returns a copy of the stored blob.
func (s *Store) Load(_ context.Context, characterID string) ([]byte, bool, error) {
	id, err := storage.NormalizeID(characterID)
	if err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.blobs[id]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), blob...), true, nil
}

// Save stores a copy of blob.
func (s *Store) Save(_ context.Context, characterID string, blob []byte) error {
	id, err := storage.NormalizeID(characterID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.blobs == nil {
		s.blobs = make(map[string][]byte)
	}
	s.blobs[id] = append([]byte(nil), blob...)
	return nil
}

// Len reports the number of stored blobs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

var _ storage.Store = (*Store)(nil)

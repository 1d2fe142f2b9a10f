// Package session persists per-session booking state, either in Redis for
// deployed environments or in process memory for local development and tests.
package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/primestageprime/wellappoint-ui-sub000/internal/booking"
)

// MemoryStore is an in-process booking.StateStore. State is JSON round-tripped
// on every access so callers see the same copy semantics as the Redis store.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string][]byte{}}
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (*booking.State, error) {
	s.mu.RLock()
	raw, ok := s.data[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	var st booking.State
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *MemoryStore) Put(_ context.Context, sessionID string, st *booking.State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data[sessionID] = raw
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.data, sessionID)
	s.mu.Unlock()
	return nil
}

package memory

import (
	"context"
	"sync"

	"github.com/tendant/portal-content/pkg/portal"
)

// Store is an in-memory implementation of the portal.Store interface
type Store struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// New creates a new in-memory store
func New() *Store {
	return &Store{
		values: make(map[string][]byte),
	}
}

var _ portal.Store = (*Store)(nil)

// Get returns a copy of the value stored under key
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, exists := s.values[key]
	if !exists {
		return nil, nil
	}
	// Return a copy to prevent external modifications
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Put stores a copy of value under key
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	s.values[key] = stored
	return nil
}

// Delete removes key
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}

// Keys returns the number of stored keys
func (s *Store) Keys() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

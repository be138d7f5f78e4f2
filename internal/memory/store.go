package memory

import (
	"context"
	"sync"
)

// Store is the ephemeral key/value state shared across workflow steps and
// runs. Writes are last-write-wins; a missing key is not an error. Values
// live for the process lifetime (or until Reset) — there is no TTL and no
// eviction.
type Store interface {
	// Get returns the stored value and whether the key was present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores the value under key, overwriting any previous value.
	Set(ctx context.Context, key string, value string) error
	// Reset drops all stored values.
	Reset(ctx context.Context) error
}

// InMemoryStore is the default process-local store. Individual get/set
// operations are atomic; callers must not expect any ordering across
// concurrent workflow runs touching the same key.
type InMemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{values: make(map[string]string)}
}

func (s *InMemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *InMemoryStore) Set(ctx context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *InMemoryStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]string)
	return nil
}

// Len returns the number of stored keys. Used by the health endpoint.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

package kv

import (
	"context"
	"sort"
	"sync"

	"github.com/danieljhkim/statekeep/internal/state"
)

// MemoryStore keeps encoded snapshots in memory. Values are copied on the
// way in and out, so callers never share maps with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]byte)}
}

// Get returns the snapshot stored under key.
func (s *MemoryStore) Get(ctx context.Context, key string) (state.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	data, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return decode(data)
}

// Set stores value under key, replacing any previous snapshot.
func (s *MemoryStore) Set(ctx context.Context, key string, value state.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return ErrInvalidKey
	}
	data, err := encode(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.records[key] = data
	s.mu.Unlock()
	return nil
}

// Clear removes every key.
func (s *MemoryStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.records = make(map[string][]byte)
	s.mu.Unlock()
	return nil
}

// Keys returns the stored keys in sorted order.
func (s *MemoryStore) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	keys := make([]string, 0, len(s.records))
	for k := range s.records {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sort.Strings(keys)
	return keys, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}

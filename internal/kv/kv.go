// Package kv implements the persistent key-value store that holds state
// snapshots between sessions.
//
// Every backend stores snapshots as JSON, so values read back always have
// JSON types (float64 numbers, map[string]any objects, []any arrays)
// regardless of what was written.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/danieljhkim/statekeep/internal/config"
	"github.com/danieljhkim/statekeep/internal/fsops"
	"github.com/danieljhkim/statekeep/internal/state"
)

// ErrInvalidKey indicates a key that cannot be stored.
var ErrInvalidKey = errors.New("invalid key")

// Store is the persistent key-value API consumed by the rehydration
// controller. Get returns (nil, nil) for a missing key.
type Store interface {
	Get(ctx context.Context, key string) (state.Snapshot, error)
	Set(ctx context.Context, key string, value state.Snapshot) error
	Clear(ctx context.Context) error
}

// Lister is implemented by stores that can enumerate their keys.
type Lister interface {
	Keys(ctx context.Context) ([]string, error)
}

// Backend is a Store that can list its keys and must be closed.
type Backend interface {
	Store
	Lister
	Close() error
}

// Open returns the backend named by cfg.Backend, rooted at paths.
func Open(cfg *config.Config, paths *config.Paths) (Backend, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return NewMemoryStore(), nil
	case config.BackendFile:
		return NewFileStore(fsops.NewRealFS(), paths.Snapshots), nil
	case config.BackendSQLite:
		return OpenSQLite(paths.Database)
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownBackend, cfg.Backend)
	}
}

func encode(value state.Snapshot) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return data, nil
}

// decode treats a JSON null as a missing snapshot.
func decode(data []byte) (state.Snapshot, error) {
	var snapshot state.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return snapshot, nil
}

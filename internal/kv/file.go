package kv

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/danieljhkim/statekeep/internal/fsops"
	"github.com/danieljhkim/statekeep/internal/state"
)

const fileExt = ".json"

// FileStore keeps one JSON file per key in a directory.
type FileStore struct {
	fs  fsops.FS
	dir string
}

// NewFileStore creates a FileStore rooted at dir.
func NewFileStore(fs fsops.FS, dir string) *FileStore {
	return &FileStore{fs: fs, dir: dir}
}

func (s *FileStore) path(key string) (string, error) {
	if err := s.fs.ValidateIdentifier(key); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return filepath.Join(s.dir, key+fileExt), nil
}

// Get loads the snapshot stored under key.
func (s *FileStore) Get(ctx context.Context, key string) (state.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	exists, err := s.fs.Exists(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat snapshot: %w", err)
	}
	if !exists {
		return nil, nil
	}

	data, err := s.fs.ReadFile(path)
	if err != nil {
		// Removed between the check and the read.
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return decode(data)
}

// Set writes the snapshot atomically.
func (s *FileStore) Set(ctx context.Context, key string, value state.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(key)
	if err != nil {
		return err
	}

	data, err := encode(value)
	if err != nil {
		return err
	}

	if err := s.fs.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	if err := s.fs.AtomicWrite(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// Clear removes the snapshot directory, including any temp files left by
// interrupted writes. The next Set recreates it.
func (s *FileStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.fs.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("failed to remove snapshots: %w", err)
	}
	return nil
}

// Keys returns the stored keys in sorted order.
func (s *FileStore) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	names, err := s.fs.ListFiles(s.dir, fileExt)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	keys := make([]string, 0, len(names))
	for _, name := range names {
		keys = append(keys, strings.TrimSuffix(name, fileExt))
	}
	return keys, nil
}

// Close is a no-op.
func (s *FileStore) Close() error {
	return nil
}

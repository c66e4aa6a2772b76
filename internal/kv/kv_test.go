package kv

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/statekeep/internal/config"
	"github.com/danieljhkim/statekeep/internal/fsops"
	"github.com/danieljhkim/statekeep/internal/state"
)

func backends(t *testing.T) map[string]Backend {
	t.Helper()

	db, err := OpenSQLite(filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return map[string]Backend{
		"memory": NewMemoryStore(),
		"file":   NewFileStore(fsops.NewRealFS(), filepath.Join(t.TempDir(), "snapshots")),
		"sqlite": db,
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()

	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("missing key returns nil", func(t *testing.T) {
				got, err := store.Get(ctx, "redux-state-missing")
				require.NoError(t, err)
				assert.Nil(t, got)
			})

			t.Run("set then get returns JSON-typed copy", func(t *testing.T) {
				in := state.Snapshot{
					"count":      5,
					"_timestamp": int64(1700000000000),
					"prefs":      map[string]any{"theme": "dark"},
				}
				require.NoError(t, store.Set(ctx, "redux-state-1", in))

				got, err := store.Get(ctx, "redux-state-1")
				require.NoError(t, err)
				assert.Equal(t, state.Snapshot{
					"count":      float64(5),
					"_timestamp": float64(1700000000000),
					"prefs":      map[string]any{"theme": "dark"},
				}, got)

				got["count"] = 99.0
				again, err := store.Get(ctx, "redux-state-1")
				require.NoError(t, err)
				assert.Equal(t, float64(5), again["count"])
			})

			t.Run("set replaces wholesale", func(t *testing.T) {
				require.NoError(t, store.Set(ctx, "redux-state-2", state.Snapshot{"a": 1, "b": 2}))
				require.NoError(t, store.Set(ctx, "redux-state-2", state.Snapshot{"c": 3}))

				got, err := store.Get(ctx, "redux-state-2")
				require.NoError(t, err)
				assert.Equal(t, state.Snapshot{"c": float64(3)}, got)
			})

			t.Run("keys are sorted", func(t *testing.T) {
				keys, err := store.Keys(ctx)
				require.NoError(t, err)
				assert.Equal(t, []string{"redux-state-1", "redux-state-2"}, keys)
			})

			t.Run("clear removes everything", func(t *testing.T) {
				require.NoError(t, store.Clear(ctx))

				keys, err := store.Keys(ctx)
				require.NoError(t, err)
				assert.Empty(t, keys)

				got, err := store.Get(ctx, "redux-state-1")
				require.NoError(t, err)
				assert.Nil(t, got)
			})

			t.Run("empty key is rejected", func(t *testing.T) {
				err := store.Set(ctx, "", state.Snapshot{})
				assert.True(t, errors.Is(err, ErrInvalidKey), "got %v", err)
			})
		})
	}
}

func TestFileStore_RejectsTraversal(t *testing.T) {
	store := NewFileStore(fsops.NewRealFS(), t.TempDir())

	err := store.Set(context.Background(), "../escape", state.Snapshot{})
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = store.Get(context.Background(), "a/b")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestFileStore_CorruptSnapshot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "redux-state-1.json"), []byte("{not json"), 0600))

	store := NewFileStore(fsops.NewRealFS(), dir)
	_, err := store.Get(context.Background(), "redux-state-1")
	assert.Error(t, err)
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewMemoryStore()
	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, store.Set(ctx, "k", state.Snapshot{}), context.Canceled)
}

func TestOpen(t *testing.T) {
	paths := config.PathsAt(t.TempDir())

	for _, backend := range []string{config.BackendMemory, config.BackendFile, config.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Backend = backend

			store, err := Open(cfg, paths)
			require.NoError(t, err)
			defer store.Close()

			require.NoError(t, store.Set(context.Background(), "redux-state-x", state.Snapshot{"ok": true}))
		})
	}

	t.Run("unknown", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Backend = "etcd"
		_, err := Open(cfg, paths)
		assert.ErrorIs(t, err, config.ErrUnknownBackend)
	})
}

// countingFS records the directory-level calls FileStore makes.
type countingFS struct {
	*fsops.RealFS
	mkdirs, exists, removeAlls int
}

func (c *countingFS) MkdirAll(path string, perm os.FileMode) error {
	c.mkdirs++
	return c.RealFS.MkdirAll(path, perm)
}

func (c *countingFS) Exists(path string) (bool, error) {
	c.exists++
	return c.RealFS.Exists(path)
}

func (c *countingFS) RemoveAll(path string) error {
	c.removeAlls++
	return c.RealFS.RemoveAll(path)
}

func TestFileStore_DirectoryLifecycle(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested", "snapshots")
	fs := &countingFS{RealFS: fsops.NewRealFS()}
	store := NewFileStore(fs, dir)

	got, err := store.Get(ctx, "redux-state-1")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoDirExists(t, dir, "Get must not create the directory")

	require.NoError(t, store.Set(ctx, "redux-state-1", state.Snapshot{"count": 1}))
	assert.DirExists(t, dir)
	assert.Equal(t, 1, fs.mkdirs)

	leftover := filepath.Join(dir, ".statekeep-tmp-123")
	require.NoError(t, os.WriteFile(leftover, []byte("partial"), 0600))

	require.NoError(t, store.Clear(ctx))
	assert.Equal(t, 1, fs.removeAlls)
	assert.NoFileExists(t, leftover)

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	got, err = store.Get(ctx, "redux-state-1")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 2, fs.exists)

	require.NoError(t, store.Set(ctx, "redux-state-2", state.Snapshot{"count": 2}))
	got, err = store.Get(ctx, "redux-state-2")
	require.NoError(t, err)
	assert.Equal(t, state.Snapshot{"count": float64(2)}, got)
}

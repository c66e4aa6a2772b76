package rehydrate

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/statekeep/internal/state"
)

func set(store *state.Store, k string, v any) {
	store.Dispatch(state.Action{Type: "SET", Payload: map[string]any{k: v}})
}

func TestPersister_ThrottlesToLastState(t *testing.T) {
	f := newFixture()
	_, store := f.create(t)

	for i := 1; i <= 20; i++ {
		set(store, "count", i)
		f.clock.Advance(100 * time.Millisecond)
	}
	_, sets, _ := f.kv.calls()
	assert.Zero(t, sets, "no leading-edge write")

	f.clock.Advance(SerializeThrottle)

	_, sets, _ = f.kv.calls()
	require.Equal(t, 1, sets)
	last := f.kv.lastSet()
	assert.Equal(t, "redux-state-42", last.key)
	assert.Equal(t, 20, last.value["count"])
	assert.Equal(t, epoch.Add(SerializeThrottle).UnixMilli(), last.value[TimestampKey])
}

func TestPersister_OneWritePerWindow(t *testing.T) {
	f := newFixture()
	_, store := f.create(t)

	set(store, "count", 1)
	f.clock.Advance(SerializeThrottle)
	set(store, "count", 2)
	f.clock.Advance(SerializeThrottle)

	_, sets, _ := f.kv.calls()
	assert.Equal(t, 2, sets)
	assert.Equal(t, 2, f.kv.lastSet().value["count"])
}

func TestPersister_IdenticalStateIsIgnored(t *testing.T) {
	f := newFixture()
	c, store := f.create(t)
	p := c.Persister()
	require.NotNil(t, p)

	set(store, "count", 1)
	f.clock.Advance(SerializeThrottle)

	p.HandleChange()
	p.HandleChange()
	store.Dispatch(state.Action{Type: "NOOP"})
	f.clock.Advance(SerializeThrottle)

	_, sets, _ := f.kv.calls()
	assert.Equal(t, 1, sets)
}

func TestPersister_FlushOnUnload(t *testing.T) {
	f := newFixture()
	c, store := f.create(t)

	set(store, "count", 9)
	f.clock.Advance(time.Second)

	require.True(t, c.Flush())
	_, sets, _ := f.kv.calls()
	require.Equal(t, 1, sets)
	assert.Equal(t, 9, f.kv.lastSet().value["count"])

	f.clock.Advance(SerializeThrottle)
	_, sets, _ = f.kv.calls()
	assert.Equal(t, 1, sets, "flushed write must not repeat")

	assert.False(t, c.Flush(), "nothing pending")
}

func TestPersister_WriteFailureIsLoggedNotRetried(t *testing.T) {
	f := newFixture()
	_, store := f.create(t)
	f.kv.setErr = errors.New("quota exceeded")

	set(store, "count", 1)
	f.clock.Advance(SerializeThrottle)
	f.clock.Advance(10 * SerializeThrottle)

	_, sets, _ := f.kv.calls()
	assert.Equal(t, 1, sets)
	assert.Equal(t, 1, f.logs.FilterMessage("failed to persist state").Len())

	f.kv.setErr = nil
	set(store, "count", 2)
	f.clock.Advance(SerializeThrottle)
	_, sets, _ = f.kv.calls()
	assert.Equal(t, 2, sets)
}

func TestPersister_LoggedOutSkipsWrites(t *testing.T) {
	f := newFixture()
	_, store := f.create(t)

	t.Run("at change time", func(t *testing.T) {
		f.user.LogOut()
		set(store, "count", 1)
		f.clock.Advance(SerializeThrottle)
		_, sets, _ := f.kv.calls()
		assert.Zero(t, sets)
	})

	t.Run("at write time", func(t *testing.T) {
		f.user.LogIn("42")
		set(store, "count", 2)
		f.user.LogOut()
		f.clock.Advance(SerializeThrottle)
		_, sets, _ := f.kv.calls()
		assert.Zero(t, sets)
	})
}

func TestPersister_CloseFlushesAndUnsubscribes(t *testing.T) {
	f := newFixture()
	c, store := f.create(t)

	set(store, "count", 3)
	c.Close()

	_, sets, _ := f.kv.calls()
	require.Equal(t, 1, sets)

	set(store, "count", 4)
	f.clock.Advance(SerializeThrottle)
	_, sets, _ = f.kv.calls()
	assert.Equal(t, 1, sets)
}

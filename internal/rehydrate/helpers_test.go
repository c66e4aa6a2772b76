package rehydrate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/danieljhkim/statekeep/internal/clock"
	"github.com/danieljhkim/statekeep/internal/config"
	"github.com/danieljhkim/statekeep/internal/identity"
	"github.com/danieljhkim/statekeep/internal/state"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var epoch = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type setCall struct {
	key   string
	value state.Snapshot
}

// fakeKV records every call and can be told to fail or to hold Get.
type fakeKV struct {
	mu       sync.Mutex
	data     map[string]state.Snapshot
	getErr   error
	setErr   error
	clearErr error
	gate     chan struct{}

	gets   int
	sets   []setCall
	clears int
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]state.Snapshot{}}
}

func (f *fakeKV) Get(ctx context.Context, key string) (state.Snapshot, error) {
	f.mu.Lock()
	f.gets++
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.data[key], nil
}

func (f *fakeKV) Set(ctx context.Context, key string, value state.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets = append(f.sets, setCall{key: key, value: value})
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = value
	return nil
}

func (f *fakeKV) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	if f.clearErr != nil {
		return f.clearErr
	}
	f.data = map[string]state.Snapshot{}
	return nil
}

func (f *fakeKV) calls() (gets, sets, clears int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gets, len(f.sets), f.clears
}

func (f *fakeKV) lastSet() setCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sets[len(f.sets)-1]
}

// testReducer merges SET payloads into the snapshot and treats every other
// action, including the lifecycle ones, as a no-op.
func testReducer() state.Reducer {
	return state.ReducerFunc(func(s state.Snapshot, a state.Action) state.Snapshot {
		if a.Type != "SET" {
			return s
		}
		next := s.Clone()
		if next == nil {
			next = state.Snapshot{}
		}
		for k, v := range a.Payload {
			next[k] = v
		}
		return next
	})
}

type fixture struct {
	kv    *fakeKV
	clock *clock.FakeClock
	user  *identity.Static
	logs  *observer.ObservedLogs
	deps  Deps
}

func newFixture() *fixture {
	core, logs := observer.New(zapcore.DebugLevel)
	f := &fixture{
		kv:    newFakeKV(),
		clock: clock.NewFakeClock(epoch),
		user:  identity.NewStatic("42", false),
		logs:  logs,
	}
	f.deps = Deps{
		KV:          f.kv,
		Reducer:     testReducer(),
		Identity:    f.user,
		Features:    config.Features{config.FeaturePersistRedux: true},
		Environment: config.EnvProduction,
		Clock:       f.clock,
		Rand:        RandFunc(func() float64 { return 0.99 }),
		Logger:      zap.New(core),
	}
	return f
}

func (f *fixture) store(key string, s state.Snapshot) {
	f.kv.data[key] = s
}

func (f *fixture) create(t *testing.T) (*Controller, *state.Store) {
	t.Helper()
	c := New(f.deps)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	store, err := c.CreateStore(context.Background()).Wait(ctx)
	require.NoError(t, err)
	require.NotNil(t, store)
	return c, store
}

func millisAgo(d time.Duration) int64 {
	return epoch.Add(-d).UnixMilli()
}

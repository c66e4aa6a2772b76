package rehydrate

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/danieljhkim/statekeep/internal/clock"
	"github.com/danieljhkim/statekeep/internal/identity"
	"github.com/danieljhkim/statekeep/internal/kv"
	"github.com/danieljhkim/statekeep/internal/state"
	"github.com/danieljhkim/statekeep/internal/throttle"
)

// PersisterConfig holds the collaborators of a Persister.
type PersisterConfig struct {
	KV       kv.Store
	Reducer  state.Reducer
	Identity identity.Oracle
	Clock    clock.Clock
	Logger   *zap.Logger

	// Interval overrides SerializeThrottle when positive.
	Interval time.Duration
}

// Persister writes the store's state back to the KV store after changes,
// at most once per throttle window.
type Persister struct {
	store    *state.Store
	kv       kv.Store
	reducer  state.Reducer
	identity identity.Oracle
	clock    clock.Clock
	log      *zap.Logger
	ctx      context.Context

	throttle *throttle.Throttler[state.Snapshot]

	mu          sync.Mutex
	last        state.Snapshot
	unsubscribe func()
}

// PersistOnChange subscribes a new Persister to store. Writes run with a
// context detached from ctx's cancellation, since an in-flight write is
// never cancelled.
func PersistOnChange(ctx context.Context, store *state.Store, cfg PersisterConfig) *Persister {
	if cfg.Clock == nil {
		cfg.Clock = &clock.RealClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = SerializeThrottle
	}

	p := &Persister{
		store:    store,
		kv:       cfg.KV,
		reducer:  cfg.Reducer,
		identity: cfg.Identity,
		clock:    cfg.Clock,
		log:      cfg.Logger,
		ctx:      context.WithoutCancel(ctx),
	}
	p.throttle = throttle.New(cfg.Clock, interval, p.write)
	p.unsubscribe = store.Subscribe(p.HandleChange)
	return p
}

// HandleChange is the store subscription. It schedules a write of the
// current state unless no user is logged in or the state has not changed
// since the last scheduled write.
func (p *Persister) HandleChange() {
	if !identity.Authenticated(p.identity.CurrentUser()) {
		return
	}

	next := p.store.GetState()

	p.mu.Lock()
	if p.last != nil && state.Same(next, p.last) {
		p.mu.Unlock()
		return
	}
	p.last = next
	p.mu.Unlock()

	p.throttle.Schedule(next)
}

// Flush performs any pending write now. It reports whether a write was
// attempted.
func (p *Persister) Flush() bool {
	return p.throttle.Flush()
}

// Close stops listening to the store and flushes the pending write.
func (p *Persister) Close() {
	p.mu.Lock()
	unsubscribe := p.unsubscribe
	p.unsubscribe = nil
	p.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	p.Flush()
}

func (p *Persister) write(s state.Snapshot) {
	user := p.identity.CurrentUser()
	if !identity.Authenticated(user) {
		return
	}

	key := identity.Key(user)
	if err := p.kv.Set(p.ctx, key, Serialize(p.reducer, s, p.clock.Now())); err != nil {
		p.log.Warn("failed to persist state", zap.String("key", key), zap.Error(err))
		return
	}
	p.log.Debug("persisted state", zap.String("key", key))
}

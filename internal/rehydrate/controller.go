package rehydrate

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/danieljhkim/statekeep/internal/clock"
	"github.com/danieljhkim/statekeep/internal/config"
	"github.com/danieljhkim/statekeep/internal/identity"
	"github.com/danieljhkim/statekeep/internal/kv"
	"github.com/danieljhkim/statekeep/internal/state"
)

// Deps are the collaborators of a Controller.
type Deps struct {
	KV       kv.Store
	Reducer  state.Reducer
	Identity identity.Oracle

	// Factory defaults to state.NewFactory(Reducer).
	Factory state.Factory

	Features    config.Features
	Environment string

	// Bootstrap is the server-rendered initial state, nil when the page
	// carried none.
	Bootstrap state.Snapshot

	// Clock defaults to the system clock.
	Clock clock.Clock

	// Rand drives the development-mode sympathy clear. Defaults to the
	// global generator.
	Rand RandSource

	// Logger defaults to a no-op logger.
	Logger *zap.Logger

	// Interval overrides SerializeThrottle when positive.
	Interval time.Duration
}

// Controller creates the session's single live store.
type Controller struct {
	deps Deps
	log  *zap.Logger

	once   sync.Once
	future *Future

	mu        sync.Mutex
	persister *Persister
}

// New returns a Controller, filling in defaults for optional Deps.
func New(deps Deps) *Controller {
	if deps.Factory == nil {
		deps.Factory = state.NewFactory(deps.Reducer)
	}
	if deps.Clock == nil {
		deps.Clock = &clock.RealClock{}
	}
	if deps.Rand == nil {
		deps.Rand = defaultRand
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Features == nil {
		deps.Features = config.Features{}
	}

	return &Controller{
		deps: deps,
		log:  deps.Logger.Named("state").With(zap.String("session", uuid.NewString())),
	}
}

// CreateStore starts building the live store. Only the first call does any
// work; later calls return the same Future.
//
// When persistence is inactive the returned Future is already resolved.
// Otherwise the snapshot is read in the background and the Future resolves
// once the read settles, whatever its outcome.
func (c *Controller) CreateStore(ctx context.Context) *Future {
	c.once.Do(func() {
		c.future = newFuture()
		c.start(ctx)
	})
	return c.future
}

func (c *Controller) start(ctx context.Context) {
	// The oracle may change its answer at any time; decide and key off one read.
	user := c.deps.Identity.CurrentUser()
	persist := c.persistenceActive(user)

	if ShouldClearPersistentState(c.deps.Features, c.deps.Environment, c.deps.Rand) {
		c.log.Warn("skipping initial state rehydration to recreate first-load experience")
		go func() {
			if err := c.deps.KV.Clear(ctx); err != nil {
				c.log.Warn("failed to clear persistent state", zap.Error(err))
			}
			store := c.deps.Factory.Create(c.ServerBootstrapState())
			if persist {
				c.attach(ctx, store)
			}
			c.future.resolve(store)
		}()
		return
	}

	if !persist {
		c.log.Debug("persist-redux is not enabled, building state from scratch")
		c.future.resolve(c.deps.Factory.Create(c.initialState(state.Snapshot{})))
		return
	}

	key := identity.Key(user)
	go func() {
		snapshot, err := c.deps.KV.Get(ctx, key)
		var store *state.Store
		if err != nil {
			c.log.Warn("failed to load initial state", zap.String("key", key), zap.Error(err))
			store = c.deps.Factory.Create(c.ServerBootstrapState())
		} else {
			store = c.loadInitialState(snapshot)
		}
		c.attach(ctx, store)
		c.future.resolve(store)
	}()
}

// loadInitialState builds a store from a stored snapshot, nil meaning none.
func (c *Controller) loadInitialState(snapshot state.Snapshot) *state.Store {
	c.log.Debug("loading initial state", zap.Int("branches", len(snapshot)))
	if snapshot == nil {
		c.log.Debug("no initial state found in storage")
		snapshot = state.Snapshot{}
	}
	if IsStale(snapshot, c.deps.Clock.Now()) {
		c.log.Debug("stored state is too old, building store from scratch")
		snapshot = state.Snapshot{}
	}
	return c.deps.Factory.Create(c.initialState(snapshot))
}

// initialState deserializes a local snapshot and overlays bootstrap state.
func (c *Controller) initialState(local state.Snapshot) state.Snapshot {
	return state.Merge(Deserialize(c.deps.Reducer, local), c.ServerBootstrapState())
}

// ServerBootstrapState returns the deserialized bootstrap state restricted
// to the bootstrap's own top-level keys, or an empty snapshot when there is
// no bootstrap or the session is a support session.
func (c *Controller) ServerBootstrapState() state.Snapshot {
	if c.deps.Bootstrap == nil || c.deps.Identity.IsSupportSession() {
		return state.Snapshot{}
	}
	keys := c.deps.Bootstrap.Keys()
	deserialized := c.deps.Reducer.Reduce(c.deps.Bootstrap.Clone(), state.Action{Type: state.Deserialize})
	return state.Pick(deserialized, keys)
}

func (c *Controller) persistenceActive(user *identity.User) bool {
	return c.deps.Features.IsEnabled(config.FeaturePersistRedux) &&
		identity.Authenticated(user) &&
		!c.deps.Identity.IsSupportSession()
}

func (c *Controller) attach(ctx context.Context, store *state.Store) {
	p := PersistOnChange(ctx, store, PersisterConfig{
		KV:       c.deps.KV,
		Reducer:  c.deps.Reducer,
		Identity: c.deps.Identity,
		Clock:    c.deps.Clock,
		Logger:   c.log,
		Interval: c.deps.Interval,
	})
	c.mu.Lock()
	c.persister = p
	c.mu.Unlock()
}

// Persister returns the persister attached to the live store, or nil when
// persistence is inactive or the store is not ready yet.
func (c *Controller) Persister() *Persister {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.persister
}

// Flush forces any pending snapshot write. Call it on shutdown.
func (c *Controller) Flush() bool {
	if p := c.Persister(); p != nil {
		return p.Flush()
	}
	return false
}

// Close detaches the persister and flushes its pending write.
func (c *Controller) Close() {
	if p := c.Persister(); p != nil {
		p.Close()
	}
}

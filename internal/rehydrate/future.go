package rehydrate

import (
	"context"
	"sync"

	"github.com/danieljhkim/statekeep/internal/state"
)

// Future is the pending result of Controller.CreateStore. It resolves
// exactly once, with a non-nil store, after any storage read has settled.
type Future struct {
	once  sync.Once
	done  chan struct{}
	store *state.Store
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) resolve(store *state.Store) {
	f.once.Do(func() {
		f.store = store
		close(f.done)
	})
}

// Done is closed once the store is ready.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the store is ready or ctx ends. The only error it
// returns is ctx.Err().
func (f *Future) Wait(ctx context.Context) (*state.Store, error) {
	select {
	case <-f.done:
		return f.store, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Then calls onReady with the store once it is ready. If the future has
// already resolved, onReady runs before Then returns.
func (f *Future) Then(onReady func(*state.Store)) {
	select {
	case <-f.done:
		onReady(f.store)
	default:
		go func() {
			<-f.done
			onReady(f.store)
		}()
	}
}

package state

import "sync"

// Listener is notified after every dispatched action.
type Listener func()

// Store is the live state container. Its state changes only through
// Dispatch, which runs the reducer and then notifies subscribers.
type Store struct {
	mu        sync.Mutex
	reducer   Reducer
	state     Snapshot
	listeners map[int]Listener
	nextID    int
}

// NewStore creates a Store and initialises it by dispatching Init.
func NewStore(reducer Reducer, initial Snapshot) *Store {
	s := &Store{
		reducer:   reducer,
		listeners: make(map[int]Listener),
	}
	s.state = reducer.Reduce(initial, Action{Type: Init})
	return s
}

// GetState returns the current snapshot. Callers must treat it as read-only.
func (s *Store) GetState() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies action through the reducer and notifies subscribers.
// It returns the resulting snapshot.
func (s *Store) Dispatch(action Action) Snapshot {
	s.mu.Lock()
	s.state = s.reducer.Reduce(s.state, action)
	next := s.state
	listeners := make([]Listener, 0, len(s.listeners))
	for id := 0; id < s.nextID; id++ {
		if l, ok := s.listeners[id]; ok {
			listeners = append(listeners, l)
		}
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l()
	}
	return next
}

// Subscribe registers listener and returns a function that removes it.
// Calling the returned function more than once is harmless.
func (s *Store) Subscribe(listener Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = listener
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Factory builds live stores from an initial snapshot.
type Factory interface {
	Create(initial Snapshot) *Store
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func(initial Snapshot) *Store

// Create calls f(initial).
func (f FactoryFunc) Create(initial Snapshot) *Store {
	return f(initial)
}

// NewFactory returns a Factory that builds stores around reducer.
func NewFactory(reducer Reducer) Factory {
	return FactoryFunc(func(initial Snapshot) *Store {
		return NewStore(reducer, initial)
	})
}

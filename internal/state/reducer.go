package state

// Lifecycle action types. Every reducer must handle both without failing.
const (
	// Serialize asks reducers to produce the persistable form of their state.
	Serialize = "SERIALIZE"

	// Deserialize asks reducers to rebuild live state from a persisted form.
	Deserialize = "DESERIALIZE"

	// Init is dispatched once when a Store is created.
	Init = "@@statekeep/INIT"
)

// Action is a reducer input.
type Action struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Reducer computes the next snapshot from the current one and an action.
// It must not mutate its input; returning the input unchanged signals a no-op.
type Reducer interface {
	Reduce(state Snapshot, action Action) Snapshot
}

// ReducerFunc adapts a function to the Reducer interface.
type ReducerFunc func(state Snapshot, action Action) Snapshot

// Reduce calls f(state, action).
func (f ReducerFunc) Reduce(state Snapshot, action Action) Snapshot {
	return f(state, action)
}

// BranchReducer reduces one top-level branch of the state tree.
// A nil state means the branch has not been initialised yet.
type BranchReducer interface {
	Reduce(state any, action Action) any
}

// BranchFunc adapts a function to the BranchReducer interface.
type BranchFunc func(state any, action Action) any

// Reduce calls f(state, action).
func (f BranchFunc) Reduce(state any, action Action) any {
	return f(state, action)
}

// CombineReducers builds a Reducer that delegates each top-level key to its
// branch reducer. Keys without a branch reducer are dropped. A branch that
// serializes to nil is omitted from the serialized snapshot.
//
// When no branch changes, the input snapshot itself is returned so callers
// can detect no-ops with Same.
func CombineReducers(branches map[string]BranchReducer) Reducer {
	return ReducerFunc(func(s Snapshot, action Action) Snapshot {
		next := make(Snapshot, len(branches))
		changed := s == nil
		for key, branch := range branches {
			prev, had := s[key]
			value := branch.Reduce(prev, action)
			if value == nil && action.Type == Serialize {
				if had {
					changed = true
				}
				continue
			}
			next[key] = value
			if !had || !sameValue(prev, value) {
				changed = true
			}
		}
		if !changed && len(next) != len(s) {
			changed = true
		}
		if !changed {
			return s
		}
		return next
	})
}

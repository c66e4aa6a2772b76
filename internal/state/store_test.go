package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterBranch() BranchReducer {
	return BranchFunc(func(s any, action Action) any {
		n, _ := s.(int)
		switch action.Type {
		case "INCREMENT":
			return n + 1
		case Serialize, Deserialize:
			return s
		}
		if s == nil {
			return 0
		}
		return s
	})
}

func ephemeralBranch() BranchReducer {
	return BranchFunc(func(s any, action Action) any {
		if action.Type == Serialize {
			return nil
		}
		if s == nil {
			return "transient"
		}
		return s
	})
}

func TestCombineReducers(t *testing.T) {
	reducer := CombineReducers(map[string]BranchReducer{
		"count": counterBranch(),
		"ui":    ephemeralBranch(),
	})

	t.Run("initialises every branch", func(t *testing.T) {
		s := reducer.Reduce(nil, Action{Type: Init})
		assert.Equal(t, Snapshot{"count": 0, "ui": "transient"}, s)
	})

	t.Run("no-op returns the same snapshot", func(t *testing.T) {
		s := reducer.Reduce(nil, Action{Type: Init})
		next := reducer.Reduce(s, Action{Type: "UNKNOWN"})
		assert.True(t, Same(s, next))
	})

	t.Run("change returns a new snapshot", func(t *testing.T) {
		s := reducer.Reduce(nil, Action{Type: Init})
		next := reducer.Reduce(s, Action{Type: "INCREMENT"})
		assert.False(t, Same(s, next))
		assert.Equal(t, 1, next["count"])
		assert.Equal(t, 0, s["count"])
	})

	t.Run("serialize drops branches that serialize to nil", func(t *testing.T) {
		s := reducer.Reduce(nil, Action{Type: Init})
		out := reducer.Reduce(s, Action{Type: Serialize})
		assert.Equal(t, Snapshot{"count": 0}, out)
	})

	t.Run("unknown keys are dropped", func(t *testing.T) {
		s := Snapshot{"count": 2, "ui": "transient", "stray": true}
		out := reducer.Reduce(s, Action{Type: Deserialize})
		assert.Equal(t, Snapshot{"count": 2, "ui": "transient"}, out)
	})
}

func TestStore(t *testing.T) {
	factory := NewFactory(CombineReducers(map[string]BranchReducer{
		"count": counterBranch(),
	}))

	t.Run("create runs init over the initial snapshot", func(t *testing.T) {
		store := factory.Create(Snapshot{"count": 5})
		assert.Equal(t, Snapshot{"count": 5}, store.GetState())
	})

	t.Run("dispatch notifies subscribers", func(t *testing.T) {
		store := factory.Create(nil)
		calls := 0
		unsubscribe := store.Subscribe(func() { calls++ })

		next := store.Dispatch(Action{Type: "INCREMENT"})
		require.Equal(t, 1, next["count"])
		assert.Equal(t, 1, calls)

		unsubscribe()
		unsubscribe()
		store.Dispatch(Action{Type: "INCREMENT"})
		assert.Equal(t, 1, calls)
		assert.Equal(t, 2, store.GetState()["count"])
	})

	t.Run("listeners run in subscription order", func(t *testing.T) {
		store := factory.Create(nil)
		var order []int
		for i := 0; i < 3; i++ {
			i := i
			store.Subscribe(func() { order = append(order, i) })
		}
		store.Dispatch(Action{Type: "INCREMENT"})
		assert.Equal(t, []int{0, 1, 2}, order)
	})

	t.Run("listener may read state without deadlock", func(t *testing.T) {
		store := factory.Create(nil)
		var seen any
		store.Subscribe(func() { seen = store.GetState()["count"] })
		store.Dispatch(Action{Type: "INCREMENT"})
		assert.Equal(t, 1, seen)
	})
}

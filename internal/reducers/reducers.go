// Package reducers provides the branch reducers the statekeep CLI mounts.
package reducers

import (
	"github.com/danieljhkim/statekeep/internal/state"
)

// Action types understood by the reducers in this package.
const (
	ActionSet       = "SET"
	ActionDelete    = "DELETE"
	ActionReset     = "RESET"
	ActionIncrement = "INCREMENT"
	ActionDecrement = "DECREMENT"
	ActionUISet     = "UI_SET"
)

// KeyValue reduces a flat map[string]any branch. SET and DELETE read "key"
// (and "value") from the payload; RESET empties the branch.
func KeyValue() state.BranchReducer {
	return state.BranchFunc(func(s any, action state.Action) any {
		current, ok := s.(map[string]any)
		if !ok {
			current = map[string]any{}
		}

		switch action.Type {
		case state.Serialize, state.Deserialize:
			return current
		case ActionSet:
			key, ok := action.Payload["key"].(string)
			if !ok || key == "" {
				return current
			}
			next := make(map[string]any, len(current)+1)
			for k, v := range current {
				next[k] = v
			}
			next[key] = action.Payload["value"]
			return next
		case ActionDelete:
			key, _ := action.Payload["key"].(string)
			if _, exists := current[key]; !exists {
				return current
			}
			next := make(map[string]any, len(current))
			for k, v := range current {
				if k != key {
					next[k] = v
				}
			}
			return next
		case ActionReset:
			if len(current) == 0 {
				return current
			}
			return map[string]any{}
		}
		return current
	})
}

// Counter reduces a numeric branch. INCREMENT and DECREMENT accept an
// optional "by" in the payload. Values restored from JSON arrive as float64.
func Counter() state.BranchReducer {
	return state.BranchFunc(func(s any, action state.Action) any {
		n, ok := toFloat(s)
		if !ok {
			n = 0
		}

		switch action.Type {
		case ActionIncrement:
			return n + step(action)
		case ActionDecrement:
			return n - step(action)
		case ActionReset:
			if ok && n == 0 {
				return s
			}
			return float64(0)
		}
		if ok {
			if _, isFloat := s.(float64); isFloat {
				return s
			}
		}
		return n
	})
}

// Ephemeral holds session-only values set with UI_SET. It is never written
// to persistent storage and starts empty on every load.
func Ephemeral() state.BranchReducer {
	kv := KeyValue()
	return state.BranchFunc(func(s any, action state.Action) any {
		current, ok := s.(map[string]any)
		if !ok {
			current = map[string]any{}
		}
		switch action.Type {
		case state.Serialize:
			return nil
		case state.Deserialize:
			return map[string]any{}
		case ActionUISet:
			return kv.Reduce(current, state.Action{Type: ActionSet, Payload: action.Payload})
		}
		return current
	})
}

// Default is the reducer tree used by the CLI.
func Default() state.Reducer {
	return state.CombineReducers(map[string]state.BranchReducer{
		"preferences": KeyValue(),
		"count":       Counter(),
		"ui":          Ephemeral(),
	})
}

func step(action state.Action) float64 {
	if by, ok := toFloat(action.Payload["by"]); ok {
		return by
	}
	return 1
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}

package rehydrate

import (
	"encoding/json"
	"math"
	"time"

	"github.com/danieljhkim/statekeep/internal/state"
)

const (
	// SerializeThrottle is the minimum interval between snapshot writes.
	SerializeThrottle = 5000 * time.Millisecond

	// MaxAge is how old a stored snapshot may be before it is discarded.
	MaxAge = 7 * 24 * time.Hour

	// TimestampKey holds the write time of a stored snapshot.
	TimestampKey = state.TimestampKey
)

// Serialize runs SERIALIZE over s and stamps the result with now.
// The reducer's output is copied before stamping.
func Serialize(reducer state.Reducer, s state.Snapshot, now time.Time) state.Snapshot {
	out := reducer.Reduce(s, state.Action{Type: state.Serialize}).Clone()
	if out == nil {
		out = state.Snapshot{}
	}
	out[TimestampKey] = now.UnixMilli()
	return out
}

// Deserialize strips the timestamp from s and runs DESERIALIZE over it.
// s itself is left untouched.
func Deserialize(reducer state.Reducer, s state.Snapshot) state.Snapshot {
	stripped := s.Clone()
	if stripped == nil {
		stripped = state.Snapshot{}
	}
	delete(stripped, TimestampKey)
	return reducer.Reduce(stripped, state.Action{Type: state.Deserialize})
}

// IsStale reports whether s carries a timestamp older than MaxAge at now.
// A snapshot without a timestamp is never stale; a timestamp that is not a
// number always is.
func IsStale(s state.Snapshot, now time.Time) bool {
	raw, ok := s[TimestampKey]
	if !ok {
		return false
	}
	ts, ok := timestampMillis(raw)
	if !ok {
		return true
	}
	return now.UnixMilli()-ts > MaxAge.Milliseconds()
}

// Age returns how long ago s was written, if it carries a timestamp.
func Age(s state.Snapshot, now time.Time) (time.Duration, bool) {
	ts, ok := timestampMillis(s[TimestampKey])
	if !ok {
		return 0, false
	}
	return now.Sub(time.UnixMilli(ts)), true
}

func timestampMillis(v any) (int64, bool) {
	switch ts := v.(type) {
	case int64:
		return ts, true
	case int:
		return int64(ts), true
	case float64:
		if math.IsNaN(ts) || math.IsInf(ts, 0) {
			return 0, false
		}
		return int64(ts), true
	case json.Number:
		n, err := ts.Int64()
		return n, err == nil
	}
	return 0, false
}

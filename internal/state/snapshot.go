package state

import (
	"reflect"
	"sort"
)

// TimestampKey holds the write time, in epoch milliseconds, of a stored
// snapshot. It is never part of live state.
const TimestampKey = "_timestamp"

// Snapshot is the application state tree keyed by top-level branch name.
type Snapshot map[string]any

// Keys returns the snapshot's top-level keys in sorted order.
func (s Snapshot) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy of the snapshot. Branch values are shared.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Same reports whether a and b are the same snapshot instance.
// Two distinct maps with equal contents are not the same.
func Same(a, b Snapshot) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

// Pick returns a new snapshot holding only those keys that are present in s.
func Pick(s Snapshot, keys []string) Snapshot {
	out := make(Snapshot, len(keys))
	for _, k := range keys {
		if v, ok := s[k]; ok {
			out[k] = v
		}
	}
	return out
}

// Merge overlays server onto local one top-level branch at a time.
// A branch present in server replaces the local branch wholesale; branches
// are never merged field by field.
func Merge(local, server Snapshot) Snapshot {
	out := make(Snapshot, len(local)+len(server))
	for k, v := range local {
		out[k] = v
	}
	for k, v := range server {
		out[k] = v
	}
	return out
}

// sameValue reports whether two branch values are identical: the same
// instance for reference kinds, equal for comparable values.
func sameValue(a, b any) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !va.IsValid() || !vb.IsValid() {
		return !va.IsValid() && !vb.IsValid()
	}
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Map, reflect.Pointer, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	}
	return va.Comparable() && va.Equal(vb)
}

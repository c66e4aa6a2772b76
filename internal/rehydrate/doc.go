// Package rehydrate builds the live state store for a session from a
// persisted snapshot and keeps that snapshot current.
//
// Startup flow:
//
//	KV.Get("redux-state-<id>") -> expire -> DESERIALIZE -> merge(bootstrap wins)
//	  -> Factory.Create -> PersistOnChange -> Future resolved
//
// Persistence is skipped entirely when the persist-redux feature is off, no
// user is authenticated, or the session is an impersonated support session.
// Storage failures never block startup: reads fall back to bootstrap-only
// state and writes are logged and dropped.
//
// Writes are throttled to one per SerializeThrottle window on the trailing
// edge. Controller.Flush forces a pending write and is meant to be called
// from the process's shutdown path, the equivalent of a page unload.
package rehydrate

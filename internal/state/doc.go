// Package state holds the live application state store and the contracts
// around it.
//
// The state package provides the pieces the rehydration controller composes:
// snapshots of the state tree, the reducer that transforms them, and the
// subscribable Store that wraps a reducer and its current snapshot.
//
// Key concepts:
//   - Snapshot: the state tree, keyed by top-level branch
//   - Action: a reducer input; SERIALIZE and DESERIALIZE are lifecycle actions
//   - Reducer: a total function (state, action) -> state
//   - Store: the live, subscribable container; mutated only via Dispatch
//   - Factory: builds a Store from an initial snapshot
package state

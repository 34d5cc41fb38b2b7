// Package store persists layout snapshot baselines, one per source id.
//
// Three implementations share the Store contract:
//   - FileStore: one JSON file per source under a cache directory
//   - DB: SQLite-backed, with an append-only history for comparisons
//   - MemoryStore: in-process map, for tests and degraded mode
//
// Design decision: The original tool wrote snapshots into a single implicit
// cache directory. The explicit Store abstraction is injected into callers
// instead, which enables testing with an in-memory store and supports
// multiple concurrent source identifiers cleanly.
//
// A missing baseline is not an error: Load returns (nil, nil). Failures of
// the storage medium itself wrap ErrUnavailable.
package store

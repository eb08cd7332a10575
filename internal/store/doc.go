// Package store provides SQLite-backed durable storage for build runs.
//
// Each run records:
//   - Runs: deck hash, options, outcome and world size
//   - Operations: the kernel journal, one row per call
//   - Group members: final named groups in member order
//   - Entity names: final named entities in creation order
//
// # Critical Patterns
//
// Logical time: operations are ordered by the journal's seq (logical
// clock), never by timestamps. Runs are ordered by a store-assigned seq.
//
// Deterministic reads: every query has an ORDER BY on a unique key so two
// reads of the same run return identical slices. Replays compare
// journals row-for-row.
//
// Runs are written in one transaction; a run is either fully recorded or
// absent.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store

// Package store provides the SQLite-backed catalog behind the optsql CLI.
//
// The catalog holds:
//   - Sources: table descriptors (id, display name, physical table name)
//   - Saved queries: query options with their compiled SQL
//   - Query sources: which sources each saved query reads from
//
// # Identity
//
// Saved queries get a UUIDv7 id, and a content fingerprint computed by
// internal/canonical. Saving the same option twice returns the existing
// record.
//
// # Ordering
//
// Every list is ordered by a logical seq column, then id COLLATE BINARY,
// so output is identical across runs.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store

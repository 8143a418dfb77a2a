// Package store provides the SQLite audit log behind `ecldeck validate --db`
// and `ecldeck history`.
//
// The log is append-only:
//   - runs: one row per deck parse, successful or not
//   - diagnostics: the warnings and keyword errors of each run
//
// Runs are ordered by seq, a logical counter assigned on insert, never by
// parsed_at. Two runs of the same deck can be compared by digest, which is
// eclipse.State.Digest and ignores formatting.
//
// # Database Configuration
//
//   - WAL mode: history can be read while validate writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: 5 second wait on lock contention
//   - foreign_keys=ON: diagnostics must reference a run
//
// # Schema Migrations
//
// PRAGMA user_version tracks the schema version. Open applies pending
// migrations in order.
package store

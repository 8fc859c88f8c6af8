// Package store provides SQLite-backed run history for the pass pipeline.
//
// Two tables:
//   - pass_runs: one row per pass execution, keyed by (run_id, seq)
//   - graphs: canonical graph JSON keyed by its content hash
//
// Ordering uses the logical seq column, never timestamps, so listing the
// same history twice gives identical results. Writes are idempotent:
// re-recording a step or a graph is a no-op.
//
// Connections run in WAL mode with synchronous=NORMAL and a five second busy
// timeout. The schema is built by numbered migrations; PRAGMA user_version
// records the last one applied.
package store

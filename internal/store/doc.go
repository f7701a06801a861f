// Package store provides a SQLite journal of engine sessions.
//
// The journal is a diagnostic trace. It records the sequence each session
// started from and every transition applied after it, so that a session can
// be printed (jokebox trace) or re-executed to check determinism (jokebox
// replay). Nothing restores record store state from it.
//
// # Tables
//
//   - sessions: one row per engine run, keyed by session token
//   - transitions: one row per applied intent, UNIQUE(session, seq)
//
// # Ordering
//
// All queries order by seq ASC, id ASC COLLATE BINARY. Logical seq is the
// only notion of time; there are no timestamp columns.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Transitions must reference a session
//
// Writes are idempotent: rewriting a session or a transition that is
// already present is a no-op.
package store

// Package store provides SQLite-backed durable storage for causal journals.
//
// A journal is a record of the operations submitted to one engine run
// (a session), plus the events those operations produced:
//   - Sessions: one row per journaled engine run
//   - Operations: register, tick and merge calls in submission order
//   - Events: every tick's event id and captured clock
//
// The engine never reads its state from the store. A session is brought
// back by re-executing its operations (see package journal).
//
// # Critical Patterns
//
// Logical ordering:
//   - All ordering uses seq INTEGER, NEVER timestamps
//   - Queries include ORDER BY seq ASC (and id COLLATE BINARY for ties)
//
// Idempotent writes:
//   - WriteSession uses ON CONFLICT DO NOTHING on every table
//   - Writing the same session twice leaves one copy
//
// Canonical clocks:
//   - Clocks are stored as canonical JSON arrays ([1,0,2])
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait on lock contention
//   - foreign_keys=ON: Operations and events must reference a session
package store

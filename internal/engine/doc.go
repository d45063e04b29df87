// Package engine implements the causal clock engine.
//
// The engine keeps one vector clock per registered replica and an
// append-only log of events, each carrying a snapshot of its replica's
// clock at tick time. Comparing two snapshots tells whether one event
// happened-before the other or whether they are concurrent.
//
// ARCHITECTURE:
//
// Dense dimensions:
// Replicas are assigned dimension indices 0, 1, 2, ... in registration
// order. The replica count only grows.
//
// Lazy extension:
// Registering a replica does not resize any existing vector. A stored
// vector is extended with zeros to the current replica count on its next
// access (tick, merge, clock read). Comparisons treat every position past a
// clock's length as 0, so clocks of different lengths compare correctly.
//
// Check-then-commit:
// Every operation validates all of its preconditions before mutating
// anything. A failed call leaves the engine exactly as it was.
//
// Copies out:
// Every clock handed to a caller or an Observer is a copy. Mutating it never
// affects engine state.
//
// CRITICAL PATTERNS:
//
// Logical nonce:
// Every tick takes the next value from the Sequencer. The nonce makes event
// ids unique within an engine. A Sequencer must not be shared between
// engines.
//
// Determinism:
// No wall clock, no randomness. The same sequence of calls always yields the
// same event ids, clocks and orderings.
package engine

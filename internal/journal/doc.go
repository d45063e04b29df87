// Package journal records engine sessions to a store and replays them.
//
// A Recorder is attached to an engine as its Observer. It buffers every
// committed register, tick and merge in submission order. Commit writes the
// buffer as one session.
//
// Replay re-executes a session's operations on a fresh engine and checks
// that every reproduced result (dimension index, event id, clock) matches
// the recorded one. Because the engine is deterministic, any mismatch means
// the journal was altered or the engine's behavior changed.
package journal

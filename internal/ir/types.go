package ir

import (
	"strconv"
	"strings"
)

// ReplicaID is the opaque identifier a caller chooses for a replica.
// The empty string is the invalid sentinel.
type ReplicaID string

// EventID identifies one tick. See NewEventID for how it is derived.
type EventID string

// Replica is a registered participant and the clock dimension it owns.
type Replica struct {
	ID    ReplicaID `json:"id"`
	Index int       `json:"index"`
}

// Clock is a vector clock: one counter per replica dimension.
//
// A clock may be shorter than the number of registered replicas. Every
// position past its length reads as 0; see At.
type Clock []uint64

// At returns the counter at dimension i, or 0 when i is past the end.
func (c Clock) At(i int) uint64 {
	if i < 0 || i >= len(c) {
		return 0
	}
	return c[i]
}

// Copy returns an independent copy. The result is never nil.
func (c Clock) Copy() Clock {
	out := make(Clock, len(c))
	copy(out, c)
	return out
}

// Padded returns a copy extended with zeros to at least n dimensions.
func (c Clock) Padded(n int) Clock {
	out := make(Clock, max(n, len(c)))
	copy(out, c)
	return out
}

// Sum returns the total of all counters.
func (c Clock) Sum() uint64 {
	var total uint64
	for _, v := range c {
		total += v
	}
	return total
}

// Equal reports whether both clocks read the same at every dimension,
// treating missing trailing entries as 0.
func (c Clock) Equal(other Clock) bool {
	return CompareClocks(c, other) == Equal
}

// String renders the clock as [1,0,2].
func (c Clock) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range c {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatUint(v, 10))
	}
	b.WriteByte(']')
	return b.String()
}

// Event is an immutable record of one tick.
type Event struct {
	ID      EventID   `json:"id"`
	Replica ReplicaID `json:"replica"`

	// Index is the producing replica's dimension.
	Index int `json:"index"`

	// Counter is the producing replica's own slot right after the increment.
	Counter uint64 `json:"counter"`

	// Nonce is the engine-wide sequence number of the tick.
	Nonce int64 `json:"nonce"`

	// Clock is the snapshot taken right after the increment.
	Clock Clock `json:"clock"`
}

// Copy returns the event with an independent clock snapshot.
func (e Event) Copy() Event {
	e.Clock = e.Clock.Copy()
	return e
}

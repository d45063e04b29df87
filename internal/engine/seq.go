package engine

import "sync/atomic"

// Sequencer is the engine-wide monotonic nonce source.
//
// Every tick takes the next value; the nonce feeds the event id, so two
// ticks never share an id even when the replica and counter repeat across
// engines in one journal.
//
// Thread-safety: Sequencer is safe for concurrent use (atomic operations).
// The Engine only calls it while holding its own lock.
type Sequencer struct {
	seq atomic.Int64
}

// NewSequencer creates a sequencer starting at 0.
// The first call to Next returns 1.
func NewSequencer() *Sequencer {
	return &Sequencer{}
}

// NewSequencerAt creates a sequencer starting at a specific value.
func NewSequencerAt(start int64) *Sequencer {
	s := &Sequencer{}
	s.seq.Store(start)
	return s
}

// Next returns the next nonce and advances the sequencer.
// Calls are linearizable - each call returns a unique, increasing value.
func (s *Sequencer) Next() int64 {
	return s.seq.Add(1)
}

// Current returns the last issued nonce without advancing.
func (s *Sequencer) Current() int64 {
	return s.seq.Load()
}

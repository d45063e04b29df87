package journal

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/causal/internal/engine"
	"github.com/roach88/causal/internal/ir"
)

// Writer persists a complete session.
type Writer interface {
	WriteSession(ctx context.Context, sess ir.Session, ops []ir.Operation, events []ir.Event) error
}

// Recorder buffers an engine's committed operations for one session.
//
// Attach it with engine.WithObserver. Only successful calls reach the
// recorder; rejected calls leave no trace in the journal.
//
// Thread-safety: Recorder is safe for concurrent use via internal mutex.
type Recorder struct {
	mu      sync.Mutex
	session ir.Session
	seq     int64
	ops     []ir.Operation
	events  []ir.Event
}

var _ engine.Observer = (*Recorder)(nil)

// NewRecorder starts a session with an id taken from gen.
func NewRecorder(gen SessionIDGenerator) *Recorder {
	return &Recorder{
		session: ir.Session{
			ID:            gen.Generate(),
			EngineVersion: ir.EngineVersion,
			IRVersion:     ir.IRVersion,
		},
	}
}

// Session returns the session being recorded.
func (r *Recorder) Session() ir.Session {
	return r.session
}

// ReplicaRegistered implements engine.Observer.
func (r *Recorder) ReplicaRegistered(rep ir.Replica) {
	r.append(ir.Operation{Kind: ir.OpRegister, Replica: rep.ID, Index: rep.Index})
}

// Ticked implements engine.Observer.
func (r *Recorder) Ticked(ev ir.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev.Copy())
	r.mu.Unlock()

	r.append(ir.Operation{
		Kind:    ir.OpTick,
		Replica: ev.Replica,
		Index:   ev.Index,
		EventID: ev.ID,
		Clock:   ev.Clock.Copy(),
	})
}

// Merged implements engine.Observer.
func (r *Recorder) Merged(a, b ir.ReplicaID, result ir.Clock) {
	r.append(ir.Operation{Kind: ir.OpMerge, Replica: a, Other: b, Clock: result.Copy()})
}

func (r *Recorder) append(op ir.Operation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	op.Seq = r.seq
	r.ops = append(r.ops, op)
}

// Operations returns a copy of the buffered operations in submission order.
func (r *Recorder) Operations() []ir.Operation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ir.Operation, len(r.ops))
	for i, op := range r.ops {
		op.Clock = op.Clock.Copy()
		out[i] = op
	}
	return out
}

// Events returns a copy of the buffered events in tick order.
func (r *Recorder) Events() []ir.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ir.Event, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Copy()
	}
	return out
}

// Commit writes the buffered session. Committing again writes nothing new
// for operations already stored; later operations are appended.
func (r *Recorder) Commit(ctx context.Context, w Writer) (ir.Session, error) {
	ops := r.Operations()
	events := r.Events()
	if err := w.WriteSession(ctx, r.session, ops, events); err != nil {
		return ir.Session{}, fmt.Errorf("commit session %s: %w", r.session.ID, err)
	}
	return r.session, nil
}

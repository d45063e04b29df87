package journal

import (
	"context"
	"fmt"
	"strconv"

	"github.com/roach88/causal/internal/engine"
	"github.com/roach88/causal/internal/ir"
)

// Reader loads a recorded session.
type Reader interface {
	ReadSession(ctx context.Context, id string) (ir.Session, error)
	ReadOperations(ctx context.Context, sessionID string) ([]ir.Operation, error)
	ReadEvents(ctx context.Context, sessionID string, replica ir.ReplicaID) ([]ir.Event, error)
}

// Mismatch is one difference between a recorded and a reproduced result.
type Mismatch struct {
	Seq      int64  `json:"seq"`
	Field    string `json:"field"`
	Expected string `json:"expected"`
	Got      string `json:"got"`
}

// String implements fmt.Stringer.
func (m Mismatch) String() string {
	return fmt.Sprintf("seq %d: %s: expected %s, got %s", m.Seq, m.Field, m.Expected, m.Got)
}

// Report summarizes a replay.
type Report struct {
	Session       ir.Session `json:"session"`
	Operations    int        `json:"operations"`
	Events        int        `json:"events"`
	Deterministic bool       `json:"deterministic"`
	Mismatches    []Mismatch `json:"mismatches"`
}

func (r *Report) mismatch(seq int64, field, expected, got string) {
	r.Mismatches = append(r.Mismatches, Mismatch{Seq: seq, Field: field, Expected: expected, Got: got})
}

// Replay re-executes a recorded session on a fresh engine built with opts
// and verifies every reproduced result against the journal.
//
// Returns the rebuilt engine so callers can query it. An error is returned
// only when the session cannot be read; divergence is reported in the
// Report, not as an error.
func Replay(ctx context.Context, r Reader, sessionID string, opts ...engine.Option) (*engine.Engine, *Report, error) {
	sess, err := r.ReadSession(ctx, sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("replay %s: %w", sessionID, err)
	}
	ops, err := r.ReadOperations(ctx, sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("replay %s: %w", sessionID, err)
	}
	events, err := r.ReadEvents(ctx, sessionID, "")
	if err != nil {
		return nil, nil, fmt.Errorf("replay %s: %w", sessionID, err)
	}

	eng := engine.New(opts...)
	report := &Report{
		Session:    sess,
		Operations: len(ops),
		Events:     len(events),
		Mismatches: []Mismatch{},
	}

	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			return nil, nil, fmt.Errorf("replay %s: %w", sessionID, err)
		}
		applyOperation(eng, op, report)
	}

	// Every stored event must exist with the stored clock.
	for _, rec := range events {
		got, err := eng.Event(rec.ID)
		if err != nil {
			report.mismatch(0, "event "+string(rec.ID), rec.Clock.String(), string(engine.CodeOf(err)))
			continue
		}
		if !clocksIdentical(rec.Clock, got.Clock) {
			report.mismatch(0, "event "+string(rec.ID), rec.Clock.String(), got.Clock.String())
		}
	}

	if n := len(eng.Events()); n != len(events) {
		report.mismatch(0, "event_count", strconv.Itoa(len(events)), strconv.Itoa(n))
	}

	report.Deterministic = len(report.Mismatches) == 0
	return eng, report, nil
}

func applyOperation(eng *engine.Engine, op ir.Operation, report *Report) {
	switch op.Kind {
	case ir.OpRegister:
		idx, err := eng.RegisterReplica(op.Replica)
		if err != nil {
			report.mismatch(op.Seq, "register", "ok", err.Error())
			return
		}
		if idx != op.Index {
			report.mismatch(op.Seq, "index", strconv.Itoa(op.Index), strconv.Itoa(idx))
		}

	case ir.OpTick:
		ev, err := eng.Tick(op.Replica)
		if err != nil {
			report.mismatch(op.Seq, "tick", "ok", err.Error())
			return
		}
		if ev.ID != op.EventID {
			report.mismatch(op.Seq, "event_id", string(op.EventID), string(ev.ID))
		}
		if !clocksIdentical(op.Clock, ev.Clock) {
			report.mismatch(op.Seq, "clock", op.Clock.String(), ev.Clock.String())
		}

	case ir.OpMerge:
		c, err := eng.Merge(op.Replica, op.Other)
		if err != nil {
			report.mismatch(op.Seq, "merge", "ok", err.Error())
			return
		}
		if !clocksIdentical(op.Clock, c) {
			report.mismatch(op.Seq, "clock", op.Clock.String(), c.String())
		}

	default:
		report.mismatch(op.Seq, "kind", "register|tick|merge", string(op.Kind))
	}
}

// clocksIdentical compares stored lengths too: a replayed tick must capture
// exactly as many dimensions as the original did.
func clocksIdentical(a, b ir.Clock) bool {
	return len(a) == len(b) && a.Equal(b)
}

package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/causal/internal/engine"
	"github.com/roach88/causal/internal/ir"
	"github.com/roach88/causal/internal/journal"
	"github.com/roach88/causal/internal/store"
	"github.com/roach88/causal/internal/testutil"
	"github.com/roach88/causal/internal/topology"
)

// Harness executes one scenario against one engine.
type Harness struct {
	engine  *engine.Engine
	aliases map[string]ir.EventID
	logger  *slog.Logger
}

// Run executes a scenario on a fresh engine and returns the result.
//
// Execution flow:
// 1. Create an engine with a journal recorder and a discarding logger
// 2. Register the topology's replicas, if any
// 3. Execute steps, checking expect clauses
// 4. Evaluate assertions
// 5. Commit the journal to an in-memory store and replay it; a replay
// mismatch fails the scenario
func Run(scenario *Scenario) (*Result, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rec := journal.NewRecorder(testutil.NewFixedSessionGenerator(scenario.Session))
	eng := engine.New(engine.WithLogger(logger), engine.WithObserver(rec))

	result, err := RunWith(eng, scenario)
	if err != nil {
		return nil, err
	}
	result.Session = rec.Session().ID

	if err := verifyJournal(rec, result, logger); err != nil {
		return nil, err
	}
	return result, nil
}

// RunWith executes a scenario on a caller-supplied engine. The engine may
// already have replicas; the topology and steps are applied on top.
func RunWith(eng *engine.Engine, scenario *Scenario) (*Result, error) {
	h := &Harness{
		engine:  eng,
		aliases: make(map[string]ir.EventID),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	if scenario.Topology != "" {
		topo, err := topology.Load(scenario.Topology)
		if err != nil {
			return nil, fmt.Errorf("failed to load topology: %w", err)
		}
		if _, err := topo.Apply(eng); err != nil {
			return nil, fmt.Errorf("failed to apply topology: %w", err)
		}
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		h.executeStep(i, step, result)
	}

	for _, msg := range EvaluateAssertions(eng, h.aliases, scenario.Assertions, result.Trace) {
		result.AddError(msg)
	}

	return result, nil
}

// verifyJournal commits the recorded session to a throwaway store and
// replays it.
func verifyJournal(rec *journal.Recorder, result *Result, logger *slog.Logger) error {
	st, err := store.Open(":memory:")
	if err != nil {
		return fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	sess, err := rec.Commit(ctx, st)
	if err != nil {
		return fmt.Errorf("failed to journal scenario: %w", err)
	}

	_, report, err := journal.Replay(ctx, st, sess.ID, engine.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to replay scenario: %w", err)
	}
	for _, m := range report.Mismatches {
		result.AddError("replay: " + m.String())
	}
	return nil
}

// resolve maps an alias to its event id; anything else is taken as a raw
// event id.
func (h *Harness) resolve(ref string) ir.EventID {
	if id, ok := h.aliases[ref]; ok {
		return id
	}
	return ir.EventID(ref)
}

// executeStep runs one step, records it in the trace and checks its
// expect clause.
func (h *Harness) executeStep(i int, step Step, result *Result) {
	ev := TraceEvent{
		Step:    i,
		Op:      step.Op,
		Replica: step.Replica,
		From:    step.From,
		A:       step.A,
		B:       step.B,
		Event:   step.Event,
		Alias:   step.As,
	}

	var err error
	switch step.Op {
	case OpRegister:
		var idx int
		idx, err = h.engine.RegisterReplica(ir.ReplicaID(step.Replica))
		if err == nil {
			ev.Index = &idx
		}

	case OpTick:
		var e ir.Event
		e, err = h.engine.Tick(ir.ReplicaID(step.Replica))
		if err == nil {
			ev.EventID = e.ID
			ev.Clock = e.Clock
			if step.As != "" {
				h.aliases[step.As] = e.ID
			}
		}

	case OpMerge:
		ev.Clock, err = h.engine.Merge(ir.ReplicaID(step.Replica), ir.ReplicaID(step.From))

	case OpCompare:
		ev.Ordering, err = h.engine.Compare(h.resolve(step.A), h.resolve(step.B))

	case OpDominates:
		var dom bool
		dom, err = h.engine.Dominates(h.resolve(step.A), h.resolve(step.B))
		if err == nil {
			ev.Result = &dom
		}

	case OpClock:
		ev.Clock, err = h.engine.Clock(ir.ReplicaID(step.Replica))

	case OpEventClock:
		ev.Clock, err = h.engine.EventClock(h.resolve(step.Event))

	case OpReplicaCount:
		n := h.engine.ReplicaCount()
		ev.Count = &n

	default:
		err = fmt.Errorf("unknown op %q", step.Op)
	}

	if err != nil {
		ev.Error = errorCode(err)
	}
	result.Trace = append(result.Trace, ev)

	for _, msg := range checkExpect(i, step, ev) {
		result.AddError(msg)
	}

	h.logger.Debug("step executed", "step", i, "op", step.Op, "error", ev.Error)
}

// errorCode renders an engine error as its code, anything else verbatim.
func errorCode(err error) string {
	if code := engine.CodeOf(err); code != "" {
		return string(code)
	}
	return err.Error()
}

// checkExpect compares a traced step against its expect clause.
func checkExpect(i int, step Step, ev TraceEvent) []string {
	var errs []string
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf("steps[%d] %s: ", i, step.Op)+fmt.Sprintf(format, args...))
	}

	exp := step.Expect
	if exp == nil {
		if ev.Error != "" {
			fail("unexpected error %s", ev.Error)
		}
		return errs
	}

	if exp.Error != "" {
		if ev.Error != exp.Error {
			fail("expected error %s, got %q", exp.Error, ev.Error)
		}
		return errs
	}
	if ev.Error != "" {
		fail("unexpected error %s", ev.Error)
		return errs
	}

	if exp.Index != nil && (ev.Index == nil || *ev.Index != *exp.Index) {
		fail("expected index %d, got %s", *exp.Index, fmtIntPtr(ev.Index))
	}
	if exp.Clock != nil && !slices.Equal([]uint64(ev.Clock), exp.Clock) {
		fail("expected clock %s, got %s", ir.Clock(exp.Clock), ev.Clock)
	}
	if exp.Ordering != "" && string(ev.Ordering) != exp.Ordering {
		fail("expected ordering %s, got %q", exp.Ordering, ev.Ordering)
	}
	if exp.Result != nil && (ev.Result == nil || *ev.Result != *exp.Result) {
		fail("expected result %t, got %s", *exp.Result, fmtBoolPtr(ev.Result))
	}
	if exp.Count != nil && (ev.Count == nil || *ev.Count != *exp.Count) {
		fail("expected count %d, got %s", *exp.Count, fmtIntPtr(ev.Count))
	}
	return errs
}

func fmtIntPtr(p *int) string {
	if p == nil {
		return "none"
	}
	return fmt.Sprint(*p)
}

func fmtBoolPtr(p *bool) string {
	if p == nil {
		return "none"
	}
	return fmt.Sprint(*p)
}

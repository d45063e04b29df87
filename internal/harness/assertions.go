package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/causal/internal/engine"
	"github.com/roach88/causal/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes the trace to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, ev := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s", ev.Step, ev.Op)
		if ev.Replica != "" {
			fmt.Fprintf(&buf, " %s", ev.Replica)
		}
		if ev.Clock != nil {
			fmt.Fprintf(&buf, " %s", ev.Clock)
		}
		if ev.Error != "" {
			fmt.Fprintf(&buf, " error=%s", ev.Error)
		}
		buf.WriteByte('\n')
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion against the engine's final
// state and returns one message per failure.
func EvaluateAssertions(eng *engine.Engine, aliases map[string]ir.EventID, assertions []Assertion, trace []TraceEvent) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(eng, aliases, a, trace); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(eng *engine.Engine, aliases map[string]ir.EventID, a Assertion, trace []TraceEvent) error {
	switch a.Type {
	case AssertFinalClock:
		return assertFinalClock(eng, a, trace)
	case AssertReplicaCount:
		return assertCount(a, eng.ReplicaCount(), trace)
	case AssertEventCount:
		return assertCount(a, len(eng.Events()), trace)
	case AssertOrdering:
		return assertOrdering(eng, aliases, a, trace)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

// assertFinalClock compares a replica's clock, extended to the current
// replica count, with the expected values padded the same way.
func assertFinalClock(eng *engine.Engine, a Assertion, trace []TraceEvent) error {
	got, err := eng.Clock(ir.ReplicaID(a.Replica))
	if err != nil {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("clock of %s = %s", a.Replica, ir.Clock(a.Clock)),
			Actual:   errorCode(err),
			Trace:    trace,
		}
	}

	want := ir.Clock(a.Clock).Padded(len(got))
	if len(want) != len(got) || !want.Equal(got) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("clock of %s = %s", a.Replica, want),
			Actual:   got.String(),
			Trace:    trace,
		}
	}
	return nil
}

func assertCount(a Assertion, got int, trace []TraceEvent) error {
	if got != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprint(a.Count),
			Actual:   fmt.Sprint(got),
			Trace:    trace,
		}
	}
	return nil
}

func assertOrdering(eng *engine.Engine, aliases map[string]ir.EventID, a Assertion, trace []TraceEvent) error {
	resolve := func(ref string) ir.EventID {
		if id, ok := aliases[ref]; ok {
			return id
		}
		return ir.EventID(ref)
	}

	got, err := eng.Compare(resolve(a.A), resolve(a.B))
	actual := string(got)
	if err != nil {
		actual = errorCode(err)
	}
	if err != nil || string(got) != a.Ordering {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s %s %s", a.A, a.Ordering, a.B),
			Actual:   actual,
			Trace:    trace,
		}
	}
	return nil
}

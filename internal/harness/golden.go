package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/causal/internal/ir"
)

// goldenDir holds the trace fixtures, relative to the package under test.
const goldenDir = "testdata/golden"

// MarshalTrace renders a result's trace as canonical JSON:
//
//	{"scenario_name": ..., "trace": [{"op": ..., "step": ...}, ...]}
//
// Fields a step did not set are left out, so the output only changes when
// the observable behavior of the run does.
func MarshalTrace(scenarioName string, result *Result) ([]byte, error) {
	entries := make([]any, 0, len(result.Trace))
	for _, ev := range result.Trace {
		entries = append(entries, traceEntry(ev))
	}
	return ir.MarshalCanonical(map[string]any{
		"scenario_name": scenarioName,
		"trace":         entries,
	})
}

func traceEntry(ev TraceEvent) map[string]any {
	entry := map[string]any{"step": ev.Step, "op": ev.Op}
	setString := func(key, val string) {
		if val != "" {
			entry[key] = val
		}
	}
	setString("replica", ev.Replica)
	setString("from", ev.From)
	setString("a", ev.A)
	setString("b", ev.B)
	setString("event", ev.Event)
	setString("alias", ev.Alias)
	setString("event_id", string(ev.EventID))
	setString("ordering", string(ev.Ordering))
	setString("error", ev.Error)

	if ev.Index != nil {
		entry["index"] = *ev.Index
	}
	if ev.Clock != nil {
		entry["clock"] = ev.Clock
	}
	if ev.Result != nil {
		entry["result"] = *ev.Result
	}
	if ev.Count != nil {
		entry["count"] = *ev.Count
	}
	return entry
}

// RunWithGolden runs scenario and checks its trace against
// testdata/golden/<name>.golden. Pass -update to rewrite the fixture.
// A mismatch fails t; only execution errors are returned.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden checks an existing result's trace against its fixture.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	trace, err := MarshalTrace(scenarioName, result)
	if err != nil {
		return err
	}
	goldie.New(t,
		goldie.WithFixtureDir(goldenDir),
		goldie.WithNameSuffix(".golden"),
	).Assert(t, scenarioName, trace)
	return nil
}

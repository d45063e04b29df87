package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/causal/internal/engine"
	"github.com/roach88/causal/internal/ir"
	"github.com/roach88/causal/internal/testutil"
)

func intPtr(n int) *int    { return &n }
func boolPtr(b bool) *bool { return &b }

func TestRun_MinimalScenario(t *testing.T) {
	scenario := &Scenario{
		Name:        "minimal",
		Description: "One replica, one tick",
		Steps: []Step{
			{Op: OpRegister, Replica: "r1", Expect: &Expect{Index: intPtr(0)}},
			{Op: OpTick, Replica: "r1", As: "e1", Expect: &Expect{Clock: []uint64{1}}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Trace, 2)
	assert.Equal(t, ir.MustEventID("r1", 1, 1), result.Trace[1].EventID)
	assert.Equal(t, testutil.DefaultSessionID, result.Session)
}

func TestRun_ExpectMismatch(t *testing.T) {
	scenario := &Scenario{
		Name:        "mismatch",
		Description: "Wrong expectations fail the run",
		Steps: []Step{
			{Op: OpRegister, Replica: "r1", Expect: &Expect{Index: intPtr(5)}},
			{Op: OpTick, Replica: "r1", As: "e1", Expect: &Expect{Clock: []uint64{2}}},
			{Op: OpDominates, A: "e1", B: "e1", Expect: &Expect{Result: boolPtr(true)}},
			{Op: OpCompare, A: "e1", B: "e1", Expect: &Expect{Ordering: "before"}},
			{Op: OpReplicaCount, Expect: &Expect{Count: intPtr(2)}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 5)
	assert.Contains(t, result.Errors[0], "expected index 5, got 0")
	assert.Contains(t, result.Errors[1], "expected clock [2], got [1]")
	assert.Contains(t, result.Errors[2], "expected result true, got false")
	assert.Contains(t, result.Errors[3], "expected ordering before")
	assert.Contains(t, result.Errors[4], "expected count 2, got 1")
}

func TestRun_UnexpectedError(t *testing.T) {
	scenario := &Scenario{
		Name:        "unexpected",
		Description: "A failing call without an error expectation fails the run",
		Steps: []Step{
			{Op: OpTick, Replica: "ghost"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "unexpected error NOT_REGISTERED")
}

func TestRun_ExpectedErrorNotRaised(t *testing.T) {
	scenario := &Scenario{
		Name:        "no_error",
		Description: "An expected error that does not happen fails the run",
		Steps: []Step{
			{Op: OpRegister, Replica: "r1", Expect: &Expect{Error: "ALREADY_REGISTERED"}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "expected error ALREADY_REGISTERED")
}

func TestRun_AliasFallsBackToRawID(t *testing.T) {
	raw := string(ir.MustEventID("r1", 1, 1))
	scenario := &Scenario{
		Name:        "raw_ids",
		Description: "Steps may name events by id",
		Steps: []Step{
			{Op: OpRegister, Replica: "r1"},
			{Op: OpTick, Replica: "r1"},
			{Op: OpEventClock, Event: raw, Expect: &Expect{Clock: []uint64{1}}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRunWith_ExistingEngine(t *testing.T) {
	eng := engine.New()
	_, err := eng.RegisterReplica("pre")
	require.NoError(t, err)

	scenario := &Scenario{
		Name:        "existing",
		Description: "Steps run on top of existing state",
		Steps: []Step{
			{Op: OpRegister, Replica: "r1", Expect: &Expect{Index: intPtr(1)}},
		},
		Assertions: []Assertion{
			{Type: AssertReplicaCount, Count: 2},
		},
	}

	result, err := RunWith(eng, scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Session)
}

func TestRun_Topology(t *testing.T) {
	scenario := &Scenario{
		Name:        "topology",
		Description: "Topology replicas are registered before the steps",
		Topology:    filepath.Join("testdata", "topologies", "three_sites.cue"),
		Steps: []Step{
			{Op: OpReplicaCount, Expect: &Expect{Count: intPtr(3)}},
			{Op: OpTick, Replica: "site-west", Expect: &Expect{Clock: []uint64{0, 0, 1}}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_TopologyMissing(t *testing.T) {
	scenario := &Scenario{
		Name:        "bad_topology",
		Description: "Missing topology files abort the run",
		Topology:    filepath.Join(t.TempDir(), "nope.cue"),
		Steps:       []Step{{Op: OpReplicaCount}},
	}

	_, err := Run(scenario)
	assert.Error(t, err)
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "two_replicas.yaml"))
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, first.Trace, second.Trace)
}

func TestRun_ScenarioFiles(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

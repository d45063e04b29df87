package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/causal/internal/harness"
	"github.com/roach88/causal/internal/ir"
	"github.com/roach88/causal/internal/store"
)

func TestRunCommand_MissingArgs(t *testing.T) {
	_, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestRunCommand_PrintsTrace(t *testing.T) {
	out, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}), twoReplicasScenario)
	require.NoError(t, err)

	assert.Contains(t, out, "Scenario: two_replicas")
	assert.Contains(t, out, "[0] register r1 index=0")
	assert.Contains(t, out, "[2] tick r1 as=e1 id=ef8ba4625a57 clock=[1,0]")
	assert.Contains(t, out, "[5] merge r1 from=r2 clock=[1,1]")
	assert.Contains(t, out, "[4] compare a=e1 b=e2 ordering=concurrent")
	assert.Contains(t, out, "✓ two_replicas passed")
	assert.NotContains(t, out, "Session:")
}

func TestRunCommand_ReportsErrorsInTrace(t *testing.T) {
	out, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}), rejectionsScenario)
	require.NoError(t, err)
	assert.Contains(t, out, "[1] register a error=ALREADY_REGISTERED")
	assert.Contains(t, out, "[8] event_clock event=missing error=EVENT_NOT_FOUND")
}

func TestRunCommand_JSON(t *testing.T) {
	out, err := execute(t, NewRunCommand(&RootOptions{Format: "json"}), twoReplicasScenario)
	require.NoError(t, err)

	var resp struct {
		Status string    `json:"status"`
		Data   RunResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "two_replicas", resp.Data.Scenario)
	assert.True(t, resp.Data.Pass)
	require.Len(t, resp.Data.Trace, 11)
	assert.Equal(t, ir.EventID(e3ID), resp.Data.Trace[6].EventID)
	assert.Equal(t, ir.Clock{2, 1}, resp.Data.Trace[6].Clock)
}

func TestRunCommand_FailingScenario(t *testing.T) {
	path := writeFile(t, t.TempDir(), "failing.yaml", failingScenario)

	out, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}), path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ failing failed")
	assert.Contains(t, out, "steps[1] tick: expected clock [2], got [1]")
}

func TestRunCommand_FailingScenarioJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "failing.yaml", failingScenario)

	out, err := execute(t, NewRunCommand(&RootOptions{Format: "json"}), path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string    `json:"status"`
		Data   RunResult `json:"data"`
		Error  *CLIError `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Pass)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeFailed, resp.Error.Code)
}

func TestRunCommand_InvalidScenario(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.yaml", "name: bad\n")

	out, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}), path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E003]")
	assert.Contains(t, out, "description is required")
}

func TestRunCommand_JournalsToDatabase(t *testing.T) {
	dbPath := journalScenario(t, twoReplicasScenario, "session-a")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	sess, err := st.ReadSession(ctx, "session-a")
	require.NoError(t, err)
	assert.Equal(t, ir.IRVersion, sess.IRVersion)

	ops, err := st.ReadOperations(ctx, "session-a")
	require.NoError(t, err)
	// 2 registers, 3 ticks, 1 merge
	assert.Len(t, ops, 6)

	events, err := st.ReadEvents(ctx, "session-a", "")
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, ir.EventID(e1ID), events[0].ID)
	assert.Equal(t, ir.EventID(e2ID), events[1].ID)
	assert.Equal(t, ir.EventID(e3ID), events[2].ID)
}

func TestRunCommand_PrintsSession(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "causal.db")

	out, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}), twoReplicasScenario, "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Session: ")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()
	sessions, err := st.ListSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Contains(t, out, "Session: "+sessions[0].ID)
}

func TestRunCommand_Metrics(t *testing.T) {
	out, err := execute(t, NewRunCommand(&RootOptions{Format: "json"}), twoReplicasScenario, "--metrics")
	require.NoError(t, err)

	var resp struct {
		Data RunResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, map[string]float64{
		"causal_replicas":     2,
		"causal_events_total": 3,
		"causal_merges_total": 1,
	}, resp.Data.Metrics)
}

func TestRunCommand_MetricsText(t *testing.T) {
	out, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}), rejectionsScenario, "--metrics")
	require.NoError(t, err)
	assert.Contains(t, out, "Metrics:")
	assert.Contains(t, out, "  causal_events_total 1")
	assert.Contains(t, out, `  causal_failures_total{code="ALREADY_REGISTERED"} 1`)
}

func TestFormatTraceEvent(t *testing.T) {
	idx := 3
	res := false
	count := 4

	tests := []struct {
		name string
		ev   harness.TraceEvent
		want string
	}{
		{"register", harness.TraceEvent{Step: 0, Op: "register", Replica: "edge", Index: &idx}, "[0] register edge index=3"},
		{"dominates", harness.TraceEvent{Step: 9, Op: "dominates", A: "e3", B: "e3", Result: &res}, "[9] dominates a=e3 b=e3 result=false"},
		{"count", harness.TraceEvent{Step: 2, Op: "replica_count", Count: &count}, "[2] replica_count count=4"},
		{"error", harness.TraceEvent{Step: 1, Op: "tick", Replica: "ghost", Error: "NOT_REGISTERED"}, "[1] tick ghost error=NOT_REGISTERED"},
		{"empty clock", harness.TraceEvent{Step: 5, Op: "clock", Replica: "b", Clock: ir.Clock{}}, "[5] clock b clock=[]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatTraceEvent(tt.ev))
		})
	}
}

package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/causal/internal/journal"
)

const (
	scenariosDir        = "../harness/testdata/scenarios"
	goldenDir           = "../harness/testdata/golden"
	twoReplicasScenario = "../harness/testdata/scenarios/two_replicas.yaml"
	rejectionsScenario  = "../harness/testdata/scenarios/rejections.yaml"
	threeSitesTopology  = "../harness/testdata/topologies/three_sites.cue"

	// Event ids produced by two_replicas.yaml on a fresh engine.
	e1ID = "ef8ba4625a5777fb0f5736fa487d5dd5122afc9ce273148edfccec26015852f1"
	e2ID = "d4490e1c380ee357b8f59d59773f4894a430504525cc447d690ed6ee3fc39589"
	e3ID = "6f26e517df8455bf8cc80dc32bf88bf772248e49d5425417731b675b8c4dca70"
)

// execute runs cmd with args and returns its stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// journalScenario runs a scenario file with --db and a fixed session id and
// returns the database path.
func journalScenario(t *testing.T, scenario string, sessions ...string) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "causal.db")
	for _, session := range sessions {
		opts := &RunOptions{
			RootOptions:      &RootOptions{Format: "text"},
			Database:         dbPath,
			SessionGenerator: journal.NewFixedGenerator(session),
		}
		cmd := &cobra.Command{}
		cmd.SetOut(io.Discard)
		cmd.SetErr(io.Discard)
		require.NoError(t, runScenarioFile(opts, scenario, cmd))
	}
	return dbPath
}

// writeFile writes content to name under dir and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const failingScenario = `name: failing
description: Expects the wrong clock
steps:
  - op: register
    replica: a
  - op: tick
    replica: a
    expect: { clock: [2] }
`

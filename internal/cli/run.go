package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/causal/internal/engine"
	"github.com/roach88/causal/internal/harness"
	"github.com/roach88/causal/internal/journal"
	"github.com/roach88/causal/internal/metrics"
	"github.com/roach88/causal/internal/store"
)

// metricsNamespace prefixes every metric printed by run --metrics.
const metricsNamespace = "causal"

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Metrics  bool

	// SessionGenerator overrides the journal session id generator (for
	// testing). If nil, defaults to journal.UUIDv7Generator.
	SessionGenerator journal.SessionIDGenerator
}

// RunResult is the output of the run command.
type RunResult struct {
	Scenario string               `json:"scenario"`
	Pass     bool                 `json:"pass"`
	Trace    []harness.TraceEvent `json:"trace"`
	Errors   []string             `json:"errors,omitempty"`
	Session  string               `json:"session,omitempty"`
	Metrics  map[string]float64   `json:"metrics,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario>",
		Short: "Run a scenario and print its trace",
		Long: `Run a single scenario file against a fresh engine and print the
step-by-step trace.

With --db the run is journaled as a new session (UUIDv7 id) that can later
be inspected with trace, compare and replay. With --metrics the engine
counters are printed after the trace.

Exit codes:
  0 - Scenario passed
  1 - Scenario failed (expectation or assertion did not hold)
  2 - Command error (invalid scenario, database error, etc.)

Examples:
  causal run ./scenarios/two_replicas.yaml
  causal run ./scenarios/two_replicas.yaml --db ./causal.db
  causal run ./scenarios/two_replicas.yaml --metrics --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioFile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "journal the run to this SQLite database")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "print engine metrics after the run")

	return cmd
}

func runScenarioFile(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := formatter.Logger()

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeInvalidFile, "failed to load scenario", err)
	}
	formatter.VerboseLog("loaded scenario %s (%d steps)", scenario.Name, len(scenario.Steps))

	gen := opts.SessionGenerator
	if gen == nil {
		gen = journal.UUIDv7Generator{}
	}
	rec := journal.NewRecorder(gen)
	eng := engine.New(engine.WithLogger(logger), engine.WithObserver(rec))

	result, err := harness.RunWith(eng, scenario)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeGeneric, "failed to run scenario", err)
	}

	out := RunResult{
		Scenario: scenario.Name,
		Pass:     result.Pass,
		Trace:    result.Trace,
		Errors:   result.Errors,
	}

	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
		}
		defer st.Close()

		sess, err := rec.Commit(commandContext(cmd), st)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeStore, "failed to journal run", err)
		}
		out.Session = sess.ID
		logger.Debug("journaled run", "session", sess.ID, "db", opts.Database)
	}

	if opts.Metrics {
		out.Metrics, err = gatherMetrics(eng)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeGeneric, "failed to gather metrics", err)
		}
	}

	if formatter.IsJSON() {
		if !out.Pass {
			if err := formatter.Failure(ErrCodeFailed, "scenario failed", out); err != nil {
				return err
			}
			return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", out.Scenario))
		}
		return formatter.Success(out)
	}

	printRunText(formatter, out)
	if !out.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", out.Scenario))
	}
	return nil
}

func printRunText(f *OutputFormatter, out RunResult) {
	f.Printf("Scenario: %s", out.Scenario)
	for _, ev := range out.Trace {
		f.Printf("  %s", formatTraceEvent(ev))
	}
	if out.Session != "" {
		f.Printf("Session: %s", out.Session)
	}
	if len(out.Metrics) > 0 {
		f.Printf("Metrics:")
		names := make([]string, 0, len(out.Metrics))
		for name := range out.Metrics {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			f.Printf("  %s %g", name, out.Metrics[name])
		}
	}
	if out.Pass {
		f.Printf("✓ %s passed", out.Scenario)
		return
	}
	f.Printf("✗ %s failed", out.Scenario)
	for _, e := range out.Errors {
		f.Printf("  %s", e)
	}
}

// formatTraceEvent renders one trace entry as a single line, e.g.
// "[2] tick r1 as=e1 id=3f2a9c01d4e5 clock=[1,0]".
func formatTraceEvent(ev harness.TraceEvent) string {
	parts := []string{fmt.Sprintf("[%d] %s", ev.Step, ev.Op)}
	if ev.Replica != "" {
		parts = append(parts, ev.Replica)
	}
	if ev.From != "" {
		parts = append(parts, "from="+ev.From)
	}
	if ev.A != "" {
		parts = append(parts, "a="+ev.A)
	}
	if ev.B != "" {
		parts = append(parts, "b="+ev.B)
	}
	if ev.Event != "" {
		parts = append(parts, "event="+ev.Event)
	}
	if ev.Alias != "" {
		parts = append(parts, "as="+ev.Alias)
	}
	if ev.EventID != "" {
		parts = append(parts, "id="+shortID(string(ev.EventID)))
	}
	if ev.Index != nil {
		parts = append(parts, fmt.Sprintf("index=%d", *ev.Index))
	}
	if ev.Clock != nil {
		parts = append(parts, "clock="+ev.Clock.String())
	}
	if ev.Ordering != "" {
		parts = append(parts, "ordering="+ev.Ordering.String())
	}
	if ev.Result != nil {
		parts = append(parts, fmt.Sprintf("result=%t", *ev.Result))
	}
	if ev.Count != nil {
		parts = append(parts, fmt.Sprintf("count=%d", *ev.Count))
	}
	if ev.Error != "" {
		parts = append(parts, "error="+ev.Error)
	}
	return strings.Join(parts, " ")
}

// shortID abbreviates an event id for text output.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// gatherMetrics collects the engine counters through a private registry and
// flattens them to "name{label=\"v\"}" keys.
func gatherMetrics(src metrics.StatsSource) (map[string]float64, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(metrics.NewCollector(src, metricsNamespace)); err != nil {
		return nil, err
	}
	families, err := reg.Gather()
	if err != nil {
		return nil, err
	}

	out := make(map[string]float64)
	for _, family := range families {
		for _, m := range family.GetMetric() {
			name := family.GetName()
			if labels := m.GetLabel(); len(labels) > 0 {
				pairs := make([]string, len(labels))
				for i, l := range labels {
					pairs[i] = fmt.Sprintf("%s=%q", l.GetName(), l.GetValue())
				}
				name += "{" + strings.Join(pairs, ",") + "}"
			}
			switch {
			case m.GetGauge() != nil:
				out[name] = m.GetGauge().GetValue()
			case m.GetCounter() != nil:
				out[name] = m.GetCounter().GetValue()
			}
		}
	}
	return out, nil
}

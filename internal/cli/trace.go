package cli

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/causal/internal/ir"
)

// Trace orders.
const (
	OrderSeq    = "seq"
	OrderCausal = "causal"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Session  string
	Replica  string // optional - filter to one replica's events
	Causal   bool   // order by happens-before instead of journal seq
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Session string     `json:"session"`
	Replica string     `json:"replica,omitempty"`
	Order   string     `json:"order"`
	Events  []ir.Event `json:"events"`
	Stats   TraceStats `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	TotalEvents int            `json:"total_events"`
	PerReplica  map[string]int `json:"per_replica"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "List the events of a journaled session",
		Long: `List the events recorded in a journaled session.

By default events are listed in journal order. With --causal they are
listed in a causally consistent total order: every event appears after
all events that happened before it, and concurrent events are ordered
deterministically by clock.

Examples:
  causal trace --db ./causal.db --session <id>
  causal trace --db ./causal.db --session <id> --replica r1
  causal trace --db ./causal.db --session <id> --causal --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session id (required)")
	cmd.Flags().StringVar(&opts.Replica, "replica", "", "only show events created by this replica")
	cmd.Flags().BoolVar(&opts.Causal, "causal", false, "order events by happens-before")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := commandContext(cmd)

	st, err := openJournal(opts.Database)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer st.Close()

	if _, err := st.ReadSession(ctx, opts.Session); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return formatter.fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("session not found: %s", opts.Session), nil)
		}
		return formatter.fail(ExitCommandError, ErrCodeStore, "failed to read session", err)
	}

	events, err := st.ReadEvents(ctx, opts.Session, ir.ReplicaID(opts.Replica))
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStore, "failed to read events", err)
	}

	result := TraceResult{
		Session: opts.Session,
		Replica: opts.Replica,
		Order:   OrderSeq,
		Events:  events,
		Stats: TraceStats{
			TotalEvents: len(events),
			PerReplica:  make(map[string]int),
		},
	}
	if opts.Causal {
		ir.SortCausal(result.Events)
		result.Order = OrderCausal
	}
	for _, ev := range events {
		result.Stats.PerReplica[string(ev.Replica)]++
	}

	if formatter.IsJSON() {
		return formatter.Success(result)
	}

	formatter.Printf("Session: %s (%s order)", result.Session, result.Order)
	if len(result.Events) == 0 {
		formatter.Printf("No events found.")
		return nil
	}
	for i, ev := range result.Events {
		formatter.Printf("  %3d  %s  %-12s counter=%d clock=%s", i+1, shortID(string(ev.ID)), ev.Replica, ev.Counter, ev.Clock)
	}
	formatter.Printf("Total: %d event(s)", result.Stats.TotalEvents)
	return nil
}

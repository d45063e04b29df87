package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/causal/internal/engine"
	"github.com/roach88/causal/internal/journal"
	"github.com/roach88/causal/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Session  string // optional - specific session only
}

// ReplaySessionResult holds the replay result for a single session.
type ReplaySessionResult struct {
	Session       string   `json:"session"`
	Operations    int      `json:"operations"`
	Events        int      `json:"events"`
	Deterministic bool     `json:"deterministic"`
	Mismatches    []string `json:"mismatches,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Sessions         []ReplaySessionResult `json:"sessions"`
	TotalSessions    int                   `json:"total_sessions"`
	AllDeterministic bool                  `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay journaled sessions and verify determinism",
		Long: `Re-execute journaled sessions on a fresh engine and verify that every
operation reproduces the recorded indices, clocks and event ids.

Exit codes:
  0 - All sessions are deterministic
  1 - Determinism verification failed (mismatches detected)
  2 - Command error (database not found, unknown session, etc.)

Examples:
  causal replay --db ./causal.db
  causal replay --db ./causal.db --session 01923c5e-7b1a-7c3e-8f00-000000000000
  causal replay --db ./causal.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "replay specific session only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := commandContext(cmd)

	st, err := openJournal(opts.Database)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer st.Close()

	var sessions []string
	if opts.Session != "" {
		sessions = []string{opts.Session}
	} else {
		all, err := st.ListSessions(ctx)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeStore, "failed to list sessions", err)
		}
		for _, s := range all {
			sessions = append(sessions, s.ID)
		}
	}

	result := ReplayResult{
		Sessions:         make([]ReplaySessionResult, 0, len(sessions)),
		TotalSessions:    len(sessions),
		AllDeterministic: true,
	}

	for _, id := range sessions {
		_, report, err := replaySession(ctx, formatter, st, id)
		if err != nil {
			return err
		}

		sr := ReplaySessionResult{
			Session:       id,
			Operations:    report.Operations,
			Events:        report.Events,
			Deterministic: report.Deterministic,
		}
		for _, m := range report.Mismatches {
			sr.Mismatches = append(sr.Mismatches, m.String())
		}
		result.Sessions = append(result.Sessions, sr)
		if !sr.Deterministic {
			result.AllDeterministic = false
		}
	}

	if formatter.IsJSON() {
		if !result.AllDeterministic {
			if err := formatter.Failure(ErrCodeFailed, "determinism verification failed", result); err != nil {
				return err
			}
			return NewExitError(ExitFailure, "determinism verification failed")
		}
		return formatter.Success(result)
	}

	return outputReplayText(formatter, result)
}

func outputReplayText(f *OutputFormatter, result ReplayResult) error {
	if result.TotalSessions == 0 {
		f.Printf("No sessions found in database.")
		return nil
	}

	f.Printf("Replaying %d session(s)...", result.TotalSessions)
	for _, s := range result.Sessions {
		mark := "✓"
		if !s.Deterministic {
			mark = "✗"
		}
		f.Printf("%s %s: %d operation(s), %d event(s)", mark, s.Session, s.Operations, s.Events)
		for _, m := range s.Mismatches {
			f.Printf("    %s", m)
		}
	}

	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	f.Printf("All sessions verified deterministic")
	return nil
}

// openJournal opens an existing journal database. store.Open would create
// a missing file, so a mistyped path is rejected here instead.
func openJournal(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("database not found: %s", path)
	}
	return store.Open(path)
}

// replaySession rebuilds the engine for one session, failing on unknown
// sessions and unreadable journals.
func replaySession(ctx context.Context, f *OutputFormatter, st *store.Store, id string) (*engine.Engine, *journal.Report, error) {
	eng, report, err := journal.Replay(ctx, st, id, engine.WithLogger(f.Logger()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, f.fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("session not found: %s", id), nil)
		}
		return nil, nil, f.fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("failed to replay session %s", id), err)
	}
	return eng, report, nil
}

// commandContext returns the command's context, or Background when the
// command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

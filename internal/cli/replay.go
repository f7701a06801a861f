package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/jokebox/internal/engine"
	"github.com/roach88/jokebox/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Journal string
	Session string // optional: specific session only
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Sessions         []*engine.ReplayReport `json:"sessions"`
	TotalSessions    int                    `json:"total_sessions"`
	AllDeterministic bool                   `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-execute journaled sessions and verify determinism",
		Long: `Re-execute each journaled session against a fresh store built from
its journaled seed, reusing the ids its adds were given, and compare every
resulting snapshot hash with the journal.

Nothing is restored: the replayed stores are discarded.

Exit codes:
  0 - Every session replayed identically
  1 - At least one session diverged
  2 - Command error (journal not found, etc.)

Examples:
  jokebox replay --journal ./trace.db
  jokebox replay --journal ./trace.db --session 0192...
  jokebox replay --journal ./trace.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "path to the SQLite journal (required)")
	_ = cmd.MarkFlagRequired("journal")
	cmd.Flags().StringVar(&opts.Session, "session", "", "replay this session only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	out := newFormatter(cmd, opts.RootOptions)

	journal, err := openJournal(opts.Journal)
	if err != nil {
		return err
	}
	defer journal.Close()

	var tokens []string
	if opts.Session != "" {
		tokens = []string{opts.Session}
	} else {
		sessions, err := journal.ListSessions(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list sessions", err)
		}
		for _, s := range sessions {
			tokens = append(tokens, s.Token)
		}
	}

	result := ReplayResult{
		Sessions:         make([]*engine.ReplayReport, 0, len(tokens)),
		TotalSessions:    len(tokens),
		AllDeterministic: true,
	}

	for _, token := range tokens {
		report, err := replaySession(ctx, journal, token, opts)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay session %s", token), err)
		}
		result.Sessions = append(result.Sessions, report)
		if !report.Deterministic {
			result.AllDeterministic = false
		}
	}

	if out.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: result}
		if !result.AllDeterministic {
			resp.Status = "error"
			resp.Error = &CLIError{Code: "E_NONDETERMINISTIC", Message: "replay diverged from journal"}
		}
		if err := out.encode(resp); err != nil {
			return err
		}
	} else {
		writeReplayText(out, result)
	}

	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "replay diverged from journal")
	}
	return nil
}

func replaySession(ctx context.Context, journal *store.Store, token string, opts *ReplayOptions) (*engine.ReplayReport, error) {
	seed, err := journal.ReadSeed(ctx, token)
	if err != nil {
		return nil, err
	}
	transitions, err := journal.ReadSession(ctx, token)
	if err != nil {
		return nil, err
	}
	return engine.Replay(ctx, token, seed, transitions, opts.Logger())
}

func writeReplayText(out *OutputFormatter, result ReplayResult) {
	w := out.Writer
	if result.TotalSessions == 0 {
		fmt.Fprintln(w, "No sessions in journal.")
		return
	}

	for _, r := range result.Sessions {
		if r.Deterministic {
			fmt.Fprintf(w, "✓ %s  %d step(s)  %s\n", r.Session, r.Steps, shortHash(r.FinalHash))
			continue
		}
		fmt.Fprintf(w, "✗ %s  %d step(s)\n", r.Session, r.Steps)
		for _, m := range r.Mismatches {
			fmt.Fprintf(w, "  seq %d %s: journal %s, replay %s\n", m.Seq, m.Field, m.Want, m.Got)
		}
		out.VerboseLog("session %s diverged at %d point(s)", r.Session, len(r.Mismatches))
	}

	if result.AllDeterministic {
		fmt.Fprintf(w, "\nAll %d session(s) deterministic\n", result.TotalSessions)
	} else {
		fmt.Fprintln(w, "\nReplay diverged from journal")
	}
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/jokebox/internal/ir"
	"github.com/roach88/jokebox/internal/joke"
	"github.com/roach88/jokebox/internal/queryir"
	"github.com/roach88/jokebox/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Journal string
	Session string // defaults to the latest session
	Record  string // optional: only transitions naming this id
	Kind    string
	Noops   bool
	Since   int64
	Limit   int
	List    bool
}

// TraceEvent is one journaled transition in the timeline.
type TraceEvent struct {
	Seq          int64  `json:"seq"`
	Intent       string `json:"intent"`
	AssignedID   string `json:"assigned_id,omitempty"`
	Applied      bool   `json:"applied"`
	Size         int    `json:"size"`
	SnapshotHash string `json:"snapshot_hash"`
}

// TraceStats summarizes a session.
type TraceStats struct {
	Transitions int            `json:"transitions"`
	Noops       int            `json:"noops"`
	ByKind      map[string]int `json:"by_kind"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Session  string       `json:"session"`
	Record   string       `json:"record,omitempty"`
	Filtered bool         `json:"filtered"`
	Initial  []RecordView `json:"initial"`
	Timeline []TraceEvent `json:"timeline"`
	Stats    TraceStats   `json:"stats"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the journaled timeline of a session",
		Long: `Show the transitions a run journaled, in logical clock order.

Each line shows the intent, the id an add assigned, whether a remove or
score change found its record, the resulting joke count and the snapshot
hash. With --record only the transitions that created or named that joke
are shown. --kind, --noops and --since narrow the timeline further and
may be combined.

Examples:
  jokebox trace --journal ./trace.db --list
  jokebox trace --journal ./trace.db
  jokebox trace --journal ./trace.db --session 0192... --record 3f2a...
  jokebox trace --journal ./trace.db --kind like --noops
  jokebox trace --journal ./trace.db --since 40 --limit 10 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "path to the SQLite journal (required)")
	_ = cmd.MarkFlagRequired("journal")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session token (default: latest)")
	cmd.Flags().StringVar(&opts.Record, "record", "", "only show transitions naming this joke id")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "only show intents of this kind (add, remove, like, dislike, sort)")
	cmd.Flags().BoolVar(&opts.Noops, "noops", false, "only show intents that named an unknown joke")
	cmd.Flags().Int64Var(&opts.Since, "since", 0, "only show transitions from this seq on")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "show at most this many transitions (0: all)")
	cmd.Flags().BoolVar(&opts.List, "list", false, "list journaled sessions")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	out := newFormatter(cmd, opts.RootOptions)

	journal, err := openJournal(opts.Journal)
	if err != nil {
		return err
	}
	defer journal.Close()

	if opts.List {
		return listSessions(ctx, journal, out)
	}

	if opts.Kind != "" && !ir.IntentKind(opts.Kind).Valid() {
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown intent kind %q", opts.Kind))
	}

	session, err := resolveSession(ctx, journal, opts.Session)
	if err != nil {
		return err
	}

	seed, err := journal.ReadSeed(ctx, session)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}
	initial, err := joke.NewSequence(seed...)
	if err != nil {
		return WrapExitError(ExitCommandError, "journaled seed is invalid", err)
	}

	q := traceQuery(opts, session)
	opts.Logger().Debug("reading transitions",
		zap.String("session", session),
		zap.Bool("filtered", q.Filter != nil || q.Limit > 0),
	)
	transitions, err := journal.ReadTransitions(ctx, q)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}

	result := buildTraceResult(session, opts.Record, initial, transitions)
	result.Filtered = q.Filter != nil || q.Limit > 0

	if out.Format == "json" {
		return out.Success(result)
	}
	writeTraceText(out, result)
	return nil
}

// traceQuery turns the filter flags into a journal query.
func traceQuery(opts *TraceOptions, session string) queryir.TransitionQuery {
	q := queryir.ForSession(session)
	if opts.Record != "" {
		q = q.Where(queryir.Touching(opts.Record))
	}
	if opts.Kind != "" {
		q = q.Where(queryir.OfKind(ir.IntentKind(opts.Kind)))
	}
	if opts.Noops {
		q = q.Where(queryir.Noops())
	}
	if opts.Since > 0 {
		q = q.Where(queryir.Since(opts.Since))
	}
	if opts.Limit > 0 {
		q = q.First(opts.Limit)
	}
	return q
}

func buildTraceResult(session, record string, initial joke.Sequence, transitions []ir.Transition) TraceResult {
	result := TraceResult{
		Session:  session,
		Record:   record,
		Initial:  recordViews(initial),
		Timeline: make([]TraceEvent, 0, len(transitions)),
		Stats:    TraceStats{ByKind: make(map[string]int)},
	}
	for _, tr := range transitions {
		result.Timeline = append(result.Timeline, TraceEvent{
			Seq:          tr.Seq,
			Intent:       tr.Intent.String(),
			AssignedID:   tr.AssignedID,
			Applied:      tr.Applied,
			Size:         tr.Size,
			SnapshotHash: tr.SnapshotHash,
		})
		result.Stats.Transitions++
		result.Stats.ByKind[string(tr.Intent.Kind)]++
		if !tr.Applied {
			result.Stats.Noops++
		}
	}
	return result
}

func writeTraceText(out *OutputFormatter, result TraceResult) {
	w := out.Writer
	fmt.Fprintf(w, "Session %s\n", result.Session)
	if result.Record != "" {
		fmt.Fprintf(w, "Record  %s\n", result.Record)
	}
	fmt.Fprintf(w, "Initial: %d joke(s)\n\n", len(result.Initial))

	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "No transitions.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tINTENT\tRESULT\tSIZE\tHASH")
	for _, ev := range result.Timeline {
		outcome := "applied"
		switch {
		case ev.AssignedID != "":
			outcome = "-> " + ev.AssignedID
		case !ev.Applied:
			outcome = "no-op"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", ev.Seq, ev.Intent, outcome, ev.Size, shortHash(ev.SnapshotHash))
	}
	_ = tw.Flush()

	fmt.Fprintf(w, "\n%d transition(s), %d no-op", result.Stats.Transitions, result.Stats.Noops)
	if result.Filtered {
		fmt.Fprint(w, " (filtered)")
	}
	fmt.Fprintln(w)
}

func listSessions(ctx context.Context, journal *store.Store, out *OutputFormatter) error {
	sessions, err := journal.ListSessions(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list sessions", err)
	}
	if out.Format == "json" {
		return out.Success(sessions)
	}
	if len(sessions) == 0 {
		fmt.Fprintln(out.Writer, "No sessions in journal.")
		return nil
	}
	tw := tabwriter.NewWriter(out.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tTRANSITIONS\tLAST SEQ")
	for _, s := range sessions {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", s.Token, s.Transitions, s.LastSeq)
	}
	return tw.Flush()
}

// openJournal opens an existing journal. store.Open would create a new
// empty database for a mistyped path, so existence is checked first.
func openJournal(path string) (*store.Store, error) {
	if err := requireFile(path); err != nil {
		return nil, WrapExitError(ExitCommandError, "journal not found", err)
	}
	journal, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	return journal, nil
}

func resolveSession(ctx context.Context, journal *store.Store, session string) (string, error) {
	if session != "" {
		return session, nil
	}
	latest, err := journal.LatestSession(ctx)
	if errors.Is(err, store.ErrSessionNotFound) {
		return "", NewExitError(ExitCommandError, "journal has no sessions")
	}
	if err != nil {
		return "", WrapExitError(ExitCommandError, "failed to find latest session", err)
	}
	return latest, nil
}

func requireFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

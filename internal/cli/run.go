package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/jokebox/internal/compiler"
	"github.com/roach88/jokebox/internal/engine"
	"github.com/roach88/jokebox/internal/ir"
	"github.com/roach88/jokebox/internal/joke"
	"github.com/roach88/jokebox/internal/metrics"
	"github.com/roach88/jokebox/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Seed      string
	Journal   string
	Script    string
	IDPrefix  string
	ShowSteps bool

	// Sessions overrides the session token generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	Sessions engine.SessionTokenGenerator
}

// StepView is one applied intent as reported by run --show-steps.
type StepView struct {
	Seq        int64        `json:"seq"`
	Intent     string       `json:"intent"`
	AssignedID string       `json:"assigned_id,omitempty"`
	Applied    bool         `json:"applied"`
	Records    []RecordView `json:"records"`
}

// RunResult is the output of the run command.
type RunResult struct {
	Session string           `json:"session"`
	Records []RecordView     `json:"records"`
	Steps   []StepView       `json:"steps,omitempty"`
	Skipped []string         `json:"skipped,omitempty"`
	Metrics metrics.Snapshot `json:"metrics"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Apply intents to a fresh joke store",
		Long: `Start a joke store and apply intents read one per line from a script
or from stdin:

  add <text>       add a joke at the top
  remove <id>      remove a joke
  like <id>        raise a joke's score by one
  dislike <id>     lower a joke's score by one
  sort             order jokes by score, highest first

Blank lines and lines starting with # are ignored. Lines that do not parse
are reported and skipped. The store starts from the two default jokes
unless --seed names a CUE catalog.

Examples:
  jokebox run --script session.txt
  echo "add Knock knock" | jokebox run --show-steps
  jokebox run --seed jokes.cue --journal ./trace.db --script session.txt`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStore(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Seed, "seed", "", "CUE seed catalog (file or directory)")
	cmd.Flags().StringVar(&opts.Journal, "journal", "", "SQLite file to trace transitions into")
	cmd.Flags().StringVar(&opts.Script, "script", "", "read intents from this file instead of stdin")
	cmd.Flags().StringVar(&opts.IDPrefix, "id-prefix", "", "assign sequential ids with this prefix instead of UUIDs")
	cmd.Flags().BoolVar(&opts.ShowSteps, "show-steps", false, "print the sequence after every intent")

	return cmd
}

func runStore(opts *RunOptions, cmd *cobra.Command) error {
	logger := opts.Logger()
	out := newFormatter(cmd, opts.RootOptions)

	seed := joke.DefaultSeed()
	if opts.Seed != "" {
		records, err := compiler.LoadSeedFile(opts.Seed)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load seed", err)
		}
		seed = records
		logger.Debug("seed loaded", zap.String("path", opts.Seed), zap.Int("records", len(seed)))
	}

	var ids joke.IDSource = joke.UUIDSource{}
	if opts.IDPrefix != "" {
		ids = joke.NewSequentialSource(opts.IDPrefix)
	}

	st, err := joke.NewStore(ids, joke.WithSeed(seed...))
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid seed", err)
	}

	input := cmd.InOrStdin()
	if opts.Script != "" {
		f, err := os.Open(opts.Script)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open script", err)
		}
		defer f.Close()
		input = f
	}

	sessions := opts.Sessions
	if sessions == nil {
		sessions = engine.UUIDv7Generator{}
	}

	collector := metrics.NewCollector("jokebox")
	result := RunResult{}

	engineOpts := []engine.EngineOption{
		engine.WithLogger(logger),
		engine.WithMetrics(collector),
	}
	if opts.ShowSteps {
		engineOpts = append(engineOpts, engine.WithObserver(stepObserver(out, &result)))
	}

	if opts.Journal != "" {
		journal, err := store.Open(opts.Journal)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer func() {
			if closeErr := journal.Close(); closeErr != nil {
				logger.Error("error closing journal", zap.Error(closeErr))
			}
		}()
		engineOpts = append(engineOpts, engine.WithJournal(journal))
	}

	eng := engine.New(st, sessions, engineOpts...)
	result.Session = eng.Session()

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return eng.Run(gctx)
	})
	g.Go(func() error {
		defer eng.Stop()
		skipped, err := readIntents(gctx, input, eng, logger)
		result.Skipped = skipped
		return err
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return WrapExitError(ExitFailure, "run failed", err)
	}

	final := eng.Current()
	result.Records = recordViews(final)
	result.Metrics = collector.Snapshot()

	if out.Format == "json" {
		return out.Success(result)
	}

	w := out.Writer
	if opts.ShowSteps {
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "Session %s\n", result.Session)
	writeSequence(w, final)
	for _, line := range result.Skipped {
		fmt.Fprintf(w, "skipped %s\n", line)
	}
	fmt.Fprintln(w, summarize(result.Metrics))
	return nil
}

// readIntents enqueues one intent per line until input ends. It returns
// the lines it could not parse.
func readIntents(ctx context.Context, r io.Reader, eng *engine.Engine, logger *zap.Logger) ([]string, error) {
	var skipped []string

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return skipped, err
		}
		lineNo++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		in, err := ir.ParseIntent(line)
		if err != nil {
			logger.Warn("skipping line", zap.Int("line", lineNo), zap.Error(err))
			skipped = append(skipped, fmt.Sprintf("line %d: %v", lineNo, err))
			continue
		}
		if !eng.Enqueue(in) {
			return skipped, fmt.Errorf("line %d: engine stopped", lineNo)
		}
	}
	if err := scanner.Err(); err != nil {
		return skipped, fmt.Errorf("read intents: %w", err)
	}
	return skipped, nil
}

// stepObserver reports each transition. It runs on the engine goroutine,
// which is the only writer until Run returns.
func stepObserver(out *OutputFormatter, result *RunResult) engine.Observer {
	return func(tr ir.Transition, seq joke.Sequence) {
		if out.Format == "json" {
			result.Steps = append(result.Steps, StepView{
				Seq:        tr.Seq,
				Intent:     tr.Intent.String(),
				AssignedID: tr.AssignedID,
				Applied:    tr.Applied,
				Records:    recordViews(seq),
			})
			return
		}

		note := ""
		switch {
		case tr.AssignedID != "":
			note = " -> " + tr.AssignedID
		case !tr.Applied:
			note = " (no such joke)"
		}
		fmt.Fprintf(out.Writer, "[%d] %s%s\n", tr.Seq, tr.Intent, note)
		writeSequence(out.Writer, seq)
	}
}

func summarize(s metrics.Snapshot) string {
	var applied, noops int64
	for _, kind := range ir.IntentKinds {
		applied += s.Intents[string(kind)]
		noops += s.Noops[string(kind)]
	}
	return fmt.Sprintf("%d intents, %d no-op, %d rejected, %d jokes",
		applied, noops, s.Rejected, s.Records)
}

package harness

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/jokebox/internal/engine"
	"github.com/roach88/jokebox/internal/joke"
	"github.com/roach88/jokebox/internal/store"
	"github.com/roach88/jokebox/internal/testutil"
)

// Option configures a scenario run.
type Option func(*runConfig)

type runConfig struct {
	logger *zap.Logger
}

// WithLogger sets the logger passed to the engine. Default: zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(c *runConfig) {
		c.logger = l
	}
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory journal for isolation.
//
// Execution flow:
//  1. Resolve the seed and build a store with sequential ids
//  2. Apply each step through the engine, checking expect clauses
//  3. Evaluate assertions against the trace and final sequence
//  4. Replay the journal and require identical snapshot hashes
//
// The returned error is for failures to run at all. A scenario whose
// expectations do not hold returns a Result with Pass false.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := &runConfig{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(cfg)
	}

	ctx := context.Background()

	seed, err := scenario.Seed.resolve()
	if err != nil {
		return nil, fmt.Errorf("resolve seed: %w", err)
	}

	st, err := joke.NewStore(joke.NewSequentialSource(scenario.IDPrefix), joke.WithSeed(seed...))
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}

	journal, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory journal: %w", err)
	}
	defer journal.Close()

	eng := engine.New(st,
		testutil.NewFixedSessionGenerator(scenario.Session),
		engine.WithClock(testutil.NewDeterministicClock()),
		engine.WithJournal(journal),
		engine.WithLogger(cfg.logger),
	)

	result := NewResult(eng.Session())

	for i, step := range scenario.Steps {
		tr, err := eng.Apply(ctx, step.Intent())
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Do, err)
		}

		current := eng.Current()
		result.AddTrace(tr, current)

		if step.Expect != nil {
			for _, aerr := range checkExpect(i, step.Expect, result.Trace[len(result.Trace)-1], current, result.Trace) {
				result.AddError(aerr.Error())
			}
		}
	}

	result.Final = eng.Current().Records()

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	if err := verifyReplay(ctx, journal, eng.Session(), cfg.logger, result); err != nil {
		return nil, err
	}

	return result, nil
}

// verifyReplay re-executes the journaled session and records a failure if
// any snapshot differs.
func verifyReplay(ctx context.Context, journal *store.Store, session string, logger *zap.Logger, result *Result) error {
	seed, err := journal.ReadSeed(ctx, session)
	if err != nil {
		return fmt.Errorf("read journal seed: %w", err)
	}
	transitions, err := journal.ReadSession(ctx, session)
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}

	report, err := engine.Replay(ctx, session, seed, transitions, logger)
	if err != nil {
		return fmt.Errorf("replay journal: %w", err)
	}

	for _, m := range report.Mismatches {
		result.AddError(fmt.Sprintf("replay mismatch at seq %d: %s want %s, got %s", m.Seq, m.Field, m.Want, m.Got))
	}
	return nil
}

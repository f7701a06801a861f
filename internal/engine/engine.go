package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/jokebox/internal/ir"
	"github.com/roach88/jokebox/internal/joke"
	"github.com/roach88/jokebox/internal/metrics"
)

// Journal records transitions. Implemented by store.Store.
type Journal interface {
	// BeginSession records the sequence a session started from.
	BeginSession(ctx context.Context, session string, initial ir.IRArray) error

	// WriteTransition appends one transition to the session.
	WriteTransition(ctx context.Context, tr ir.Transition) error
}

// Observer is called after every applied transition with the resulting
// sequence. It runs on the engine goroutine and must not block.
type Observer func(tr ir.Transition, seq joke.Sequence)

// Engine is the single-writer intent loop.
//
// CRITICAL: All store mutations happen in the goroutine running Run (or,
// when Run is not running, the goroutine calling Apply).
//
// Thread-safety model:
//   - Enqueue(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
//   - Apply(): same goroutine as Run, never concurrently with it
//   - Current(): safe from any goroutine
type Engine struct {
	store    *joke.Store
	clock    LogicalClock
	queue    *intentQueue
	session  string
	initial  joke.Sequence
	journal  Journal
	begun    bool
	metrics  *metrics.Collector
	observer Observer
	logger   *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger. Default: zap.NewNop().
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithJournal records every transition in j.
func WithJournal(j Journal) EngineOption {
	return func(e *Engine) {
		e.journal = j
	}
}

// WithMetrics counts transitions on c. The records gauge starts at the
// size of the initial sequence.
func WithMetrics(c *metrics.Collector) EngineOption {
	return func(e *Engine) {
		e.metrics = c
		c.Records.Set(float64(e.initial.Len()))
	}
}

// WithObserver registers the re-render hook.
func WithObserver(fn Observer) EngineOption {
	return func(e *Engine) {
		e.observer = fn
	}
}

// LogicalClock stamps transitions with monotonically increasing seq
// values. *Clock is the production implementation.
type LogicalClock interface {
	Next() int64
	Current() int64
}

// WithClock replaces the logical clock. Used by replay to resume from a
// known seq.
func WithClock(c LogicalClock) EngineOption {
	return func(e *Engine) {
		e.clock = c
	}
}

// New creates an Engine driving s. The session token is drawn once from
// sessions.
func New(s *joke.Store, sessions SessionTokenGenerator, opts ...EngineOption) *Engine {
	e := &Engine{
		store:   s,
		clock:   NewClock(),
		queue:   newIntentQueue(),
		session: sessions.Generate(),
		initial: s.Current(),
		logger:  zap.NewNop(),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.logger = e.logger.With(zap.String("session", e.session))

	return e
}

// Session returns this engine's session token.
func (e *Engine) Session() string {
	return e.session
}

// Current returns the store's current sequence.
func (e *Engine) Current() joke.Sequence {
	return e.store.Current()
}

// Enqueue submits an intent for processing by the Run loop.
// Thread-safe: may be called from any goroutine.
//
// Returns false if the engine has been stopped.
func (e *Engine) Enqueue(in ir.Intent) bool {
	return e.queue.Enqueue(in)
}

// QueueLen returns the number of intents waiting.
func (e *Engine) QueueLen() int {
	return e.queue.Len()
}

// Run starts the single-writer loop.
// Blocks until the context is cancelled or Stop() is called and the queue
// has drained.
//
// Intents that fail are logged and skipped: a bad intent must not stall
// the ones queued behind it.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("engine starting")

	for {
		in, ok := e.queue.TryDequeue()
		if ok {
			if _, err := e.Apply(ctx, in); err != nil {
				e.logger.Error("intent failed",
					zap.String("kind", string(in.Kind)),
					zap.String("id", in.ID),
					zap.Error(err),
				)
			}
			continue
		}

		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping: context cancelled")
			e.queue.Close()
			return ctx.Err()

		case <-e.queue.Wait():
			// The signal channel is closed with the queue, so this fires
			// immediately once stopped.
			if e.queue.Len() == 0 && e.stopped() {
				e.logger.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

func (e *Engine) stopped() bool {
	e.queue.mu.Lock()
	defer e.queue.mu.Unlock()
	return e.queue.closed
}

// Stop closes the queue. Run returns after draining what was already
// enqueued.
func (e *Engine) Stop() {
	e.queue.Close()
}

// Apply validates and applies one intent inline, returning the recorded
// transition.
//
// A RuntimeError with ErrCodeUnknownIntent or ErrCodeMissingID means the
// store was not touched. ErrCodeJournalWrite means the transition was
// applied but could not be journaled; the returned transition is valid.
func (e *Engine) Apply(ctx context.Context, in ir.Intent) (ir.Transition, error) {
	if err := e.validate(in); err != nil {
		if e.metrics != nil {
			e.metrics.ObserveRejected()
		}
		return ir.Transition{}, err
	}

	if err := e.beginSession(ctx); err != nil {
		return ir.Transition{}, err
	}

	seq := e.clock.Next()
	before := e.store.Current()

	var (
		after    joke.Sequence
		assigned string
		applied  = true
	)

	id := joke.ID(in.ID)
	switch in.Kind {
	case ir.KindAdd:
		var r joke.Record
		r, after = e.store.AddRecord(in.Text)
		assigned = string(r.ID)
	case ir.KindRemove:
		_, applied = before.Find(id)
		after = e.store.Remove(id)
	case ir.KindLike:
		_, applied = before.Find(id)
		after = e.store.Like(id)
	case ir.KindDislike:
		_, applied = before.Find(id)
		after = e.store.Dislike(id)
	case ir.KindSort:
		after = e.store.SortByScoreDescending()
	}

	txID, err := ir.IntentID(e.session, in, seq)
	if err != nil {
		return ir.Transition{}, fmt.Errorf("hash intent at seq %d: %w", seq, err)
	}

	tr := ir.Transition{
		ID:           txID,
		Session:      e.session,
		Seq:          seq,
		Intent:       in,
		AssignedID:   assigned,
		Applied:      applied,
		Size:         after.Len(),
		SnapshotHash: after.Hash(),
	}

	e.logger.Debug("transition applied",
		zap.Int64("seq", seq),
		zap.String("kind", string(in.Kind)),
		zap.String("id", in.ID),
		zap.String("assigned_id", assigned),
		zap.Bool("applied", applied),
		zap.Int("size", tr.Size),
	)
	if !applied {
		e.logger.Info("intent named unknown record",
			zap.Int64("seq", seq),
			zap.String("kind", string(in.Kind)),
			zap.String("id", in.ID),
		)
	}

	if e.metrics != nil {
		e.metrics.ObserveTransition(tr)
	}

	var journalErr error
	if e.journal != nil {
		if err := e.journal.WriteTransition(ctx, tr); err != nil {
			journalErr = &RuntimeError{
				Code:    ErrCodeJournalWrite,
				Message: "write transition",
				Session: e.session,
				Seq:     seq,
				Err:     err,
			}
		}
	}

	if e.observer != nil {
		e.observer(tr, after)
	}

	return tr, journalErr
}

func (e *Engine) validate(in ir.Intent) error {
	if !in.Kind.Valid() {
		return &RuntimeError{
			Code:    ErrCodeUnknownIntent,
			Message: fmt.Sprintf("unknown intent kind %q", in.Kind),
			Session: e.session,
		}
	}
	if in.Kind.NeedsID() && in.ID == "" {
		return &RuntimeError{
			Code:    ErrCodeMissingID,
			Message: fmt.Sprintf("%s requires a record id", in.Kind),
			Session: e.session,
		}
	}
	return nil
}

// beginSession journals the starting sequence before the first transition.
func (e *Engine) beginSession(ctx context.Context) error {
	if e.begun || e.journal == nil {
		return nil
	}
	if err := e.journal.BeginSession(ctx, e.session, e.initial.Canonical()); err != nil {
		return &RuntimeError{
			Code:    ErrCodeJournalWrite,
			Message: "begin session",
			Session: e.session,
			Err:     err,
		}
	}
	e.begun = true
	return nil
}

package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/jokebox/internal/ir"
	"github.com/roach88/jokebox/internal/joke"
)

// Replay verifies determinism: the same starting sequence and the same
// intents, with the same assigned ids, must reproduce every journaled
// snapshot hash.
//
// It is a verification tool. Nothing is restored from a journal; the
// replayed store is discarded.

// Mismatch describes one field that differed on replay.
type Mismatch struct {
	Seq   int64  `json:"seq"`
	Field string `json:"field"`
	Want  string `json:"want"`
	Got   string `json:"got"`
}

// ReplayReport is the outcome of replaying one session.
type ReplayReport struct {
	Session       string     `json:"session"`
	Steps         int        `json:"steps"`
	FinalHash     string     `json:"final_hash"`
	Deterministic bool       `json:"deterministic"`
	Mismatches    []Mismatch `json:"mismatches,omitempty"`
}

// Replay re-executes transitions against a fresh store seeded with
// initial. Transitions must be in seq order, as returned by the journal.
func Replay(ctx context.Context, session string, initial []joke.Record, transitions []ir.Transition, logger *zap.Logger) (*ReplayReport, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var assigned []joke.ID
	for _, tr := range transitions {
		if tr.Intent.Kind == ir.KindAdd {
			assigned = append(assigned, joke.ID(tr.AssignedID))
		}
	}

	st, err := joke.NewStore(joke.NewReplaySource(assigned...), joke.WithSeed(initial...))
	if err != nil {
		return nil, fmt.Errorf("replay session %s: %w", session, err)
	}

	eng := New(st, NewFixedGenerator(session),
		WithClock(ClockFor(transitions)),
		WithLogger(logger),
	)

	report := &ReplayReport{Session: session, Deterministic: true}
	mismatch := func(seq int64, field, want, got string) {
		report.Deterministic = false
		report.Mismatches = append(report.Mismatches, Mismatch{Seq: seq, Field: field, Want: want, Got: got})
	}

	for _, want := range transitions {
		got, err := eng.Apply(ctx, want.Intent)
		if err != nil {
			return nil, fmt.Errorf("replay session %s seq %d: %w", session, want.Seq, err)
		}
		report.Steps++

		if got.Seq != want.Seq {
			mismatch(want.Seq, "seq", fmt.Sprint(want.Seq), fmt.Sprint(got.Seq))
		}
		if got.ID != want.ID {
			mismatch(want.Seq, "id", want.ID, got.ID)
		}
		if got.Applied != want.Applied {
			mismatch(want.Seq, "applied", fmt.Sprint(want.Applied), fmt.Sprint(got.Applied))
		}
		if got.Size != want.Size {
			mismatch(want.Seq, "size", fmt.Sprint(want.Size), fmt.Sprint(got.Size))
		}
		if got.SnapshotHash != want.SnapshotHash {
			mismatch(want.Seq, "snapshot_hash", want.SnapshotHash, got.SnapshotHash)
		}
	}

	report.FinalHash = eng.Current().Hash()

	logger.Debug("replay finished",
		zap.String("session", session),
		zap.Int("steps", report.Steps),
		zap.Bool("deterministic", report.Deterministic),
	)

	return report, nil
}

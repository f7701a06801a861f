package store

import (
	"context"
	"fmt"

	"github.com/roach88/jokebox/internal/ir"
)

// BeginSession records the sequence a session started from.
// Uses ON CONFLICT(token) DO NOTHING: beginning a session twice keeps the
// first starting sequence.
func (s *Store) BeginSession(ctx context.Context, session string, initial ir.IRArray) error {
	initialJSON, err := marshalInitial(initial)
	if err != nil {
		return fmt.Errorf("begin session: %w", err)
	}

	hash, err := ir.SnapshotHash(initial)
	if err != nil {
		return fmt.Errorf("begin session: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions
		(token, initial, initial_hash, engine_version, ir_version)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(token) DO NOTHING
	`,
		session,
		initialJSON,
		hash,
		ir.EngineVersion,
		ir.IRVersion,
	)
	if err != nil {
		return fmt.Errorf("begin session: %w", err)
	}

	return nil
}

// WriteTransition appends a transition to its session.
// Uses ON CONFLICT DO NOTHING for idempotency: a duplicate id or a second
// transition at the same (session, seq) is silently ignored.
//
// Note: The session must have been begun (foreign key constraint).
func (s *Store) WriteTransition(ctx context.Context, tr ir.Transition) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transitions
		(id, session, seq, kind, record_id, text, assigned_id, applied, size, snapshot_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		tr.ID,
		tr.Session,
		tr.Seq,
		string(tr.Intent.Kind),
		tr.Intent.ID,
		tr.Intent.Text,
		tr.AssignedID,
		boolToInt(tr.Applied),
		tr.Size,
		tr.SnapshotHash,
	)
	if err != nil {
		return fmt.Errorf("write transition seq %d: %w", tr.Seq, err)
	}

	return nil
}

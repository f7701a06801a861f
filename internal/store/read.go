package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/jokebox/internal/ir"
	"github.com/roach88/jokebox/internal/joke"
	"github.com/roach88/jokebox/internal/queryir"
	"github.com/roach88/jokebox/internal/querysql"
)

// SessionInfo summarizes one journaled session.
type SessionInfo struct {
	Token         string `json:"token"`
	InitialHash   string `json:"initial_hash"`
	EngineVersion string `json:"engine_version"`
	Transitions   int    `json:"transitions"`
	LastSeq       int64  `json:"last_seq"`
}

// ReadSession returns every transition of a session ordered by seq.
//
// Returns an empty slice (not nil) if the session has no transitions, and
// ErrSessionNotFound if the session was never begun.
func (s *Store) ReadSession(ctx context.Context, session string) ([]ir.Transition, error) {
	if _, err := s.readSessionRow(ctx, session); err != nil {
		return nil, err
	}
	return s.ReadTransitions(ctx, queryir.ForSession(session))
}

// ReadRecordHistory returns the transitions of a session that created or
// named the given record id, ordered by seq. Sorts are not included.
func (s *Store) ReadRecordHistory(ctx context.Context, session string, id joke.ID) ([]ir.Transition, error) {
	return s.ReadTransitions(ctx, queryir.ForSession(session).Where(queryir.Touching(string(id))))
}

// ReadTransitions runs a transition query against the journal. Results are
// always in seq order. An unknown session yields an empty slice.
func (s *Store) ReadTransitions(ctx context.Context, q queryir.TransitionQuery) ([]ir.Transition, error) {
	query, params, err := querysql.Compile(q)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query transitions: %w", err)
	}
	defer rows.Close()

	return collectTransitions(rows)
}

// ReadInitial returns the canonical starting sequence of a session.
func (s *Store) ReadInitial(ctx context.Context, session string) (ir.IRArray, error) {
	initialJSON, err := s.readSessionRow(ctx, session)
	if err != nil {
		return nil, err
	}
	return unmarshalInitial(initialJSON)
}

// ReadSeed returns the records a session started from, in order.
func (s *Store) ReadSeed(ctx context.Context, session string) ([]joke.Record, error) {
	initial, err := s.ReadInitial(ctx, session)
	if err != nil {
		return nil, err
	}
	records, err := joke.RecordsFromCanonical(initial)
	if err != nil {
		return nil, fmt.Errorf("read seed for %s: %w", session, err)
	}
	return records, nil
}

// ListSessions returns a summary of every journaled session ordered by
// token. UUIDv7 tokens sort by creation time.
func (s *Store) ListSessions(ctx context.Context) ([]SessionInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.token, s.initial_hash, s.engine_version,
		       COUNT(t.id), COALESCE(MAX(t.seq), 0)
		FROM sessions s
		LEFT JOIN transitions t ON t.session = s.token
		GROUP BY s.token
		ORDER BY s.token COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []SessionInfo{}
	for rows.Next() {
		var info SessionInfo
		if err := rows.Scan(&info.Token, &info.InitialHash, &info.EngineVersion, &info.Transitions, &info.LastSeq); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}

// LatestSession returns the token of the most recent session, by token
// order. Returns ErrSessionNotFound if the journal is empty.
func (s *Store) LatestSession(ctx context.Context) (string, error) {
	var token string
	err := s.db.QueryRowContext(ctx, `
		SELECT token FROM sessions
		ORDER BY token COLLATE BINARY DESC
		LIMIT 1
	`).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query latest session: %w", err)
	}
	return token, nil
}

func (s *Store) readSessionRow(ctx context.Context, session string) (string, error) {
	var initialJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT initial FROM sessions WHERE token = ?
	`, session).Scan(&initialJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrSessionNotFound, session)
	}
	if err != nil {
		return "", fmt.Errorf("query session %s: %w", session, err)
	}
	return initialJSON, nil
}

func collectTransitions(rows *sql.Rows) ([]ir.Transition, error) {
	transitions := []ir.Transition{}
	for rows.Next() {
		tr, err := scanTransition(rows)
		if err != nil {
			return nil, err
		}
		transitions = append(transitions, tr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transitions: %w", err)
	}

	return transitions, nil
}

// scanTransition scans a row into a Transition struct.
func scanTransition(rows *sql.Rows) (ir.Transition, error) {
	var tr ir.Transition
	var kind string
	var applied int

	if err := rows.Scan(
		&tr.ID, &tr.Session, &tr.Seq, &kind, &tr.Intent.ID, &tr.Intent.Text,
		&tr.AssignedID, &applied, &tr.Size, &tr.SnapshotHash,
	); err != nil {
		return ir.Transition{}, fmt.Errorf("scan transition: %w", err)
	}

	tr.Intent.Kind = ir.IntentKind(kind)
	tr.Applied = applied != 0

	return tr, nil
}

package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/jokebox/internal/ir"
	"github.com/roach88/jokebox/internal/joke"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// seedArray returns the canonical form of the default seed.
func seedArray(t *testing.T) ir.IRArray {
	t.Helper()
	seq, err := joke.NewSequence(joke.DefaultSeed()...)
	require.NoError(t, err)
	return seq.Canonical()
}

// createTestTransition creates a transition with minimal required fields.
func createTestTransition(session string, seq int64, in ir.Intent) ir.Transition {
	id, err := ir.IntentID(session, in, seq)
	if err != nil {
		panic(err)
	}
	return ir.Transition{
		ID:           id,
		Session:      session,
		Seq:          seq,
		Intent:       in,
		Applied:      true,
		Size:         2,
		SnapshotHash: "test-hash",
	}
}

// Package testutil holds deterministic helpers shared by tests and the
// scenario harness.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/jokebox/internal/ir"
	"github.com/roach88/jokebox/internal/joke"
)

// NewStore returns a store with sequential ids (k1, k2, ...) seeded with
// records. It fails the test on a duplicate seed id.
func NewStore(t testing.TB, records ...joke.Record) *joke.Store {
	t.Helper()
	st, err := joke.NewStore(joke.NewSequentialSource("k"), joke.WithSeed(records...))
	require.NoError(t, err)
	return st
}

// Intents parses intent lines such as "add joke1" or "like k1".
func Intents(t testing.TB, lines ...string) []ir.Intent {
	t.Helper()
	out := make([]ir.Intent, 0, len(lines))
	for _, line := range lines {
		in, err := ir.ParseIntent(line)
		require.NoError(t, err, "line %q", line)
		out = append(out, in)
	}
	return out
}

// Scores returns id → score for every record in seq.
func Scores(seq joke.Sequence) map[joke.ID]int64 {
	out := make(map[joke.ID]int64, seq.Len())
	for _, r := range seq.Records() {
		out[r.ID] = r.Score
	}
	return out
}

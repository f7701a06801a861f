package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/jokebox/internal/ir"
	"github.com/roach88/jokebox/internal/joke"
	"github.com/roach88/jokebox/internal/queryir"
)

func TestBeginSession_ReadSeedRoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()

	require.NoError(t, s.BeginSession(ctx, "s1", seedArray(t)))

	records, err := s.ReadSeed(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, joke.DefaultSeed(), records)
}

func TestBeginSession_EmptySeed(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()

	require.NoError(t, s.BeginSession(ctx, "s1", nil))

	initial, err := s.ReadInitial(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, initial)

	sessions, err := s.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, ir.MustSnapshotHash(ir.IRArray{}), sessions[0].InitialHash)
}

func TestBeginSession_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()

	require.NoError(t, s.BeginSession(ctx, "s1", seedArray(t)))
	require.NoError(t, s.BeginSession(ctx, "s1", ir.IRArray{}))

	records, err := s.ReadSeed(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, records, 2, "first starting sequence kept")
}

func TestWriteTransition_RequiresSession(t *testing.T) {
	s := createTestStore(t)

	err := s.WriteTransition(t.Context(), createTestTransition("nope", 1, ir.Intent{Kind: ir.KindSort}))
	assert.Error(t, err)
}

func TestWriteTransition_ReadSessionOrdered(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()
	require.NoError(t, s.BeginSession(ctx, "s1", seedArray(t)))

	add := createTestTransition("s1", 1, ir.Intent{Kind: ir.KindAdd, Text: "joke"})
	add.AssignedID = "k1"
	add.Size = 3
	like := createTestTransition("s1", 2, ir.Intent{Kind: ir.KindLike, ID: "missing"})
	like.Applied = false
	sort := createTestTransition("s1", 3, ir.Intent{Kind: ir.KindSort})

	// Written out of order; read back by seq.
	require.NoError(t, s.WriteTransition(ctx, sort))
	require.NoError(t, s.WriteTransition(ctx, add))
	require.NoError(t, s.WriteTransition(ctx, like))

	got, err := s.ReadSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []ir.Transition{add, like, sort}, got)
}

func TestWriteTransition_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()
	require.NoError(t, s.BeginSession(ctx, "s1", nil))

	tr := createTestTransition("s1", 1, ir.Intent{Kind: ir.KindSort})
	require.NoError(t, s.WriteTransition(ctx, tr))
	require.NoError(t, s.WriteTransition(ctx, tr))

	// Same seq, different id: ignored by UNIQUE(session, seq).
	other := createTestTransition("s1", 1, ir.Intent{Kind: ir.KindAdd, Text: "x"})
	require.NoError(t, s.WriteTransition(ctx, other))

	got, err := s.ReadSession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, tr.ID, got[0].ID)
}

func TestReadSession_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadSession(t.Context(), "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = s.ReadSeed(t.Context(), "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestReadSession_EmptyNotNil(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()
	require.NoError(t, s.BeginSession(ctx, "s1", nil))

	got, err := s.ReadSession(ctx, "s1")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestReadRecordHistory(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()
	require.NoError(t, s.BeginSession(ctx, "s1", nil))

	add := createTestTransition("s1", 1, ir.Intent{Kind: ir.KindAdd, Text: "a"})
	add.AssignedID = "k1"
	add2 := createTestTransition("s1", 2, ir.Intent{Kind: ir.KindAdd, Text: "b"})
	add2.AssignedID = "k2"
	like := createTestTransition("s1", 3, ir.Intent{Kind: ir.KindLike, ID: "k1"})
	sort := createTestTransition("s1", 4, ir.Intent{Kind: ir.KindSort})
	remove := createTestTransition("s1", 5, ir.Intent{Kind: ir.KindRemove, ID: "k1"})

	for _, tr := range []ir.Transition{add, add2, like, sort, remove} {
		require.NoError(t, s.WriteTransition(ctx, tr))
	}

	got, err := s.ReadRecordHistory(ctx, "s1", "k1")
	require.NoError(t, err)

	var seqs []int64
	for _, tr := range got {
		seqs = append(seqs, tr.Seq)
	}
	assert.Equal(t, []int64{1, 3, 5}, seqs)
}

func TestListSessions(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()

	require.NoError(t, s.BeginSession(ctx, "b", nil))
	require.NoError(t, s.BeginSession(ctx, "a", seedArray(t)))
	require.NoError(t, s.WriteTransition(ctx, createTestTransition("a", 1, ir.Intent{Kind: ir.KindSort})))
	require.NoError(t, s.WriteTransition(ctx, createTestTransition("a", 2, ir.Intent{Kind: ir.KindSort})))

	sessions, err := s.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	assert.Equal(t, "a", sessions[0].Token)
	assert.Equal(t, 2, sessions[0].Transitions)
	assert.Equal(t, int64(2), sessions[0].LastSeq)
	assert.Equal(t, ir.EngineVersion, sessions[0].EngineVersion)

	assert.Equal(t, "b", sessions[1].Token)
	assert.Equal(t, 0, sessions[1].Transitions)
	assert.Equal(t, int64(0), sessions[1].LastSeq)
}

func TestLatestSession(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()

	_, err := s.LatestSession(ctx)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, s.BeginSession(ctx, "0190-a", nil))
	require.NoError(t, s.BeginSession(ctx, "0190-b", nil))

	token, err := s.LatestSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0190-b", token)
}

func TestReadTransitions_Filters(t *testing.T) {
	s := createTestStore(t)
	ctx := t.Context()
	require.NoError(t, s.BeginSession(ctx, "s1", seedArray(t)))

	add := createTestTransition("s1", 1, ir.Intent{Kind: ir.KindAdd, Text: "a"})
	add.AssignedID = "k1"
	miss := createTestTransition("s1", 2, ir.Intent{Kind: ir.KindLike, ID: "nope"})
	miss.Applied = false
	like := createTestTransition("s1", 3, ir.Intent{Kind: ir.KindLike, ID: "k1"})
	sort := createTestTransition("s1", 4, ir.Intent{Kind: ir.KindSort})
	for _, tr := range []ir.Transition{add, miss, like, sort} {
		require.NoError(t, s.WriteTransition(ctx, tr))
	}

	seqsOf := func(q queryir.TransitionQuery) []int64 {
		t.Helper()
		got, err := s.ReadTransitions(ctx, q)
		require.NoError(t, err)
		seqs := []int64{}
		for _, tr := range got {
			seqs = append(seqs, tr.Seq)
		}
		return seqs
	}

	base := queryir.ForSession("s1")
	assert.Equal(t, []int64{1, 2, 3, 4}, seqsOf(base))
	assert.Equal(t, []int64{2, 3}, seqsOf(base.Where(queryir.OfKind(ir.KindLike))))
	assert.Equal(t, []int64{2}, seqsOf(base.Where(queryir.Noops())))
	assert.Equal(t, []int64{3, 4}, seqsOf(base.Where(queryir.Since(3))))
	assert.Equal(t, []int64{1, 2}, seqsOf(base.First(2)))
	assert.Equal(t, []int64{}, seqsOf(queryir.ForSession("other")))
}

func TestReadTransitions_InvalidQuery(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadTransitions(t.Context(), queryir.TransitionQuery{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid query")
}

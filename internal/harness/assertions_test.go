package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/jokebox/internal/ir"
	"github.com/roach88/jokebox/internal/joke"
)

func intPtr(n int) *int { return &n }

func sampleResult() *Result {
	r := NewResult("s")
	r.Trace = []TraceEvent{
		{Seq: 1, Intent: ir.Intent{Kind: ir.KindAdd, Text: "a"}, AssignedID: "k1", Applied: true, Order: []joke.ID{"k1"}},
		{Seq: 2, Intent: ir.Intent{Kind: ir.KindAdd, Text: "b"}, AssignedID: "k2", Applied: true, Order: []joke.ID{"k2", "k1"}},
		{Seq: 3, Intent: ir.Intent{Kind: ir.KindLike, ID: "zz"}, Applied: false, Order: []joke.ID{"k2", "k1"}},
		{Seq: 4, Intent: ir.Intent{Kind: ir.KindSort}, Applied: true, Order: []joke.ID{"k2", "k1"}},
	}
	r.Final = []joke.Record{{ID: "k2", Text: "b"}, {ID: "k1", Text: "a"}}
	return r
}

func TestEvaluateAssertions_Passing(t *testing.T) {
	msgs := EvaluateAssertions(sampleResult(), []Assertion{
		{Type: AssertFinalOrder, Order: []string{"k2", "k1"}},
		{Type: AssertFinalScores, Scores: map[string]int64{"k1": 0}},
		{Type: AssertTraceCount, Count: intPtr(4)},
		{Type: AssertTraceCount, Kind: "add", Count: intPtr(2)},
		{Type: AssertTraceOrder, Kinds: []string{"add", "like", "sort"}},
		{Type: AssertTraceOrder, Kinds: []string{"add", "add"}},
		{Type: AssertUniqueIDs},
		{Type: AssertNoopCount, Count: intPtr(1)},
		{Type: AssertNoopCount, Kind: "remove", Count: intPtr(0)},
	})
	assert.Empty(t, msgs)
}

func TestEvaluateAssertions_Failing(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		msg       string
	}{
		{"final order", Assertion{Type: AssertFinalOrder, Order: []string{"k1", "k2"}}, "Actual: [k2 k1]"},
		{"final scores", Assertion{Type: AssertFinalScores, Scores: map[string]int64{"k1": 3}}, "k1 score 0"},
		{"trace count", Assertion{Type: AssertTraceCount, Kind: "sort", Count: intPtr(2)}, "2 sort transitions"},
		{"trace order", Assertion{Type: AssertTraceOrder, Kinds: []string{"sort", "add"}}, "missing add after position 1"},
		{"noop count", Assertion{Type: AssertNoopCount, Count: intPtr(0)}, "0 no-op all transitions"},
		{"unknown type", Assertion{Type: "final_state"}, "unknown assertion type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs := EvaluateAssertions(sampleResult(), []Assertion{tt.assertion})
			require.Len(t, msgs, 1)
			assert.Contains(t, msgs[0], tt.msg)
		})
	}
}

func TestAssertUniqueIDs_DetectsRepeats(t *testing.T) {
	repeatedInSnapshot := []TraceEvent{{Seq: 1, Order: []joke.ID{"a", "a"}}}
	err := assertUniqueIDs(repeatedInSnapshot)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id a repeated at seq 1")

	reassigned := []TraceEvent{
		{Seq: 1, AssignedID: "k1", Order: []joke.ID{"k1"}},
		{Seq: 2, Intent: ir.Intent{Kind: ir.KindRemove, ID: "k1"}, Order: nil},
		{Seq: 3, AssignedID: "k1", Order: []joke.ID{"k1"}},
	}
	err = assertUniqueIDs(reassigned)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "assigned at seq 1 and 3")
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{
		Type:     "expect",
		Step:     2,
		Expected: "order [a]",
		Actual:   "order [b]",
		Trace: []TraceEvent{
			{Seq: 1, Intent: ir.Intent{Kind: ir.KindAdd, Text: "x"}, AssignedID: "b", Applied: true, Order: []joke.ID{"b"}},
			{Seq: 2, Intent: ir.Intent{Kind: ir.KindLike, ID: "q"}, Applied: false, Order: []joke.ID{"b"}},
		},
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: expect (step 2)")
	assert.Contains(t, msg, "Expected: order [a]")
	assert.Contains(t, msg, "[1] add x -> b [b]")
	assert.Contains(t, msg, "[2] like q (no-op) [b]")
}

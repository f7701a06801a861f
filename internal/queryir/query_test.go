package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/jokebox/internal/ir"
)

func TestWhere_ChainsIntoFlatAnd(t *testing.T) {
	q := ForSession("s1")
	assert.Nil(t, q.Filter)

	q = q.Where(OfKind(ir.KindLike))
	assert.Equal(t, Equals{Field: FieldKind, Value: ir.IRString("like")}, q.Filter)

	q = q.Where(Noops()).Where(Since(3))
	and, ok := q.Filter.(And)
	require.True(t, ok, "filter should be an And, got %T", q.Filter)
	assert.Equal(t, []Predicate{
		Equals{Field: FieldKind, Value: ir.IRString("like")},
		Equals{Field: FieldApplied, Value: ir.IRBool(false)},
		AtLeast{Field: FieldSeq, Value: ir.IRInt(3)},
	}, and.Predicates)
}

func TestWhere_DoesNotAliasEarlierQuery(t *testing.T) {
	base := ForSession("s1").Where(And{Predicates: []Predicate{OfKind(ir.KindAdd)}})

	a := base.Where(Since(1))
	b := base.Where(Since(2))

	assert.Len(t, base.Filter.(And).Predicates, 1)
	assert.Equal(t, AtLeast{Field: FieldSeq, Value: 1}, a.Filter.(And).Predicates[1])
	assert.Equal(t, AtLeast{Field: FieldSeq, Value: 2}, b.Filter.(And).Predicates[1])
}

func TestTouching(t *testing.T) {
	or, ok := Touching("k1").(Or)
	require.True(t, ok)
	assert.Equal(t, []Predicate{
		Equals{Field: FieldAssignedID, Value: ir.IRString("k1")},
		Equals{Field: FieldRecordID, Value: ir.IRString("k1")},
	}, or.Predicates)
}

func TestFirst(t *testing.T) {
	q := ForSession("s1").First(5)
	assert.Equal(t, 5, q.Limit)
}

func TestValidate_Valid(t *testing.T) {
	tests := []struct {
		name  string
		query TransitionQuery
	}{
		{"whole session", ForSession("s1")},
		{"kind", ForSession("s1").Where(OfKind(ir.KindSort))},
		{"record history", ForSession("s1").Where(Touching("k1"))},
		{"noops since", ForSession("s1").Where(Noops()).Where(Since(10))},
		{"empty and", ForSession("s1").Where(And{})},
		{"size", ForSession("s1").Where(Equals{Field: FieldSize, Value: ir.IRInt(0)})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, Validate(tt.query))
		})
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		query   TransitionQuery
		path    string
		message string
	}{
		{
			name:    "missing session",
			query:   TransitionQuery{},
			path:    "session",
			message: "session is required",
		},
		{
			name:    "negative limit",
			query:   ForSession("s1").First(-1),
			path:    "limit",
			message: "must not be negative",
		},
		{
			name:    "unknown field",
			query:   ForSession("s1").Where(Equals{Field: "text", Value: ir.IRString("x")}),
			path:    "filter",
			message: `unknown field "text"`,
		},
		{
			name:    "mistyped value",
			query:   ForSession("s1").Where(Equals{Field: FieldApplied, Value: ir.IRString("yes")}),
			path:    "filter",
			message: `field "applied" cannot be compared to ir.IRString`,
		},
		{
			name:    "nil value",
			query:   ForSession("s1").Where(Equals{Field: FieldKind}),
			path:    "filter",
			message: "compared to nil",
		},
		{
			name:    "at least on string",
			query:   ForSession("s1").Where(AtLeast{Field: FieldKind, Value: 1}),
			path:    "filter",
			message: "is not an integer",
		},
		{
			name:    "empty or",
			query:   ForSession("s1").Where(Or{}),
			path:    "filter",
			message: "at least one predicate",
		},
		{
			name: "nested path",
			query: ForSession("s1").Where(Noops()).Where(Or{Predicates: []Predicate{
				Equals{Field: "bogus", Value: ir.IRInt(1)},
			}}),
			path:    "filter.and[1].or[0]",
			message: `unknown field "bogus"`,
		},
		{
			name:    "nil predicate in and",
			query:   ForSession("s1").Where(And{Predicates: []Predicate{nil}}),
			path:    "filter.and[0]",
			message: "nil predicate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(tt.query)
			require.Len(t, errs, 1, "errors: %v", errs)
			assert.Equal(t, tt.path, errs[0].Path)
			assert.Contains(t, errs[0].Message, tt.message)
			assert.Contains(t, errs[0].Error(), tt.path+": ")
		})
	}
}

func TestValidate_ReportsAllErrors(t *testing.T) {
	q := TransitionQuery{Filter: And{Predicates: []Predicate{
		Equals{Field: "nope", Value: ir.IRInt(1)},
		AtLeast{Field: FieldApplied, Value: 1},
	}}}

	errs := Validate(q)
	assert.Len(t, errs, 3)
}

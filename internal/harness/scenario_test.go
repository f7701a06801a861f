package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/jokebox/internal/joke"
)

func TestLoadScenario_EndToEnd(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/end_to_end.yaml")
	require.NoError(t, err)

	assert.Equal(t, "end_to_end", s.Name)
	assert.Equal(t, "k", s.IDPrefix)
	assert.Equal(t, "test-session-e2e", s.Session)
	require.Len(t, s.Steps, 4)
	assert.Equal(t, "add", s.Steps[0].Do)
	assert.Equal(t, "joke1", s.Steps[0].Text)
	assert.Equal(t, "k1", s.Steps[2].ID)
	require.NotNil(t, s.Steps[2].Expect)
	assert.Equal(t, map[string]int64{"k1": 1, "k2": 0}, s.Steps[2].Expect.Scores)
	assert.Len(t, s.Assertions, 7)
}

func TestLoadScenario_CatalogRelativeToFile(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/catalog_seed.yaml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("testdata", "scenarios", "..", "catalogs", "pair.cue"), s.Seed.Catalog)

	records, err := s.Seed.resolve()
	require.NoError(t, err)
	assert.Equal(t, []joke.ID{"x", "y"}, []joke.ID{records[0].ID, records[1].ID})
}

func TestLoadScenario_Missing(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/nope.yaml")
	assert.ErrorContains(t, err, "failed to read scenario file")
}

func TestParseScenario_SeedForms(t *testing.T) {
	tests := []struct {
		name string
		seed string
		want SeedSpec
	}{
		{"omitted", "", SeedSpec{}},
		{"empty", "seed: empty\n", SeedSpec{}},
		{"default", "seed: default\n", SeedSpec{Default: true}},
		{"catalog", "seed: {catalog: jokes.cue}\n", SeedSpec{Catalog: "jokes.cue"}},
		{"inline", "seed:\n  - {id: a, text: hi, score: 2}\n", SeedSpec{Records: []SeedRecord{{ID: "a", Text: "hi", Score: 2}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := "name: s\ndescription: d\n" + tt.seed + "steps:\n  - do: sort\n"
			s, err := ParseScenario([]byte(doc))
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Seed)
		})
	}
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		msg  string
	}{
		{
			name: "unknown field",
			doc:  "name: s\ndescription: d\nstep:\n  - do: sort\n",
			msg:  "field step not found",
		},
		{
			name: "missing name",
			doc:  "description: d\nsteps:\n  - do: sort\n",
			msg:  "name: is required",
		},
		{
			name: "missing description",
			doc:  "name: s\nsteps:\n  - do: sort\n",
			msg:  "description: is required",
		},
		{
			name: "no steps",
			doc:  "name: s\ndescription: d\n",
			msg:  "steps: is required",
		},
		{
			name: "unknown intent",
			doc:  "name: s\ndescription: d\nsteps:\n  - do: edit\n",
			msg:  `steps[0].do: unknown intent "edit"`,
		},
		{
			name: "like without id",
			doc:  "name: s\ndescription: d\nsteps:\n  - do: like\n",
			msg:  "steps[0]: id is required for like",
		},
		{
			name: "add with id",
			doc:  "name: s\ndescription: d\nsteps:\n  - do: add\n    id: k9\n",
			msg:  "add assigns its own id",
		},
		{
			name: "sort with text",
			doc:  "name: s\ndescription: d\nsteps:\n  - do: sort\n    text: x\n",
			msg:  "sort takes no id or text",
		},
		{
			name: "bad seed scalar",
			doc:  "name: s\ndescription: d\nseed: lots\nsteps:\n  - do: sort\n",
			msg:  "seed must be empty, default",
		},
		{
			name: "seed record without id",
			doc:  "name: s\ndescription: d\nseed:\n  - {text: x}\nsteps:\n  - do: sort\n",
			msg:  "id: is required",
		},
		{
			name: "unknown assertion",
			doc:  "name: s\ndescription: d\nsteps:\n  - do: sort\nassertions:\n  - type: final_state\n",
			msg:  "must be one of",
		},
		{
			name: "trace_count without count",
			doc:  "name: s\ndescription: d\nsteps:\n  - do: sort\nassertions:\n  - type: trace_count\n",
			msg:  "count is required for trace_count",
		},
		{
			name: "final_order without order",
			doc:  "name: s\ndescription: d\nsteps:\n  - do: sort\nassertions:\n  - type: final_order\n",
			msg:  "order is required for final_order",
		},
		{
			name: "trace_order with unknown kind",
			doc:  "name: s\ndescription: d\nsteps:\n  - do: sort\nassertions:\n  - type: trace_order\n    kinds: [add, bump]\n",
			msg:  `unknown intent "bump"`,
		},
		{
			name: "assigned on non-add",
			doc:  "name: s\ndescription: d\nsteps:\n  - do: sort\n    expect:\n      assigned: k1\n",
			msg:  "assigned is only valid for add",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestParseScenario_FinalOrderEmptyList(t *testing.T) {
	doc := "name: s\ndescription: d\nsteps:\n  - do: sort\nassertions:\n  - type: final_order\n    order: []\n"
	_, err := ParseScenario([]byte(doc))
	assert.NoError(t, err)
}

func TestFindScenarios(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.yaml", "a.yml", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.yaml"), 0o755))

	paths, err := FindScenarios(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.yml"), filepath.Join(dir, "b.yaml")}, paths)
}

package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/jokebox/internal/compiler"
	"github.com/roach88/jokebox/internal/ir"
	"github.com/roach88/jokebox/internal/joke"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name" validate:"required,excludesall=/\\"`

	// Description explains what this scenario validates.
	Description string `yaml:"description" validate:"required"`

	// Seed is the sequence the store starts from.
	Seed SeedSpec `yaml:"seed,omitempty"`

	// IDPrefix prefixes sequential record ids. Defaults to "k".
	IDPrefix string `yaml:"id_prefix,omitempty" validate:"omitempty,excludesall= \t"`

	// Session is a fixed session token. Defaults to "test-session-default".
	Session string `yaml:"session,omitempty"`

	// Steps are applied in order through the engine.
	Steps []Step `yaml:"steps" validate:"required,min=1,dive"`

	// Assertions validate the trace and final sequence.
	Assertions []Assertion `yaml:"assertions,omitempty" validate:"dive"`
}

// SeedSpec selects the starting sequence. In YAML it is one of:
//
//	seed: empty                     # no records (also the default)
//	seed: default                   # the two built-in jokes
//	seed: {catalog: jokes.cue}      # a CUE seed catalog, relative to the scenario
//	seed:                           # inline records
//	  - {id: a, text: "...", score: 3}
type SeedSpec struct {
	Default bool
	Catalog string
	Records []SeedRecord `validate:"dive"`
}

// SeedRecord is an inline seed record.
type SeedRecord struct {
	ID    string `yaml:"id" validate:"required,excludesall= \t"`
	Text  string `yaml:"text"`
	Score int64  `yaml:"score"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *SeedSpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		switch node.Value {
		case "", "empty":
			*s = SeedSpec{}
		case "default":
			*s = SeedSpec{Default: true}
		default:
			return fmt.Errorf("line %d: seed must be empty, default, a list or {catalog: path}, got %q", node.Line, node.Value)
		}
		return nil

	case yaml.SequenceNode:
		var records []SeedRecord
		if err := node.Decode(&records); err != nil {
			return err
		}
		*s = SeedSpec{Records: records}
		return nil

	case yaml.MappingNode:
		var ref struct {
			Catalog string `yaml:"catalog"`
		}
		if err := node.Decode(&ref); err != nil {
			return err
		}
		if ref.Catalog == "" {
			return fmt.Errorf("line %d: seed mapping requires catalog", node.Line)
		}
		*s = SeedSpec{Catalog: ref.Catalog}
		return nil

	default:
		return fmt.Errorf("line %d: unsupported seed form", node.Line)
	}
}

// resolve returns the records the store starts with.
func (s SeedSpec) resolve() ([]joke.Record, error) {
	switch {
	case s.Default:
		return joke.DefaultSeed(), nil
	case s.Catalog != "":
		return compiler.LoadSeedFile(s.Catalog)
	default:
		records := make([]joke.Record, len(s.Records))
		for i, r := range s.Records {
			records[i] = joke.Record{ID: joke.ID(r.ID), Text: r.Text, Score: r.Score}
		}
		return records, nil
	}
}

// Step is one intent applied through the engine.
type Step struct {
	// Do is the intent kind: add, remove, like, dislike or sort.
	Do string `yaml:"do" validate:"required,intentkind"`

	// ID names the record for remove, like and dislike.
	ID string `yaml:"id,omitempty"`

	// Text is the joke text for add. Empty text is allowed.
	Text string `yaml:"text,omitempty"`

	// Expect checks the sequence right after this step.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Intent converts the step to an engine intent.
func (s Step) Intent() ir.Intent {
	return ir.Intent{Kind: ir.IntentKind(s.Do), ID: s.ID, Text: s.Text}
}

// Expect checks the sequence after a step. Unset fields are not checked.
type Expect struct {
	// Order is the full id order, top to bottom.
	Order []string `yaml:"order,omitempty"`

	// Scores maps ids to expected scores (subset match).
	Scores map[string]int64 `yaml:"scores,omitempty"`

	// Applied is false when the step should have named an unknown id.
	Applied *bool `yaml:"applied,omitempty"`

	// Assigned is the id an add step should have created.
	Assigned string `yaml:"assigned,omitempty"`
}

// Assertion validates the trace or the final sequence.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type" validate:"required,oneof=final_order final_scores trace_count trace_order unique_ids noop_count"`

	// Order is the expected final id order (final_order).
	Order []string `yaml:"order,omitempty"`

	// Scores are expected final scores (final_scores).
	Scores map[string]int64 `yaml:"scores,omitempty"`

	// Kind restricts trace_count and noop_count to one intent kind.
	Kind string `yaml:"kind,omitempty" validate:"omitempty,intentkind"`

	// Kinds is the expected relative order of kinds (trace_order).
	Kinds []string `yaml:"kinds,omitempty" validate:"dive,intentkind"`

	// Count is the expected number of transitions (trace_count, noop_count).
	Count *int `yaml:"count,omitempty" validate:"omitempty,min=0"`
}

// Assertion type constants.
const (
	AssertFinalOrder  = "final_order"
	AssertFinalScores = "final_scores"
	AssertTraceCount  = "trace_count"
	AssertTraceOrder  = "trace_order"
	AssertUniqueIDs   = "unique_ids"
	AssertNoopCount   = "noop_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or fails validation.
//
// A seed catalog path is resolved relative to the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if c := scenario.Seed.Catalog; c != "" && !filepath.IsAbs(c) {
		scenario.Seed.Catalog = filepath.Join(filepath.Dir(path), c)
	}

	return scenario, nil
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// FindScenarios returns the .yaml and .yml files in dir, sorted by name.
func FindScenarios(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scenario dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	slices.Sort(paths)
	return paths, nil
}

// validateScenario runs struct tag validation, then the checks that depend
// on more than one field.
func validateScenario(s *Scenario) error {
	if err := validate(s); err != nil {
		return err
	}

	var errs []error
	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			errs = append(errs, err)
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func validateStep(index int, step Step) error {
	kind := ir.IntentKind(step.Do)
	switch {
	case kind.NeedsID() && step.ID == "":
		return fmt.Errorf("steps[%d]: id is required for %s", index, kind)
	case kind.NeedsID() && step.Text != "":
		return fmt.Errorf("steps[%d]: text is not allowed for %s", index, kind)
	case kind == ir.KindAdd && step.ID != "":
		return fmt.Errorf("steps[%d]: add assigns its own id; id is not allowed", index)
	case kind == ir.KindSort && (step.ID != "" || step.Text != ""):
		return fmt.Errorf("steps[%d]: sort takes no id or text", index)
	}
	if step.Expect != nil && step.Expect.Assigned != "" && kind != ir.KindAdd {
		return fmt.Errorf("steps[%d].expect: assigned is only valid for add", index)
	}
	return nil
}

// validateAssertion validates the fields a single assertion type needs.
func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case AssertFinalOrder:
		if a.Order == nil {
			return fmt.Errorf("assertions[%d]: order is required for final_order (use [] for empty)", index)
		}
	case AssertFinalScores:
		if len(a.Scores) == 0 {
			return fmt.Errorf("assertions[%d]: scores is required for final_scores", index)
		}
	case AssertTraceCount, AssertNoopCount:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for %s", index, a.Type)
		}
	case AssertTraceOrder:
		if len(a.Kinds) == 0 {
			return fmt.Errorf("assertions[%d]: kinds is required for trace_order", index)
		}
	}
	return nil
}

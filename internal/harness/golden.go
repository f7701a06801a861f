package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/jokebox/internal/ir"
	"github.com/roach88/jokebox/internal/joke"
)

// TraceSnapshot captures the trace and final sequence of a scenario run.
// It serializes to canonical JSON for byte-stable golden files.
type TraceSnapshot struct {
	ScenarioName string
	Session      string
	Trace        []TraceEvent
	Final        []joke.Record
}

// NewTraceSnapshot captures result under the given scenario name.
func NewTraceSnapshot(scenarioName string, result *Result) *TraceSnapshot {
	return &TraceSnapshot{
		ScenarioName: scenarioName,
		Session:      result.Session,
		Trace:        result.Trace,
		Final:        result.Final,
	}
}

// Canonical returns the snapshot as an IRObject.
func (s *TraceSnapshot) Canonical() ir.IRObject {
	trace := make(ir.IRArray, len(s.Trace))
	for i, event := range s.Trace {
		order := make(ir.IRArray, len(event.Order))
		for j, id := range event.Order {
			order[j] = ir.IRString(id)
		}
		obj := ir.IRObject{
			"seq":           ir.IRInt(event.Seq),
			"intent":        event.Intent.Canonical(),
			"applied":       ir.IRBool(event.Applied),
			"order":         order,
			"snapshot_hash": ir.IRString(event.SnapshotHash),
		}
		if event.AssignedID != "" {
			obj["assigned_id"] = ir.IRString(event.AssignedID)
		}
		trace[i] = obj
	}

	final := make(ir.IRArray, len(s.Final))
	for i, r := range s.Final {
		final[i] = r.Canonical()
	}

	return ir.IRObject{
		"scenario_name": ir.IRString(s.ScenarioName),
		"session":       ir.IRString(s.Session),
		"trace":         trace,
		"final":         final,
	}
}

// MarshalCanonical returns the snapshot as RFC 8785 canonical JSON.
func (s *TraceSnapshot) MarshalCanonical() ([]byte, error) {
	return ir.MarshalCanonical(s.Canonical())
}

// RunWithGolden executes a scenario and compares the trace against a
// golden file in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails. Test failure (via goldie)
// occurs if the trace doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := NewTraceSnapshot(scenarioName, result).MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}

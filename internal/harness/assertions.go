package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/jokebox/internal/joke"
)

// AssertionError is returned when an assertion fails.
// It includes the trace so a failure can be read without rerunning.
type AssertionError struct {
	Type     string       // Assertion type, or "expect" for a step clause
	Step     int          // Step index for expect clauses, -1 otherwise
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Trace up to the failure
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	if e.Step >= 0 {
		fmt.Fprintf(&buf, "Assertion failed: %s (step %d)\n", e.Type, e.Step)
	} else {
		fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	}
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		line := event.Intent.String()
		if event.AssignedID != "" {
			line += " -> " + event.AssignedID
		}
		if !event.Applied {
			line += " (no-op)"
		}
		fmt.Fprintf(&buf, "  [%d] %s %v\n", event.Seq, line, event.Order)
	}

	return buf.String()
}

// checkExpect validates one step's expect clause against the sequence it
// produced.
func checkExpect(step int, exp *Expect, event TraceEvent, seq joke.Sequence, trace []TraceEvent) []error {
	var errs []error
	fail := func(expected, actual string) {
		errs = append(errs, &AssertionError{
			Type:     "expect",
			Step:     step,
			Expected: expected,
			Actual:   actual,
			Trace:    trace,
		})
	}

	if exp.Order != nil {
		if got := idStrings(event.Order); !slices.Equal(got, exp.Order) {
			fail(fmt.Sprintf("order %v", exp.Order), fmt.Sprintf("order %v", got))
		}
	}

	for _, msg := range scoreMismatches(exp.Scores, seq) {
		fail(msg.expected, msg.actual)
	}

	if exp.Applied != nil && *exp.Applied != event.Applied {
		fail(fmt.Sprintf("applied=%t", *exp.Applied), fmt.Sprintf("applied=%t", event.Applied))
	}

	if exp.Assigned != "" && exp.Assigned != event.AssignedID {
		fail(fmt.Sprintf("assigned id %s", exp.Assigned), fmt.Sprintf("assigned id %s", event.AssignedID))
	}

	return errs
}

// EvaluateAssertions runs every assertion and returns failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var msgs []string
	for _, a := range assertions {
		if err := evaluateAssertion(result, a); err != nil {
			msgs = append(msgs, err.Error())
		}
	}
	return msgs
}

func evaluateAssertion(result *Result, a Assertion) error {
	switch a.Type {
	case AssertFinalOrder:
		return assertFinalOrder(result, a)
	case AssertFinalScores:
		return assertFinalScores(result, a)
	case AssertTraceCount:
		return assertTraceCount(result.Trace, a)
	case AssertTraceOrder:
		return assertTraceOrder(result.Trace, a)
	case AssertUniqueIDs:
		return assertUniqueIDs(result.Trace)
	case AssertNoopCount:
		return assertNoopCount(result.Trace, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertFinalOrder(result *Result, a Assertion) error {
	got := make([]string, len(result.Final))
	for i, r := range result.Final {
		got[i] = string(r.ID)
	}
	if slices.Equal(got, a.Order) {
		return nil
	}
	return &AssertionError{
		Type:     AssertFinalOrder,
		Step:     -1,
		Expected: fmt.Sprintf("%v", a.Order),
		Actual:   fmt.Sprintf("%v", got),
		Trace:    result.Trace,
	}
}

func assertFinalScores(result *Result, a Assertion) error {
	seq, err := joke.NewSequence(result.Final...)
	if err != nil {
		return err
	}
	mismatches := scoreMismatches(a.Scores, seq)
	if len(mismatches) == 0 {
		return nil
	}
	expected := make([]string, len(mismatches))
	actual := make([]string, len(mismatches))
	for i, m := range mismatches {
		expected[i] = m.expected
		actual[i] = m.actual
	}
	return &AssertionError{
		Type:     AssertFinalScores,
		Step:     -1,
		Expected: strings.Join(expected, "; "),
		Actual:   strings.Join(actual, "; "),
		Trace:    result.Trace,
	}
}

// assertTraceCount checks the number of transitions, of one kind if set.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	got := countEvents(trace, a.Kind, func(TraceEvent) bool { return true })
	if got == *a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceCount,
		Step:     -1,
		Expected: fmt.Sprintf("%d %s transitions", *a.Count, kindLabel(a.Kind)),
		Actual:   fmt.Sprintf("%d", got),
		Trace:    trace,
	}
}

// assertNoopCount checks the number of transitions that named an unknown id.
func assertNoopCount(trace []TraceEvent, a Assertion) error {
	got := countEvents(trace, a.Kind, func(e TraceEvent) bool { return !e.Applied })
	if got == *a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertNoopCount,
		Step:     -1,
		Expected: fmt.Sprintf("%d no-op %s transitions", *a.Count, kindLabel(a.Kind)),
		Actual:   fmt.Sprintf("%d", got),
		Trace:    trace,
	}
}

// assertTraceOrder checks that the kinds appear in this relative order.
// Intervening transitions are allowed.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	next := 0
	for _, event := range trace {
		if next < len(a.Kinds) && string(event.Intent.Kind) == a.Kinds[next] {
			next++
		}
	}
	if next == len(a.Kinds) {
		return nil
	}

	got := make([]string, len(trace))
	for i, e := range trace {
		got[i] = string(e.Intent.Kind)
	}
	return &AssertionError{
		Type:     AssertTraceOrder,
		Step:     -1,
		Expected: fmt.Sprintf("kinds in order: %v", a.Kinds),
		Actual:   fmt.Sprintf("%v (missing %s after position %d)", got, a.Kinds[next], next),
		Trace:    trace,
	}
}

// assertUniqueIDs checks that no snapshot contains an id twice and that
// every add produced an id not seen before in the run.
func assertUniqueIDs(trace []TraceEvent) error {
	assigned := make(map[string]int64)
	for _, event := range trace {
		seen := make(map[joke.ID]bool, len(event.Order))
		for _, id := range event.Order {
			if seen[id] {
				return &AssertionError{
					Type:     AssertUniqueIDs,
					Step:     -1,
					Expected: "distinct ids in every snapshot",
					Actual:   fmt.Sprintf("id %s repeated at seq %d", id, event.Seq),
					Trace:    trace,
				}
			}
			seen[id] = true
		}

		if event.AssignedID == "" {
			continue
		}
		if first, dup := assigned[event.AssignedID]; dup {
			return &AssertionError{
				Type:     AssertUniqueIDs,
				Step:     -1,
				Expected: "every add assigns a fresh id",
				Actual:   fmt.Sprintf("id %s assigned at seq %d and %d", event.AssignedID, first, event.Seq),
				Trace:    trace,
			}
		}
		assigned[event.AssignedID] = event.Seq
	}
	return nil
}

type scoreMismatch struct {
	expected string
	actual   string
}

// scoreMismatches compares expected scores against seq, sorted by id for
// stable messages.
func scoreMismatches(want map[string]int64, seq joke.Sequence) []scoreMismatch {
	ids := make([]string, 0, len(want))
	for id := range want {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var out []scoreMismatch
	for _, id := range ids {
		r, ok := seq.Find(joke.ID(id))
		switch {
		case !ok:
			out = append(out, scoreMismatch{
				expected: fmt.Sprintf("%s score %d", id, want[id]),
				actual:   fmt.Sprintf("%s not in sequence", id),
			})
		case r.Score != want[id]:
			out = append(out, scoreMismatch{
				expected: fmt.Sprintf("%s score %d", id, want[id]),
				actual:   fmt.Sprintf("%s score %d", id, r.Score),
			})
		}
	}
	return out
}

func countEvents(trace []TraceEvent, kind string, match func(TraceEvent) bool) int {
	n := 0
	for _, e := range trace {
		if kind != "" && string(e.Intent.Kind) != kind {
			continue
		}
		if match(e) {
			n++
		}
	}
	return n
}

func kindLabel(kind string) string {
	if kind == "" {
		return "all"
	}
	return kind
}

func idStrings(ids []joke.ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

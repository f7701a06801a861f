package harness

import (
	"github.com/roach88/jokebox/internal/ir"
	"github.com/roach88/jokebox/internal/joke"
)

// TraceEvent is one applied step as seen by assertions and golden files.
type TraceEvent struct {
	Seq          int64     `json:"seq"`
	Intent       ir.Intent `json:"intent"`
	AssignedID   string    `json:"assigned_id,omitempty"`
	Applied      bool      `json:"applied"`
	Order        []joke.ID `json:"order"` // ids after the transition, top to bottom
	SnapshotHash string    `json:"snapshot_hash"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Session is the token the scenario ran under.
	Session string `json:"session"`

	// Trace contains one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Final is the sequence after the last step.
	Final []joke.Record `json:"final"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(session string) *Result {
	return &Result{
		Pass:    true,
		Session: session,
		Trace:   []TraceEvent{},
		Final:   []joke.Record{},
		Errors:  []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends the event for a transition and the sequence it produced.
func (r *Result) AddTrace(tr ir.Transition, seq joke.Sequence) {
	r.Trace = append(r.Trace, TraceEvent{
		Seq:          tr.Seq,
		Intent:       tr.Intent,
		AssignedID:   tr.AssignedID,
		Applied:      tr.Applied,
		Order:        seq.IDs(),
		SnapshotHash: tr.SnapshotHash,
	})
}

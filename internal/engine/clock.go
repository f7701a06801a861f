package engine

import (
	"sync/atomic"

	"github.com/roach88/jokebox/internal/ir"
)

// Clock hands out transition seqs: 1 for the first intent of a session,
// then one more for every intent that reaches the store, no-ops included.
// Rejected intents never draw a seq. The zero value is ready to use.
type Clock struct {
	last atomic.Int64
}

// NewClock returns a clock whose first stamp is 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt returns a clock that has already stamped last.
func NewClockAt(last int64) *Clock {
	c := &Clock{}
	c.last.Store(last)
	return c
}

// ClockFor positions a clock to restamp a journaled timeline: its first
// stamp is the seq of the first transition. An empty timeline starts at 1.
func ClockFor(transitions []ir.Transition) *Clock {
	if len(transitions) == 0 {
		return NewClock()
	}
	return NewClockAt(transitions[0].Seq - 1)
}

// Next stamps one intent.
func (c *Clock) Next() int64 {
	return c.last.Add(1)
}

// Current is the last seq stamped, 0 before the first intent.
func (c *Clock) Current() int64 {
	return c.last.Load()
}

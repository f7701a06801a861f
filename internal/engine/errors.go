package engine

import (
	"errors"
	"fmt"
)

// RuntimeError is an error raised by the engine around a transition.
// The record store never fails; these errors come from intent validation
// and from the journal.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Session identifies the engine run.
	Session string

	// Seq is the logical clock value, zero if none was assigned.
	Seq int64

	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeUnknownIntent indicates an intent kind the store has no
	// transition for.
	ErrCodeUnknownIntent RuntimeErrorCode = "UNKNOWN_INTENT"

	// ErrCodeMissingID indicates remove/like/dislike without a record id.
	ErrCodeMissingID RuntimeErrorCode = "MISSING_ID"

	// ErrCodeJournalWrite indicates the journal rejected a transition. The
	// transition itself has already been applied.
	ErrCodeJournalWrite RuntimeErrorCode = "JOURNAL_WRITE"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Session != "" && e.Seq != 0 {
		msg = fmt.Sprintf("%s (session=%s, seq=%d)", msg, e.Session, e.Seq)
	} else if e.Session != "" {
		msg = fmt.Sprintf("%s (session=%s)", msg, e.Session)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsRejected reports whether err is an intent validation failure, meaning
// the store was not touched.
// Uses errors.As to handle wrapped errors.
func IsRejected(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeUnknownIntent || re.Code == ErrCodeMissingID
	}
	return false
}

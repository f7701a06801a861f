package compiler

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/roach88/jokebox/internal/joke"
)

// Validation error codes (E100-E199)
const (
	ErrSeedEmptyID     = "E101" // id is empty
	ErrSeedDuplicateID = "E102" // id used by an earlier record
	ErrSeedIDSpace     = "E103" // id contains whitespace
)

// ValidationError represents a seed validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidateSeed checks records a store will be seeded with.
// Returns all errors found (does not fail-fast).
//
// Ids containing whitespace are reported because the line-based intent
// syntax cannot name them.
func ValidateSeed(records []joke.Record) []ValidationError {
	var errs []ValidationError
	seen := make(map[joke.ID]int, len(records))

	for i, r := range records {
		field := fmt.Sprintf("jokes[%d].id", i)

		if r.ID == "" {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: "id is required",
				Code:    ErrSeedEmptyID,
			})
			continue
		}

		if first, dup := seen[r.ID]; dup {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("duplicate id %q (first used at jokes[%d])", r.ID, first),
				Code:    ErrSeedDuplicateID,
			})
		} else {
			seen[r.ID] = i
		}

		if strings.IndexFunc(string(r.ID), unicode.IsSpace) >= 0 {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("id %q contains whitespace and cannot be named by an intent", r.ID),
				Code:    ErrSeedIDSpace,
			})
		}
	}

	return errs
}

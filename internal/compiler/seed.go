package compiler

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/jokebox/internal/joke"
)

//go:embed schema.cue
var schemaCUE string

// CompileSeed decodes a seed catalog into records in catalog order.
//
// The value must have a jokes field. Duplicate ids are rejected, since a
// store cannot be seeded with them.
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`jokes: [{id: "a", text: "..."}]`)
//	records, err := CompileSeed(v)
func CompileSeed(v cue.Value) ([]joke.Record, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	if !v.LookupPath(cue.ParsePath("jokes")).Exists() {
		return nil, &CompileError{
			Field:   "jokes",
			Message: "jokes is required",
			Pos:     v.Pos(),
		}
	}

	schema := v.Context().CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("embedded schema: %w", err)
	}

	unified := schema.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	iter, err := unified.LookupPath(cue.ParsePath("jokes")).List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var records []joke.Record
	seen := make(map[joke.ID]int)
	for i := 0; iter.Next(); i++ {
		elem := iter.Value()
		r, err := compileJoke(elem, i)
		if err != nil {
			return nil, err
		}
		if first, dup := seen[r.ID]; dup {
			return nil, &CompileError{
				Field:   fmt.Sprintf("jokes[%d].id", i),
				Message: fmt.Sprintf("duplicate id %q (first used at jokes[%d])", r.ID, first),
				Pos:     elem.LookupPath(cue.ParsePath("id")).Pos(),
			}
		}
		seen[r.ID] = i
		records = append(records, r)
	}

	return records, nil
}

func compileJoke(v cue.Value, i int) (joke.Record, error) {
	id, err := v.LookupPath(cue.ParsePath("id")).String()
	if err != nil {
		return joke.Record{}, formatCUEError(err)
	}

	text, err := v.LookupPath(cue.ParsePath("text")).String()
	if err != nil {
		return joke.Record{}, formatCUEError(err)
	}

	scoreVal := v.LookupPath(cue.ParsePath("score"))
	if def, ok := scoreVal.Default(); ok {
		scoreVal = def
	}
	score, err := scoreVal.Int64()
	if err != nil {
		return joke.Record{}, &CompileError{
			Field:   fmt.Sprintf("jokes[%d].score", i),
			Message: err.Error(),
			Pos:     scoreVal.Pos(),
		}
	}

	return joke.Record{ID: joke.ID(id), Text: text, Score: score}, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}

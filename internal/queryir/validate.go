package queryir

import (
	"fmt"

	"github.com/roach88/jokebox/internal/ir"
)

// ValidationError locates one problem in a query.
type ValidationError struct {
	Path    string // e.g. "filter.and[1].or[0]"
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Validate reports every problem in q. An empty result means any backend
// can run it.
func Validate(q TransitionQuery) []ValidationError {
	v := &validator{}
	if q.Session == "" {
		v.add("session", "session is required")
	}
	if q.Limit < 0 {
		v.add("limit", "limit must not be negative, got %d", q.Limit)
	}
	if q.Filter != nil {
		v.predicate("filter", q.Filter)
	}
	return v.errs
}

type validator struct {
	errs []ValidationError
}

func (v *validator) add(path, format string, args ...any) {
	v.errs = append(v.errs, ValidationError{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) predicate(path string, p Predicate) {
	switch pred := p.(type) {
	case nil:
		v.add(path, "nil predicate")
	case Equals:
		v.equals(path, pred)
	case AtLeast:
		ft, ok := fieldTypes[pred.Field]
		switch {
		case !ok:
			v.add(path, "unknown field %q", pred.Field)
		case ft != typeInt:
			v.add(path, "field %q is not an integer and cannot be compared with >=", pred.Field)
		}
	case And:
		for i, sub := range pred.Predicates {
			v.predicate(fmt.Sprintf("%s.and[%d]", path, i), sub)
		}
	case Or:
		if len(pred.Predicates) == 0 {
			v.add(path, "or needs at least one predicate")
		}
		for i, sub := range pred.Predicates {
			v.predicate(fmt.Sprintf("%s.or[%d]", path, i), sub)
		}
	default:
		v.add(path, "unsupported predicate %T", p)
	}
}

func (v *validator) equals(path string, eq Equals) {
	ft, ok := fieldTypes[eq.Field]
	if !ok {
		v.add(path, "unknown field %q", eq.Field)
		return
	}

	var match bool
	switch eq.Value.(type) {
	case ir.IRString:
		match = ft == typeString
	case ir.IRInt:
		match = ft == typeInt
	case ir.IRBool:
		match = ft == typeBool
	case nil:
		v.add(path, "field %q compared to nil; journaled columns are never null", eq.Field)
		return
	default:
		v.add(path, "field %q cannot be compared to %T", eq.Field, eq.Value)
		return
	}
	if !match {
		v.add(path, "field %q cannot be compared to %T", eq.Field, eq.Value)
	}
}

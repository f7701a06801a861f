// Package querysql compiles transition queries to parameterized SQLite.
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/jokebox/internal/ir"
	"github.com/roach88/jokebox/internal/queryir"
)

// TransitionColumns is the column list every compiled query selects, in
// the order the journal scans them.
const TransitionColumns = "id, session, seq, kind, record_id, text, assigned_id, applied, size, snapshot_hash"

// orderBy fixes the row order. seq is unique per session; id breaks ties
// for journals written before the unique index existed.
const orderBy = "ORDER BY seq ASC, id COLLATE BINARY ASC"

// Compile converts q to SQL and its parameters.
//
// Values are always bound as parameters and never appear in the SQL text.
// Field names come from queryir's fixed set, so they are safe to inline.
func Compile(q queryir.TransitionQuery) (string, []any, error) {
	if errs := queryir.Validate(q); len(errs) > 0 {
		return "", nil, fmt.Errorf("invalid query: %w", errs[0])
	}

	var b strings.Builder
	params := []any{q.Session}

	b.WriteString("SELECT ")
	b.WriteString(TransitionColumns)
	b.WriteString(" FROM transitions WHERE session = ?")

	if q.Filter != nil {
		sql, filterParams, err := compilePredicate(q.Filter)
		if err != nil {
			return "", nil, err
		}
		b.WriteString(" AND ")
		b.WriteString(sql)
		params = append(params, filterParams...)
	}

	b.WriteString(" ")
	b.WriteString(orderBy)

	if q.Limit > 0 {
		b.WriteString(" LIMIT ?")
		params = append(params, q.Limit)
	}

	return b.String(), params, nil
}

func compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case queryir.Equals:
		param, err := toParam(pred.Value)
		if err != nil {
			return "", nil, fmt.Errorf("field %s: %w", pred.Field, err)
		}
		return fmt.Sprintf("%s = ?", pred.Field), []any{param}, nil

	case queryir.AtLeast:
		return fmt.Sprintf("%s >= ?", pred.Field), []any{int64(pred.Value)}, nil

	case queryir.And:
		if len(pred.Predicates) == 0 {
			return "1 = 1", nil, nil
		}
		return compileJoined(pred.Predicates, " AND ")

	case queryir.Or:
		return compileJoined(pred.Predicates, " OR ")

	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// compileJoined parenthesizes the group so precedence never depends on
// the caller.
func compileJoined(preds []queryir.Predicate, sep string) (string, []any, error) {
	parts := make([]string, 0, len(preds))
	var params []any
	for _, p := range preds {
		sql, ps, err := compilePredicate(p)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		params = append(params, ps...)
	}
	return "(" + strings.Join(parts, sep) + ")", params, nil
}

// toParam converts an IRValue to the Go value the SQLite driver binds.
// Booleans are stored as 0 and 1.
func toParam(v ir.IRValue) (any, error) {
	switch val := v.(type) {
	case ir.IRString:
		return string(val), nil
	case ir.IRInt:
		return int64(val), nil
	case ir.IRBool:
		if val {
			return int64(1), nil
		}
		return int64(0), nil
	default:
		return nil, fmt.Errorf("unsupported value type for SQL parameter: %T", v)
	}
}

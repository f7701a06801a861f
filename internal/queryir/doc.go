// Package queryir describes which journaled transitions to read.
//
// A TransitionQuery names one session and an optional filter built from
// sealed Predicate types:
//
//	Equals{Field, Value}   field = value
//	AtLeast{Field, Value}  field >= value (integer fields only)
//	And{Predicates}        all hold (empty: always true)
//	Or{Predicates}         any holds (must not be empty)
//
// Values are ir.IRValue so filters stay within the same value model the
// journal is written with. Queries carry no SQL: internal/querysql compiles
// them for the SQLite journal, and Validate rejects unknown fields and
// mistyped values before any backend sees them.
//
//	q := queryir.ForSession(token).
//		Where(queryir.OfKind(ir.KindLike)).
//		Where(queryir.Noops())
//
// Transitions always come back in seq order; a filter cannot change that.
package queryir

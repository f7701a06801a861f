package queryir

import "github.com/roach88/jokebox/internal/ir"

// Field names a transition column a predicate may test.
type Field string

const (
	FieldSeq        Field = "seq"
	FieldKind       Field = "kind"
	FieldRecordID   Field = "record_id"   // id named by remove, like, dislike
	FieldAssignedID Field = "assigned_id" // id created by add
	FieldApplied    Field = "applied"
	FieldSize       Field = "size"
)

// valueType is the ir value type a field compares against.
type valueType int

const (
	typeString valueType = iota
	typeInt
	typeBool
)

var fieldTypes = map[Field]valueType{
	FieldSeq:        typeInt,
	FieldKind:       typeString,
	FieldRecordID:   typeString,
	FieldAssignedID: typeString,
	FieldApplied:    typeBool,
	FieldSize:       typeInt,
}

// Predicate filters transitions. Only types in this package implement it.
type Predicate interface {
	predicateNode()
}

// Equals holds when Field equals Value.
type Equals struct {
	Field Field
	Value ir.IRValue
}

func (Equals) predicateNode() {}

// AtLeast holds when the integer Field is >= Value.
type AtLeast struct {
	Field Field
	Value ir.IRInt
}

func (AtLeast) predicateNode() {}

// And holds when every predicate holds. Empty means always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Or holds when any predicate holds. It must not be empty.
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}

// TransitionQuery selects the transitions of one session.
type TransitionQuery struct {
	Session string
	Filter  Predicate // nil selects every transition
	Limit   int       // 0 means no limit
}

// ForSession selects every transition of session.
func ForSession(session string) TransitionQuery {
	return TransitionQuery{Session: session}
}

// Where narrows q by p. Successive calls are ANDed.
func (q TransitionQuery) Where(p Predicate) TransitionQuery {
	switch existing := q.Filter.(type) {
	case nil:
		q.Filter = p
	case And:
		preds := make([]Predicate, 0, len(existing.Predicates)+1)
		preds = append(preds, existing.Predicates...)
		q.Filter = And{Predicates: append(preds, p)}
	default:
		q.Filter = And{Predicates: []Predicate{existing, p}}
	}
	return q
}

// First keeps at most n transitions.
func (q TransitionQuery) First(n int) TransitionQuery {
	q.Limit = n
	return q
}

// OfKind matches transitions of one intent kind.
func OfKind(kind ir.IntentKind) Predicate {
	return Equals{Field: FieldKind, Value: ir.IRString(kind)}
}

// Touching matches transitions that created or named a record. Sorts
// touch every record and are not included.
func Touching(id string) Predicate {
	return Or{Predicates: []Predicate{
		Equals{Field: FieldAssignedID, Value: ir.IRString(id)},
		Equals{Field: FieldRecordID, Value: ir.IRString(id)},
	}}
}

// Noops matches transitions that named an unknown record.
func Noops() Predicate {
	return Equals{Field: FieldApplied, Value: ir.IRBool(false)}
}

// Since matches transitions at or after seq.
func Since(seq int64) Predicate {
	return AtLeast{Field: FieldSeq, Value: ir.IRInt(seq)}
}

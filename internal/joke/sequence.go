package joke

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/roach88/jokebox/internal/ir"
)

// Sequence is an immutable ordered list of records, top to bottom.
//
// The zero value is an empty sequence. Methods never modify the receiver;
// transitions allocate a fresh backing array.
type Sequence struct {
	records []Record
}

// NewSequence builds a sequence from records, copying the slice.
// It rejects duplicate ids.
func NewSequence(records ...Record) (Sequence, error) {
	seen := make(map[ID]struct{}, len(records))
	for i, r := range records {
		if _, dup := seen[r.ID]; dup {
			return Sequence{}, fmt.Errorf("%w: %q at index %d", ErrDuplicateID, r.ID, i)
		}
		seen[r.ID] = struct{}{}
	}
	return Sequence{records: slices.Clone(records)}, nil
}

// Len returns the number of records.
func (s Sequence) Len() int {
	return len(s.records)
}

// At returns the record at index i. It panics if i is out of range.
func (s Sequence) At(i int) Record {
	return s.records[i]
}

// Find returns the record with the given id.
func (s Sequence) Find(id ID) (Record, bool) {
	i := s.index(id)
	if i < 0 {
		return Record{}, false
	}
	return s.records[i], true
}

// Records returns a copy of the records in order.
func (s Sequence) Records() []Record {
	return slices.Clone(s.records)
}

// IDs returns the record ids in order.
func (s Sequence) IDs() []ID {
	ids := make([]ID, len(s.records))
	for i, r := range s.records {
		ids[i] = r.ID
	}
	return ids
}

// Equal reports content equality: same ids, texts and scores in the same
// order.
func (s Sequence) Equal(other Sequence) bool {
	return slices.Equal(s.records, other.records)
}

// Canonical returns the sequence as an IRArray of record objects.
func (s Sequence) Canonical() ir.IRArray {
	arr := make(ir.IRArray, len(s.records))
	for i, r := range s.records {
		arr[i] = r.Canonical()
	}
	return arr
}

// Hash returns the content hash of the sequence.
//
// Hashing goes through canonical JSON, so texts are compared after NFC
// normalisation and invalid UTF-8 bytes hash as U+FFFD. Two sequences can
// share a hash while Equal, which compares raw bytes, reports them
// different. Replay compares hashes, so it treats such texts as the same.
func (s Sequence) Hash() string {
	return ir.MustSnapshotHash(s.Canonical())
}

func (s Sequence) index(id ID) int {
	return slices.IndexFunc(s.records, func(r Record) bool { return r.ID == id })
}

// Prepend returns a new sequence with r at the front.
func (s Sequence) Prepend(r Record) Sequence {
	out := make([]Record, 0, len(s.records)+1)
	out = append(out, r)
	out = append(out, s.records...)
	return Sequence{records: out}
}

// Without returns a new sequence holding every record whose id is not id,
// in their original relative order.
func (s Sequence) Without(id ID) Sequence {
	out := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return Sequence{records: out}
}

// WithScoreAdjusted returns a new sequence where the record matching id has
// delta added to its score. Other records are copied by value.
func (s Sequence) WithScoreAdjusted(id ID, delta Delta) Sequence {
	out := slices.Clone(s.records)
	for i := range out {
		if out[i].ID == id {
			out[i].Score += int64(delta)
		}
	}
	return Sequence{records: out}
}

// SortedByScoreDesc returns a new sequence ordered by score, highest first.
// Records with equal scores keep their relative order.
func (s Sequence) SortedByScoreDesc() Sequence {
	out := slices.Clone(s.records)
	slices.SortStableFunc(out, func(a, b Record) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return Sequence{records: out}
}

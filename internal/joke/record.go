package joke

import (
	"fmt"

	"github.com/roach88/jokebox/internal/ir"
)

// ID identifies a record. It is opaque to the store.
type ID string

// Record is a single joke.
type Record struct {
	ID    ID     `json:"id"`
	Text  string `json:"text"`
	Score int64  `json:"score"`
}

// Canonical returns the record as an IRObject for hashing and journaling.
func (r Record) Canonical() ir.IRObject {
	return ir.IRObject{
		"id":    ir.IRString(r.ID),
		"text":  ir.IRString(r.Text),
		"score": ir.IRInt(r.Score),
	}
}

// RecordFromCanonical decodes the IRObject form produced by Canonical.
func RecordFromCanonical(obj ir.IRObject) (Record, error) {
	id, ok := obj["id"].(ir.IRString)
	if !ok {
		return Record{}, fmt.Errorf("record: id must be a string")
	}
	text, ok := obj["text"].(ir.IRString)
	if !ok {
		return Record{}, fmt.Errorf("record %s: text must be a string", id)
	}
	score, ok := obj["score"].(ir.IRInt)
	if !ok {
		return Record{}, fmt.Errorf("record %s: score must be an integer", id)
	}
	return Record{ID: ID(id), Text: string(text), Score: int64(score)}, nil
}

// RecordsFromCanonical decodes a sequence in its Canonical form.
func RecordsFromCanonical(arr ir.IRArray) ([]Record, error) {
	records := make([]Record, 0, len(arr))
	for i, v := range arr {
		obj, ok := v.(ir.IRObject)
		if !ok {
			return nil, fmt.Errorf("record %d: expected object, got %T", i, v)
		}
		r, err := RecordFromCanonical(obj)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}

// DefaultSeed returns the jokes a fresh store starts with.
func DefaultSeed() []Record {
	return []Record{
		{ID: "1", Text: "I'm afraid for the calendar. Its days are numbered."},
		{ID: "2", Text: "I used to be addicted to soap, but I'm clean now."},
	}
}

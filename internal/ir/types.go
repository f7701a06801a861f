package ir

import (
	"fmt"
	"strings"
)

// IntentKind names a user intent forwarded by the presentation layer.
type IntentKind string

const (
	KindAdd     IntentKind = "add"
	KindRemove  IntentKind = "remove"
	KindLike    IntentKind = "like"
	KindDislike IntentKind = "dislike"
	KindSort    IntentKind = "sort"
)

// IntentKinds lists every kind in declaration order.
var IntentKinds = []IntentKind{KindAdd, KindRemove, KindLike, KindDislike, KindSort}

// Valid reports whether k is a known kind.
func (k IntentKind) Valid() bool {
	for _, known := range IntentKinds {
		if k == known {
			return true
		}
	}
	return false
}

// NeedsID reports whether intents of this kind must name a record.
func (k IntentKind) NeedsID() bool {
	return k == KindRemove || k == KindLike || k == KindDislike
}

// Intent is one user action against the record store.
type Intent struct {
	Kind IntentKind `json:"kind"`
	ID   string     `json:"id,omitempty"`   // remove, like, dislike
	Text string     `json:"text,omitempty"` // add
}

// Canonical returns the intent as an IRObject. Only the fields relevant
// to the kind are included, so hashes ignore stray fields.
func (in Intent) Canonical() IRObject {
	obj := IRObject{"kind": IRString(in.Kind)}
	switch {
	case in.Kind == KindAdd:
		obj["text"] = IRString(in.Text)
	case in.Kind.NeedsID():
		obj["id"] = IRString(in.ID)
	}
	return obj
}

// String renders the intent in the line format read by the CLI.
func (in Intent) String() string {
	switch {
	case in.Kind == KindAdd:
		return fmt.Sprintf("add %s", in.Text)
	case in.Kind.NeedsID():
		return fmt.Sprintf("%s %s", in.Kind, in.ID)
	default:
		return string(in.Kind)
	}
}

// ParseIntent parses a single command line such as "add Knock knock",
// "like k1" or "sort". The text of an add keeps interior whitespace.
func ParseIntent(line string) (Intent, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Intent{}, fmt.Errorf("empty intent")
	}

	verb, rest, _ := strings.Cut(line, " ")
	kind := IntentKind(strings.ToLower(verb))
	if !kind.Valid() {
		return Intent{}, fmt.Errorf("unknown intent %q", verb)
	}

	rest = strings.TrimSpace(rest)
	switch {
	case kind == KindAdd:
		return Intent{Kind: kind, Text: rest}, nil
	case kind.NeedsID():
		if rest == "" {
			return Intent{}, fmt.Errorf("%s requires a record id", kind)
		}
		if strings.ContainsAny(rest, " \t") {
			return Intent{}, fmt.Errorf("%s takes a single record id, got %q", kind, rest)
		}
		return Intent{Kind: kind, ID: rest}, nil
	default:
		if rest != "" {
			return Intent{}, fmt.Errorf("%s takes no arguments", kind)
		}
		return Intent{Kind: kind}, nil
	}
}

// Transition records one applied intent.
type Transition struct {
	ID           string `json:"id"`                    // Content-addressed, see IntentID
	Session      string `json:"session"`               // Session token of the engine run
	Seq          int64  `json:"seq"`                   // Logical clock
	Intent       Intent `json:"intent"`
	AssignedID   string `json:"assigned_id,omitempty"` // Record id created by an add
	Applied      bool   `json:"applied"`               // False when the intent named an unknown id
	Size         int    `json:"size"`                  // Record count after the transition
	SnapshotHash string `json:"snapshot_hash"`
}

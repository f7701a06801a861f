package joke

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// IDSource produces record ids. Implementations must never return the same
// id twice for the lifetime of the process.
type IDSource interface {
	Generate() ID
}

// UUIDSource generates random (version 4) UUIDs.
//
// Thread-safety: UUIDSource is stateless and safe for concurrent use.
type UUIDSource struct{}

// Generate returns a new hyphenated UUID string.
// Panics if the system random source fails.
func (UUIDSource) Generate() ID {
	return ID(uuid.NewString())
}

// SequentialSource generates prefix1, prefix2, ... in order.
//
// This enables deterministic tests and scenario traces: the same intents
// always produce the same ids.
//
// Thread-safety: safe for concurrent use via internal mutex.
type SequentialSource struct {
	mu     sync.Mutex
	prefix string
	next   int64
}

// NewSequentialSource creates a source whose first id is prefix + "1".
// An empty prefix defaults to "k".
func NewSequentialSource(prefix string) *SequentialSource {
	if prefix == "" {
		prefix = "k"
	}
	return &SequentialSource{prefix: prefix, next: 1}
}

// Generate returns the next id in sequence.
func (s *SequentialSource) Generate() ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := ID(fmt.Sprintf("%s%d", s.prefix, s.next))
	s.next++
	return id
}

// ReplaySource returns predetermined ids in order. It is used to re-execute
// a journaled session so that every add receives the id it received the
// first time.
//
// Thread-safety: safe for concurrent use via internal mutex.
type ReplaySource struct {
	mu  sync.Mutex
	ids []ID
	idx int
}

// NewReplaySource creates a source that yields ids in the given order.
func NewReplaySource(ids ...ID) *ReplaySource {
	return &ReplaySource{ids: ids}
}

// Generate returns the next predetermined id.
//
// Panics if all ids have been consumed. A replay that asks for more ids
// than were journaled is misconfigured.
func (s *ReplaySource) Generate() ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.idx >= len(s.ids) {
		panic("ReplaySource: all ids exhausted")
	}
	id := s.ids[s.idx]
	s.idx++
	return id
}

// Remaining returns how many ids have not been handed out.
func (s *ReplaySource) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids) - s.idx
}

package joke

import "sync"

// Delta is a score adjustment.
type Delta int64

const (
	// Up is one like.
	Up Delta = 1
	// Down is one dislike.
	Down Delta = -1
)

// Store owns the current sequence and applies transitions to it.
//
// Each transition computes a new Sequence from the current one, installs
// it as current and returns it. Snapshots previously returned by Current
// or by a transition are never modified.
//
// Thread-safety: all methods are safe for concurrent use. Transitions are
// serialized by an internal mutex; in practice engine.Engine is the only
// writer.
type Store struct {
	mu      sync.RWMutex
	current Sequence
	ids     IDSource
}

// Option configures a Store.
type Option func(*storeConfig)

type storeConfig struct {
	seed []Record
}

// WithSeed pre-populates the store with records in the given order.
func WithSeed(records ...Record) Option {
	return func(c *storeConfig) {
		c.seed = records
	}
}

// NewStore creates a store that draws record ids from ids.
// Without WithSeed the store starts empty.
//
// Returns ErrDuplicateID if the seed repeats an id.
func NewStore(ids IDSource, opts ...Option) (*Store, error) {
	cfg := &storeConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	seq, err := NewSequence(cfg.seed...)
	if err != nil {
		return nil, err
	}

	return &Store{current: seq, ids: ids}, nil
}

// Current returns the current sequence for rendering.
func (s *Store) Current() Sequence {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Add creates a record with a fresh id and score 0 at the front of the
// sequence.
func (s *Store) Add(text string) Sequence {
	_, seq := s.AddRecord(text)
	return seq
}

// AddRecord is Add that also returns the created record.
//
// Ids the source yields that are already in the sequence are skipped, so a
// seed drawn from the source's own namespace keeps ids distinct.
func (s *Store) AddRecord(text string) (Record, Sequence) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.ids.Generate()
	for s.current.index(id) >= 0 {
		id = s.ids.Generate()
	}
	r := Record{ID: id, Text: text}
	s.current = s.current.Prepend(r)
	return r, s.current
}

// Remove drops the record with the given id. Unknown ids leave the
// content unchanged.
func (s *Store) Remove(id ID) Sequence {
	return s.swap(func(cur Sequence) Sequence { return cur.Without(id) })
}

// AdjustScore adds delta to the score of the record with the given id.
// Unknown ids leave the content unchanged. Scores are unbounded.
func (s *Store) AdjustScore(id ID, delta Delta) Sequence {
	return s.swap(func(cur Sequence) Sequence { return cur.WithScoreAdjusted(id, delta) })
}

// Like adds one to the record's score.
func (s *Store) Like(id ID) Sequence {
	return s.AdjustScore(id, Up)
}

// Dislike subtracts one from the record's score.
func (s *Store) Dislike(id ID) Sequence {
	return s.AdjustScore(id, Down)
}

// SortByScoreDescending reorders records by score, highest first, keeping
// the relative order of equal scores. The previous order is not retained:
// a later Add inserts at the front of the sorted sequence.
func (s *Store) SortByScoreDescending() Sequence {
	return s.swap(Sequence.SortedByScoreDesc)
}

func (s *Store) swap(next func(Sequence) Sequence) Sequence {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = next(s.current)
	return s.current
}

package engine

import (
	"sync"

	"github.com/roach88/jokebox/internal/ir"
)

// intentQueue is a thread-safe FIFO queue of intents.
//
// The queue is unbounded so a burst of UI events never blocks the producer.
// A buffered signal channel lets the Run loop wait with context awareness.
type intentQueue struct {
	mu      sync.Mutex
	intents []ir.Intent
	closed  bool
	signal  chan struct{} // buffered, size 1
}

func newIntentQueue() *intentQueue {
	return &intentQueue{
		intents: make([]ir.Intent, 0, 16),
		signal:  make(chan struct{}, 1),
	}
}

// Enqueue adds an intent to the back of the queue.
// Returns false if the queue is closed.
func (q *intentQueue) Enqueue(in ir.Intent) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.intents = append(q.intents, in)

	// Non-blocking: the size-1 buffer coalesces signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue removes and returns the front intent without blocking.
func (q *intentQueue) TryDequeue() (ir.Intent, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.intents) == 0 {
		return ir.Intent{}, false
	}

	in := q.intents[0]
	q.intents[0] = ir.Intent{} // release the text for GC
	if len(q.intents) == 1 {
		q.intents = q.intents[:0]
	} else {
		q.intents = q.intents[1:]
	}

	return in, true
}

// Wait returns a channel that signals when intents may be available.
// It is closed once the queue is closed.
func (q *intentQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *intentQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.intents)
}

// Close stops further enqueues and wakes any waiter.
func (q *intentQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}

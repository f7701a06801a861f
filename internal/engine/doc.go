// Package engine implements the jokebox intent loop.
//
// The engine receives intents (add, remove, like, dislike, sort) from a
// presentation layer, applies them to a joke.Store one at a time and
// records each resulting transition.
//
// ARCHITECTURE:
//
// Single-Writer Event Loop:
// The engine processes all intents in a single goroutine. This gives:
//   - A total order: the Nth transition always observes the (N-1)th
//   - Reproducible journals on replay
//   - No locking concerns inside a transition
//
// Event Processing Flow:
//  1. Intents enqueued to a FIFO queue (safe from any goroutine)
//  2. Engine.Run() dequeues intents one at a time
//  3. Apply() validates the intent and runs the matching store transition
//  4. The transition is stamped with the next logical-clock seq, hashed,
//     journaled, counted and handed to the observer
//
// A rejected intent (unknown kind, missing id) is logged and skipped. The
// record store itself never fails: an unknown id is a no-op transition.
//
// Seq numbers come from Clock.Next(). Wall-clock time is never used for
// ordering.
package engine

// Package harness runs conformance scenarios against the jokebox engine.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: like_then_sort
//	description: "A liked joke rises to the top after sorting"
//	seed: empty            # empty (default), default, a list of records, or {catalog: file.cue}
//	id_prefix: k           # ids are k1, k2, ... in add order
//	session: test-session  # fixed session token, for golden traces
//	steps:
//	  - do: add
//	    text: joke1
//	  - do: add
//	    text: joke2
//	  - do: like
//	    id: k1
//	  - do: sort
//	    expect:
//	      order: [k1, k2]
//	      scores: {k1: 1, k2: 0}
//	assertions:
//	  - type: final_order
//	    order: [k1, k2]
//	  - type: unique_ids
//
// # Assertion Types
//
//   - final_order: ids of the final sequence, top to bottom
//   - final_scores: scores of the named records in the final sequence
//   - trace_count: number of transitions, optionally of one kind
//   - trace_order: kinds appear in the trace in this relative order
//   - unique_ids: every id in every snapshot is distinct
//   - noop_count: number of transitions that named an unknown id
//
// # Deterministic Testing
//
// Every scenario runs through a real engine with sequential record ids, a
// fixed session token and a deterministic clock, journaled to an in-memory
// SQLite store. After the steps run, the journal is replayed and every
// snapshot hash must match. Traces are compared against golden files with
// RunWithGolden.
package harness

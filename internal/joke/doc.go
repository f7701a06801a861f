// Package joke implements the record store: an ordered, immutable sequence
// of jokes and the transitions applied to it.
//
// Every transition (Add, Remove, AdjustScore, SortByScoreDescending)
// returns a new Sequence. No transition mutates an existing Sequence or
// its records, so a snapshot handed to a renderer stays valid while later
// transitions run. No transition returns an error: unknown ids are no-ops
// and any text, including empty or duplicate text, is accepted.
//
// Record ids come from an injected IDSource so tests and scenarios can
// substitute a deterministic generator.
package joke

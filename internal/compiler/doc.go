// Package compiler turns CUE seed catalogs into record store seeds.
//
// A catalog is a CUE file (or a directory forming one CUE instance) with a
// top-level jokes list:
//
//	jokes: [
//		{id: "1", text: "I'm afraid for the calendar. Its days are numbered."},
//		{id: "2", text: "I used to be addicted to soap, but I'm clean now.", score: 3},
//	]
//
// The catalog is unified with an embedded schema: ids are non-empty
// strings, scores are integers defaulting to 0, and no other fields are
// allowed. Errors carry CUE source positions.
package compiler

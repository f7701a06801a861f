package joke

import "errors"

// ErrDuplicateID is returned when a seed names the same id twice.
var ErrDuplicateID = errors.New("duplicate record id")

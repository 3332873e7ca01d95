package report

import "errors"

// ErrInvariant indicates the clause/score correspondence was violated before
// assembly. This is a programming error, not a runtime condition.
var ErrInvariant = errors.New("clause/score invariant violation")

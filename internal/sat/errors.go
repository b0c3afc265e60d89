package sat

import "errors"

// Errors returned by the solver's public operations. BCP itself never
// returns an error: a conflicting clause is returned as a value (see
// Solver.propagate). These are the errors that can bubble out of the
// main search loop.
var (
	// ErrInconsistent reports a root-level contradiction: a unit clause
	// conflicts with an existing root-level assignment during loading,
	// unit propagation, or post-elimination BCP.
	ErrInconsistent = errors.New("sat: inconsistent root-level assignment")

	// ErrNullLearnt reports that conflict analysis under chronological
	// backtracking produced an empty learnt clause.
	ErrNullLearnt = errors.New("sat: conflict analysis produced an empty learnt clause")

	// ErrTimeOut reports a cooperative abort after the configured
	// deadline elapsed.
	ErrTimeOut = errors.New("sat: timed out")

	// ErrOutOfRange reports an internal index that fell outside the
	// bounds asserted by the data model (debug-build assertion).
	ErrOutOfRange = errors.New("sat: index out of range")
)

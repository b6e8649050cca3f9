// Package solver defines the contract between the rotation model and the
// engines that solve it.
//
// A Solver call is one blocking unit of work bound to a context: it returns a
// solution carrying a value for every declared variable or fails as a whole.
// Failures are classified so callers can tell an infeasible model
// (ErrInfeasible) from an engine that never answered (ErrUnreachable) or ran
// out of time before finding any solution (ErrTimeout).
package solver

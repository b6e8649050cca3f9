package solver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/rotation/core/milp"
)

var (
	// ErrInfeasible indicates the engine proved the model has no solution.
	ErrInfeasible = errors.New("model infeasible")
	// ErrUnreachable indicates the engine did not respond.
	ErrUnreachable = errors.New("solver unreachable")
	// ErrTimeout indicates the time limit elapsed before any solution was found.
	ErrTimeout = errors.New("solver timeout")
)

// Options tunes a solve.
type Options struct {
	// Gap is the relative optimality gap at which search stops.
	Gap float64 `json:"gap"`
	// TimeLimit bounds the search. Zero means no limit besides the context.
	TimeLimit time.Duration `json:"time_limit"`
}

// DefaultOptions returns a 0.1% gap and a 25 minute limit.
func DefaultOptions() Options {
	return Options{Gap: 0.001, TimeLimit: 1500 * time.Second}
}

// Solver solves a model.
type Solver interface {
	Solve(ctx context.Context, m *milp.Model, opts Options) (milp.Solution, error)
}

// Func adapts a function to the Solver interface.
type Func func(ctx context.Context, m *milp.Model, opts Options) (milp.Solution, error)

// Solve calls f.
func (f Func) Solve(ctx context.Context, m *milp.Model, opts Options) (milp.Solution, error) {
	return f(ctx, m, opts)
}

// Classify returns the status matching err.
func Classify(err error) milp.Status {
	switch {
	case err == nil:
		return milp.StatusOptimal
	case errors.Is(err, ErrInfeasible):
		return milp.StatusInfeasible
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return milp.StatusTimeout
	default:
		return milp.StatusError
	}
}

// Checked wraps s so that every returned solution is verified to cover all
// variables of the model.
func Checked(s Solver) Solver {
	return Func(func(ctx context.Context, m *milp.Model, opts Options) (milp.Solution, error) {
		sol, err := s.Solve(ctx, m, opts)
		if err != nil {
			return milp.Solution{}, err
		}
		if !sol.Status.HasValues() {
			return milp.Solution{}, fmt.Errorf("solver returned status %q without error", sol.Status)
		}
		if _, err := m.Values(sol); err != nil {
			return milp.Solution{}, err
		}
		return sol, nil
	})
}

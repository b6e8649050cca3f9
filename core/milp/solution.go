package milp

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Status is the outcome reported by a solver.
type Status string

const (
	StatusOptimal    Status = "optimal"
	StatusFeasible   Status = "feasible"
	StatusInfeasible Status = "infeasible"
	StatusTimeout    Status = "timeout"
	StatusError      Status = "error"
)

// HasValues reports whether a solution with this status carries a full
// assignment.
func (s Status) HasValues() bool { return s == StatusOptimal || s == StatusFeasible }

// Solution maps every variable name to its value.
type Solution struct {
	Status    Status             `json:"status"`
	Objective float64            `json:"objective"`
	Values    map[string]float64 `json:"values"`
}

// ErrIncomplete is matched by IncompleteError.
var ErrIncomplete = errors.New("incomplete solution")

// IncompleteError lists declared variables missing from a solution.
type IncompleteError struct {
	Missing []string
	Total   int
}

func (e *IncompleteError) Error() string {
	shown := e.Missing
	if len(shown) > 5 {
		shown = shown[:5]
	}
	return fmt.Sprintf("incomplete solution: %d of %d variables missing (%s)",
		len(e.Missing), e.Total, strings.Join(shown, ", "))
}

// Is matches ErrIncomplete.
func (e *IncompleteError) Is(target error) bool { return target == ErrIncomplete }

// Values returns the dense value vector of sol in variable order. Any
// missing or non-finite value makes the whole solution unusable.
func (m *Model) Values(sol Solution) ([]float64, error) {
	values := make([]float64, len(m.Vars))
	var missing []string
	for i, v := range m.Vars {
		val, ok := sol.Values[v.Name]
		if !ok || math.IsNaN(val) || math.IsInf(val, 0) {
			missing = append(missing, v.Name)
			continue
		}
		values[i] = val
	}
	if len(missing) > 0 {
		return nil, &IncompleteError{Missing: missing, Total: len(m.Vars)}
	}
	return values, nil
}

// NewSolution builds a Solution from a dense vector.
func (m *Model) NewSolution(status Status, values []float64) Solution {
	sol := Solution{Status: status, Values: make(map[string]float64, len(m.Vars))}
	for i, v := range m.Vars {
		sol.Values[v.Name] = values[i]
	}
	sol.Objective = m.Objective.Expr.Eval(values)
	return sol
}

package bnb

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/kilianp07/rotation/core/milp"
)

var (
	errNodeInfeasible = errors.New("relaxation infeasible")
	errUnbounded      = errors.New("relaxation unbounded")
)

// simplex solves min c'x s.t. Ax = b, x >= 0. It is a variable so tests can
// simulate engine failures.
var simplex = func(c []float64, a *mat.Dense, b []float64) ([]float64, error) {
	_, x, err := lp.Simplex(c, a, b, 1e-7, nil)
	return x, err
}

// relax solves the LP relaxation of m with per-variable bounds lo/hi and
// returns the variable values. Fixed variables are substituted and variables
// absent from every row are held at their lower bound.
func relax(m *milp.Model, lo, hi []float64) ([]float64, error) {
	n := len(m.Vars)
	obj := make([]float64, n)
	for _, t := range m.Objective.Expr {
		obj[t.Var] += t.Coef
	}
	if m.Objective.Sense == milp.Maximize {
		for j := range obj {
			obj[j] = -obj[j]
		}
	}

	used := make([]bool, n)
	for _, c := range m.Constraints {
		for _, t := range c.Expr {
			if t.Coef != 0 {
				used[t.Var] = true
			}
		}
	}
	col := make([]int, n)
	var active []int
	for j := 0; j < n; j++ {
		col[j] = -1
		if hi[j] <= lo[j] {
			continue
		}
		if !used[j] && math.IsInf(hi[j], 1) {
			if obj[j] < 0 {
				return nil, errUnbounded
			}
			continue
		}
		col[j] = len(active)
		active = append(active, j)
	}

	type row struct {
		coef  map[int]float64
		sense milp.Sense
		rhs   float64
	}
	var rows []row
	for _, c := range m.Constraints {
		r := row{coef: make(map[int]float64, len(c.Expr)), sense: c.Sense, rhs: c.RHS}
		for _, t := range c.Expr {
			r.rhs -= t.Coef * lo[t.Var]
			if k := col[t.Var]; k >= 0 && t.Coef != 0 {
				r.coef[k] += t.Coef
			}
		}
		if len(r.coef) == 0 {
			if !satisfiedConst(r.sense, r.rhs) {
				return nil, errNodeInfeasible
			}
			continue
		}
		rows = append(rows, r)
	}
	for k, j := range active {
		if !math.IsInf(hi[j], 1) {
			rows = append(rows, row{coef: map[int]float64{k: 1}, sense: milp.LessEq, rhs: hi[j] - lo[j]})
		}
	}

	x := append([]float64(nil), lo...)
	if len(active) == 0 {
		return x, nil
	}
	if len(rows) == 0 {
		for _, j := range active {
			if obj[j] < 0 {
				return nil, errUnbounded
			}
		}
		return x, nil
	}

	slacks := 0
	for _, r := range rows {
		if r.sense != milp.Equal {
			slacks++
		}
	}
	cols := len(active) + slacks
	a := mat.NewDense(len(rows), cols, nil)
	b := make([]float64, len(rows))
	s := len(active)
	for i, r := range rows {
		sign := 1.0
		if r.rhs < 0 {
			sign = -1
		}
		for k, v := range r.coef {
			a.Set(i, k, sign*v)
		}
		switch r.sense {
		case milp.LessEq:
			a.Set(i, s, sign)
			s++
		case milp.GreaterEq:
			a.Set(i, s, -sign)
			s++
		}
		b[i] = sign * r.rhs
	}
	c := make([]float64, cols)
	for k, j := range active {
		c[k] = obj[j]
	}

	y, err := simplex(c, a, b)
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return nil, errNodeInfeasible
	case errors.Is(err, lp.ErrUnbounded):
		return nil, errUnbounded
	case err != nil:
		return nil, err
	}
	for k, j := range active {
		x[j] = lo[j] + y[k]
	}
	return x, nil
}

// denseSize returns an upper bound of the root relaxation matrix dimensions:
// one row per constraint and per bounded variable, one column per variable
// and per inequality slack.
func denseSize(m *milp.Model) (rows, cols int) {
	bounded := 0
	for _, v := range m.Vars {
		lo, hi := v.Domain.Bounds()
		if hi > lo && !math.IsInf(hi, 1) {
			bounded++
		}
	}
	inequalities := 0
	for _, c := range m.Constraints {
		if c.Sense != milp.Equal {
			inequalities++
		}
	}
	return len(m.Constraints) + bounded, len(m.Vars) + inequalities + bounded
}

func satisfiedConst(s milp.Sense, rhs float64) bool {
	const tol = 1e-9
	switch s {
	case milp.LessEq:
		return 0 <= rhs+tol
	case milp.GreaterEq:
		return 0 >= rhs-tol
	default:
		return math.Abs(rhs) <= tol
	}
}

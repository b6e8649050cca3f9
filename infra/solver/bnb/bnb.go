// Package bnb is a pure Go branch-and-bound MILP engine built on the gonum
// simplex solver. It targets small and medium rotation models.
package bnb

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/kilianp07/rotation/core/factory"
	"github.com/kilianp07/rotation/core/logger"
	"github.com/kilianp07/rotation/core/milp"
	"github.com/kilianp07/rotation/core/solver"
	infralogger "github.com/kilianp07/rotation/infra/logger"
)

// Name identifies the backend in configuration.
const Name = "bnb"

// ErrTooLarge is returned when a model exceeds MaxVars or its dense
// relaxation exceeds MaxCells.
var ErrTooLarge = errors.New("bnb: model too large")

// errNodeTimeout reports a relaxation abandoned at the deadline.
var errNodeTimeout = errors.New("relaxation stopped at deadline")

// Config bounds the search.
type Config struct {
	MaxNodes int `json:"max_nodes"`
	MaxVars  int `json:"max_vars"`
	// MaxCells caps rows*columns of the dense relaxation matrix.
	MaxCells  int     `json:"max_cells"`
	Tolerance float64 `json:"tolerance"`
}

func (c *Config) setDefaults() {
	if c.MaxNodes <= 0 {
		c.MaxNodes = 200000
	}
	if c.MaxVars <= 0 {
		c.MaxVars = 5000
	}
	if c.MaxCells <= 0 {
		c.MaxCells = 4_000_000
	}
	if c.Tolerance <= 0 {
		c.Tolerance = 1e-6
	}
}

// Solver implements solver.Solver.
type Solver struct {
	cfg      Config
	log      logger.Logger
	progress solver.ProgressPublisher
	now      func() time.Time
}

// Option customizes a Solver.
type Option func(*Solver)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option { return func(s *Solver) { s.log = l } }

// WithProgress publishes incumbent improvements to p.
func WithProgress(p solver.ProgressPublisher) Option { return func(s *Solver) { s.progress = p } }

// New returns a Solver.
func New(cfg Config, opts ...Option) *Solver {
	cfg.setDefaults()
	s := &Solver{cfg: cfg, log: infralogger.NopLogger{}, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ReportTo implements solver.Reporter.
func (s *Solver) ReportTo(p solver.ProgressPublisher) { s.progress = p }

func init() {
	_ = solver.RegisterBackend(Name, func(conf map[string]any) (solver.Solver, error) {
		var cfg Config
		if err := factory.Decode(conf, &cfg); err != nil {
			return nil, err
		}
		return New(cfg, WithLogger(infralogger.New("bnb"))), nil
	})
}

type node struct {
	lo, hi []float64
}

type search struct {
	m        *milp.Model
	opts     solver.Options
	tol      float64
	dir      float64
	best     float64
	bestX    []float64
	bound    float64
	nodes    int
	started  time.Time
	deadline time.Time
}

// Solve runs a depth-first branch-and-bound. When the time or node limit is
// reached the best incumbent is returned with status feasible; without an
// incumbent the call fails with solver.ErrTimeout.
func (s *Solver) Solve(ctx context.Context, m *milp.Model, opts solver.Options) (milp.Solution, error) {
	if len(m.Vars) > s.cfg.MaxVars {
		return milp.Solution{}, fmt.Errorf("%w: %d variables, limit %d", ErrTooLarge, len(m.Vars), s.cfg.MaxVars)
	}
	if rows, cols := denseSize(m); rows*cols > s.cfg.MaxCells {
		return milp.Solution{}, fmt.Errorf("%w: relaxation of %dx%d, limit %d cells", ErrTooLarge, rows, cols, s.cfg.MaxCells)
	}
	st := &search{m: m, opts: opts, tol: s.cfg.Tolerance, dir: 1, started: s.now()}
	if m.Objective.Sense == milp.Minimize {
		st.dir = -1
	}
	if opts.TimeLimit > 0 {
		st.deadline = st.started.Add(opts.TimeLimit)
	}

	root := node{lo: make([]float64, len(m.Vars)), hi: make([]float64, len(m.Vars))}
	for i, v := range m.Vars {
		root.lo[i], root.hi[i] = v.Domain.Bounds()
	}
	stack := []node{root}
	limited := false
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return milp.Solution{}, s.ctxError(err)
		}
		if st.nodes >= s.cfg.MaxNodes || (!st.deadline.IsZero() && !s.now().Before(st.deadline)) {
			limited = true
			break
		}
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		st.nodes++

		x, err := s.relax(ctx, st, n)
		switch {
		case errors.Is(err, errNodeTimeout):
			limited = true
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return milp.Solution{}, s.ctxError(err)
		case errors.Is(err, errNodeInfeasible):
			continue
		case errors.Is(err, errUnbounded):
			return milp.Solution{}, fmt.Errorf("bnb: relaxation unbounded")
		case err != nil:
			return milp.Solution{}, fmt.Errorf("bnb: %w", err)
		}
		if limited {
			break
		}
		val := st.dir * m.Objective.Expr.Eval(x)
		if st.nodes == 1 {
			st.bound = val
		}
		if st.bestX != nil && val-st.best <= st.pruneMargin() {
			continue
		}
		j := st.branchVar(x)
		if j < 0 {
			st.improve(x, val)
			s.publish(st)
			if st.bound-st.best <= st.pruneMargin() {
				stack = nil
			}
			continue
		}
		down := node{lo: n.lo, hi: clone(n.hi)}
		down.hi[j] = math.Floor(x[j])
		up := node{lo: clone(n.lo), hi: n.hi}
		up.lo[j] = math.Ceil(x[j])
		stack = append(stack, down, up)
	}

	if st.bestX == nil {
		if limited {
			return milp.Solution{}, fmt.Errorf("%w after %d nodes", solver.ErrTimeout, st.nodes)
		}
		return milp.Solution{}, fmt.Errorf("%w: search exhausted after %d nodes", solver.ErrInfeasible, st.nodes)
	}
	status := milp.StatusOptimal
	if limited {
		status = milp.StatusFeasible
	}
	s.log.Infof("bnb finished status=%s objective=%g nodes=%d elapsed=%s",
		status, st.dir*st.best, st.nodes, s.now().Sub(st.started))
	return m.NewSolution(status, st.bestX), nil
}

// relax solves the node relaxation in its own goroutine so that the context
// and the deadline interrupt it. An abandoned simplex runs to completion in
// the background; its result is discarded.
func (s *Solver) relax(ctx context.Context, st *search, n node) ([]float64, error) {
	type result struct {
		x   []float64
		err error
	}
	done := make(chan result, 1)
	go func() {
		x, err := relax(st.m, n.lo, n.hi)
		done <- result{x, err}
	}()
	var expired <-chan time.Time
	if !st.deadline.IsZero() {
		t := time.NewTimer(st.deadline.Sub(s.now()))
		defer t.Stop()
		expired = t.C
	}
	select {
	case r := <-done:
		return r.x, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-expired:
		return nil, errNodeTimeout
	}
}

func (s *Solver) ctxError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", solver.ErrTimeout, err)
	}
	return err
}

func (s *Solver) publish(st *search) {
	if s.progress == nil {
		return
	}
	s.progress.Publish(solver.Progress{
		Backend:   Name,
		Incumbent: st.dir * st.best,
		Bound:     st.dir * st.bound,
		Nodes:     st.nodes,
		Elapsed:   s.now().Sub(st.started),
	})
}

func (st *search) pruneMargin() float64 {
	return st.opts.Gap*math.Max(1, math.Abs(st.best)) + st.tol
}

// branchVar returns the most fractional integral variable or -1.
func (st *search) branchVar(x []float64) int {
	best, bestFrac := -1, 0.0
	for i, v := range st.m.Vars {
		if !v.Domain.Integral() {
			continue
		}
		f := x[i] - math.Floor(x[i])
		if f <= st.tol || f >= 1-st.tol {
			continue
		}
		if d := math.Min(f, 1-f); d > bestFrac {
			best, bestFrac = i, d
		}
	}
	return best
}

func (st *search) improve(x []float64, val float64) {
	if st.bestX != nil && val <= st.best {
		return
	}
	out := make([]float64, len(x))
	for i, v := range st.m.Vars {
		out[i] = x[i]
		if v.Domain.Integral() {
			out[i] = math.Round(x[i])
		} else if out[i] < 0 {
			out[i] = 0
		}
	}
	st.best, st.bestX = val, out
}

func clone(v []float64) []float64 { return append([]float64(nil), v...) }

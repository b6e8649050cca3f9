package milp

import (
	"encoding/json"
	"fmt"
	"math"
)

// Domain is the value domain of a decision variable.
type Domain int

const (
	Binary Domain = iota
	NonNegativeInteger
	NonNegativeReal
)

func (d Domain) String() string {
	switch d {
	case Binary:
		return "binary"
	case NonNegativeInteger:
		return "integer"
	case NonNegativeReal:
		return "real"
	default:
		return "unknown"
	}
}

// Integral reports whether the domain requires integer values.
func (d Domain) Integral() bool { return d == Binary || d == NonNegativeInteger }

// Bounds returns the implicit lower and upper bounds of the domain.
func (d Domain) Bounds() (lo, hi float64) {
	if d == Binary {
		return 0, 1
	}
	return 0, math.Inf(1)
}

// MarshalText encodes the domain by name.
func (d Domain) MarshalText() ([]byte, error) {
	if d < Binary || d > NonNegativeReal {
		return nil, fmt.Errorf("unknown domain %d", int(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText decodes a domain name.
func (d *Domain) UnmarshalText(b []byte) error {
	switch string(b) {
	case "binary":
		*d = Binary
	case "integer":
		*d = NonNegativeInteger
	case "real":
		*d = NonNegativeReal
	default:
		return fmt.Errorf("unknown domain %q", string(b))
	}
	return nil
}

// VarRef indexes a variable inside its Model.
type VarRef int

// Term is coef * variable.
type Term struct {
	Var  VarRef  `json:"var"`
	Coef float64 `json:"coef"`
}

// Expr is a linear combination of variables without constant.
type Expr []Term

// Sum returns the unit-coefficient sum of refs.
func Sum(refs ...VarRef) Expr {
	e := make(Expr, len(refs))
	for i, r := range refs {
		e[i] = Term{Var: r, Coef: 1}
	}
	return e
}

// Plus returns e + coef*v.
func (e Expr) Plus(coef float64, v VarRef) Expr {
	return append(e, Term{Var: v, Coef: coef})
}

// Add returns e + o.
func (e Expr) Add(o Expr) Expr {
	res := make(Expr, 0, len(e)+len(o))
	res = append(res, e...)
	return append(res, o...)
}

// Scale returns k*e.
func (e Expr) Scale(k float64) Expr {
	res := make(Expr, len(e))
	for i, t := range e {
		res[i] = Term{Var: t.Var, Coef: k * t.Coef}
	}
	return res
}

// Eval computes the expression for a dense value vector.
func (e Expr) Eval(values []float64) float64 {
	var s float64
	for _, t := range e {
		s += t.Coef * values[t.Var]
	}
	return s
}

// Sense is the relation of a constraint.
type Sense int

const (
	LessEq Sense = iota
	GreaterEq
	Equal
)

func (s Sense) String() string {
	switch s {
	case LessEq:
		return "<="
	case GreaterEq:
		return ">="
	case Equal:
		return "="
	default:
		return "?"
	}
}

// MarshalText encodes the sense as an operator.
func (s Sense) MarshalText() ([]byte, error) {
	if s < LessEq || s > Equal {
		return nil, fmt.Errorf("unknown sense %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes "<=", ">=" or "=".
func (s *Sense) UnmarshalText(b []byte) error {
	switch string(b) {
	case "<=":
		*s = LessEq
	case ">=":
		*s = GreaterEq
	case "=":
		*s = Equal
	default:
		return fmt.Errorf("unknown sense %q", string(b))
	}
	return nil
}

// Constraint is Expr Sense RHS, labelled with a unique name and the family
// it was generated by.
type Constraint struct {
	Name   string  `json:"name"`
	Family string  `json:"family"`
	Expr   Expr    `json:"expr"`
	Sense  Sense   `json:"sense"`
	RHS    float64 `json:"rhs"`
}

// Satisfied reports whether values meet the constraint within tol.
func (c Constraint) Satisfied(values []float64, tol float64) bool {
	lhs := c.Expr.Eval(values)
	switch c.Sense {
	case LessEq:
		return lhs <= c.RHS+tol
	case GreaterEq:
		return lhs >= c.RHS-tol
	default:
		return math.Abs(lhs-c.RHS) <= tol
	}
}

// ObjectiveSense selects maximization or minimization.
type ObjectiveSense int

const (
	Maximize ObjectiveSense = iota
	Minimize
)

func (s ObjectiveSense) String() string {
	if s == Minimize {
		return "minimize"
	}
	return "maximize"
}

// MarshalJSON encodes the sense by name.
func (s ObjectiveSense) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

// UnmarshalJSON decodes "maximize" or "minimize".
func (s *ObjectiveSense) UnmarshalJSON(b []byte) error {
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch v {
	case "maximize":
		*s = Maximize
	case "minimize":
		*s = Minimize
	default:
		return fmt.Errorf("unknown objective sense %q", v)
	}
	return nil
}

// Objective is the function to optimize.
type Objective struct {
	Sense ObjectiveSense `json:"sense"`
	Expr  Expr           `json:"expr"`
}

package milp

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Var is a named decision variable.
type Var struct {
	Name   string `json:"name"`
	Domain Domain `json:"domain"`
}

// Model is a mixed-integer linear program. Variables and constraints keep
// insertion order so identical build steps yield identical models.
type Model struct {
	Name        string       `json:"name"`
	Vars        []Var        `json:"vars"`
	Constraints []Constraint `json:"constraints"`
	Objective   Objective    `json:"objective"`

	index map[string]VarRef
	names map[string]bool
}

// NewModel returns an empty model.
func NewModel(name string) *Model {
	return &Model{Name: name, index: make(map[string]VarRef), names: make(map[string]bool)}
}

// ErrDuplicate is returned when a variable or constraint name is reused.
var ErrDuplicate = errors.New("duplicate name")

// AddVar declares a variable and returns its reference.
func (m *Model) AddVar(name string, d Domain) (VarRef, error) {
	m.ensureIndex()
	if _, ok := m.index[name]; ok {
		return 0, fmt.Errorf("variable %s: %w", name, ErrDuplicate)
	}
	ref := VarRef(len(m.Vars))
	m.Vars = append(m.Vars, Var{Name: name, Domain: d})
	m.index[name] = ref
	return ref, nil
}

// AddConstraint appends c after checking its name and variable references.
func (m *Model) AddConstraint(c Constraint) error {
	m.ensureIndex()
	if m.names[c.Name] {
		return fmt.Errorf("constraint %s: %w", c.Name, ErrDuplicate)
	}
	if err := m.checkExpr(c.Expr); err != nil {
		return fmt.Errorf("constraint %s: %w", c.Name, err)
	}
	m.names[c.Name] = true
	m.Constraints = append(m.Constraints, c)
	return nil
}

// SetObjective replaces the objective.
func (m *Model) SetObjective(sense ObjectiveSense, e Expr) error {
	if err := m.checkExpr(e); err != nil {
		return fmt.Errorf("objective: %w", err)
	}
	m.Objective = Objective{Sense: sense, Expr: e}
	return nil
}

// Lookup returns the reference of a variable by name.
func (m *Model) Lookup(name string) (VarRef, bool) {
	m.ensureIndex()
	r, ok := m.index[name]
	return r, ok
}

// Validate checks a model that did not go through AddVar/AddConstraint,
// typically one decoded from JSON.
func (m *Model) Validate() error {
	m.index = nil
	m.names = nil
	idx := make(map[string]VarRef, len(m.Vars))
	for i, v := range m.Vars {
		if v.Name == "" {
			return fmt.Errorf("variable %d has no name", i)
		}
		if _, ok := idx[v.Name]; ok {
			return fmt.Errorf("variable %s: %w", v.Name, ErrDuplicate)
		}
		idx[v.Name] = VarRef(i)
	}
	names := make(map[string]bool, len(m.Constraints))
	for _, c := range m.Constraints {
		if names[c.Name] {
			return fmt.Errorf("constraint %s: %w", c.Name, ErrDuplicate)
		}
		names[c.Name] = true
		if err := m.checkExpr(c.Expr); err != nil {
			return fmt.Errorf("constraint %s: %w", c.Name, err)
		}
		if math.IsNaN(c.RHS) || math.IsInf(c.RHS, 0) {
			return fmt.Errorf("constraint %s: invalid rhs", c.Name)
		}
	}
	if err := m.checkExpr(m.Objective.Expr); err != nil {
		return fmt.Errorf("objective: %w", err)
	}
	m.index = idx
	m.names = names
	return nil
}

func (m *Model) checkExpr(e Expr) error {
	for _, t := range e {
		if t.Var < 0 || int(t.Var) >= len(m.Vars) {
			return fmt.Errorf("unknown variable ref %d", t.Var)
		}
		if math.IsNaN(t.Coef) || math.IsInf(t.Coef, 0) {
			return fmt.Errorf("invalid coefficient for %s", m.Vars[t.Var].Name)
		}
	}
	return nil
}

func (m *Model) ensureIndex() {
	if m.index != nil && len(m.index) == len(m.Vars) && m.names != nil {
		return
	}
	m.index = make(map[string]VarRef, len(m.Vars))
	for i, v := range m.Vars {
		m.index[v.Name] = VarRef(i)
	}
	m.names = make(map[string]bool, len(m.Constraints))
	for _, c := range m.Constraints {
		m.names[c.Name] = true
	}
}

// Stats summarises a model by variable family and constraint family.
type Stats struct {
	Vars                int            `json:"vars"`
	Constraints         int            `json:"constraints"`
	VarsByFamily        map[string]int `json:"vars_by_family"`
	ConstraintsByFamily map[string]int `json:"constraints_by_family"`
}

// VarFamily returns the part of a variable name before '['.
func VarFamily(name string) string {
	fam, _, _ := strings.Cut(name, "[")
	return fam
}

// Stats counts variables and constraints per family.
func (m *Model) Stats() Stats {
	s := Stats{
		Vars:                len(m.Vars),
		Constraints:         len(m.Constraints),
		VarsByFamily:        make(map[string]int),
		ConstraintsByFamily: make(map[string]int),
	}
	for _, v := range m.Vars {
		s.VarsByFamily[VarFamily(v.Name)]++
	}
	for _, c := range m.Constraints {
		s.ConstraintsByFamily[c.Family]++
	}
	return s
}

// Families returns the constraint family names in sorted order.
func (s Stats) Families() []string {
	fams := make([]string, 0, len(s.ConstraintsByFamily))
	for f := range s.ConstraintsByFamily {
		fams = append(fams, f)
	}
	sort.Strings(fams)
	return fams
}

// Violations lists the names of constraints not satisfied by values.
func (m *Model) Violations(values []float64, tol float64) []string {
	var res []string
	for _, c := range m.Constraints {
		if !c.Satisfied(values, tol) {
			res = append(res, c.Name)
		}
	}
	return res
}

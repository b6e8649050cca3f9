package model

import (
	"fmt"
	"strings"
)

// Group is the binary attribute used by the fairness criterion.
type Group int

const (
	GroupA Group = iota
	GroupB
)

// String returns "A" or "B".
func (g Group) String() string {
	switch g {
	case GroupA:
		return "A"
	case GroupB:
		return "B"
	default:
		return "unknown"
	}
}

// ParseGroup accepts "A"/"B" in any case.
func ParseGroup(s string) (Group, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A":
		return GroupA, nil
	case "B":
		return GroupB, nil
	default:
		return 0, fmt.Errorf("unknown group: %q", s)
	}
}

// Child is a member of the scheduled population.
type Child struct {
	ID    int
	Group Group
}

// Population is the ordered set of children. Iteration order drives the
// enumeration order of pairs and variables.
type Population []Child

// IDs returns child identifiers in population order.
func (p Population) IDs() []int {
	ids := make([]int, len(p))
	for i, c := range p {
		ids[i] = c.ID
	}
	return ids
}

// InGroup returns the children having group g, in population order.
func (p Population) InGroup(g Group) Population {
	var res Population
	for _, c := range p {
		if c.Group == g {
			res = append(res, c)
		}
	}
	return res
}

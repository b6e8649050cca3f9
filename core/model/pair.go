package model

import "fmt"

// Pair is an unordered combination of two distinct children. Pairs built by
// Pairs always carry First before Second in population order.
type Pair struct {
	First  int
	Second int
}

// Key returns "first,second".
func (p Pair) Key() string { return fmt.Sprintf("%d,%d", p.First, p.Second) }

// Has reports whether id is one of the two children.
func (p Pair) Has(id int) bool { return p.First == id || p.Second == id }

// Same reports whether p and o denote the same unordered pair.
func (p Pair) Same(o Pair) bool {
	return (p.First == o.First && p.Second == o.Second) ||
		(p.First == o.Second && p.Second == o.First)
}

// Pairs returns all C(n,2) unordered pairs of children in population order.
// Fewer than two children yield no pairs.
func Pairs(children []Child) []Pair {
	n := len(children)
	if n < 2 {
		return nil
	}
	res := make([]Pair, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			res = append(res, Pair{First: children[i].ID, Second: children[j].ID})
		}
	}
	return res
}

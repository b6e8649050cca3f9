package calendar

import (
	"fmt"

	"github.com/kilianp07/rotation/core/model"
)

// AlternatingPopulation returns children 1..n where odd ids belong to group A
// and even ids to group B.
func AlternatingPopulation(n int) model.Population {
	pop := make(model.Population, 0, n)
	for id := 1; id <= n; id++ {
		g := model.GroupB
		if id%2 == 1 {
			g = model.GroupA
		}
		pop = append(pop, model.Child{ID: id, Group: g})
	}
	return pop
}

// RosterEntry is one configured child.
type RosterEntry struct {
	ID    int    `json:"id"`
	Group string `json:"group"`
}

// Roster converts configured entries into a population, keeping their order.
func Roster(entries []RosterEntry) (model.Population, error) {
	pop := make(model.Population, 0, len(entries))
	for i, e := range entries {
		g, err := model.ParseGroup(e.Group)
		if err != nil {
			return nil, fmt.Errorf("roster entry %d (id %d): %w", i, e.ID, err)
		}
		pop = append(pop, model.Child{ID: e.ID, Group: g})
	}
	return pop, nil
}

package solver

import "time"

// Progress reports an improvement found during search.
type Progress struct {
	Backend   string
	Incumbent float64
	Bound     float64
	Nodes     int
	Elapsed   time.Duration
}

// Gap returns the relative distance between incumbent and bound.
func (p Progress) Gap() float64 {
	if p.Bound == 0 {
		return 0
	}
	g := (p.Bound - p.Incumbent) / p.Bound
	if g < 0 {
		return -g
	}
	return g
}

// ProgressPublisher receives progress events. Publish must not block.
type ProgressPublisher interface {
	Publish(Progress)
}

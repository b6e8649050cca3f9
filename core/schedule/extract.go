package schedule

import (
	"fmt"
	"time"

	"github.com/kilianp07/rotation/core/milp"
	"github.com/kilianp07/rotation/core/model"
)

// Metric names exposed by Schedule.Metric.
const (
	MetricObjective         = "objective"
	MetricWeeklyInteraction = "weekly_interaction"
	MetricGenderBalance     = "gender_balance"
	MetricMinAttendance     = "min_attendance"
)

// attendThreshold separates attending from absent for relaxed binary values.
const attendThreshold = 0.5

// DayAttendance lists who attends one day.
type DayAttendance struct {
	Date     time.Time    `json:"date"`
	Week     model.WeekID `json:"week"`
	Children []int        `json:"children"`
	Total    int          `json:"total"`
	GroupA   int          `json:"group_a"`
}

// Schedule is the extracted result of one solve.
type Schedule struct {
	Status            milp.Status     `json:"status"`
	Days              []DayAttendance `json:"days"`
	Objective         float64         `json:"objective"`
	WeeklyInteraction float64         `json:"weekly_interaction"`
	GenderBalance     float64         `json:"gender_balance"`
	MinAttendance     float64         `json:"min_attendance"`
}

// Extract aggregates solved values. A solution omitting any declared
// variable is rejected as a whole.
func Extract(plan *Plan, sol milp.Solution) (*Schedule, error) {
	if sol.Status != "" && !sol.Status.HasValues() {
		return nil, fmt.Errorf("%w: status %s", ErrNoSolution, sol.Status)
	}
	values, err := plan.Model.Values(sol)
	if err != nil {
		return nil, err
	}
	s := &Schedule{
		Status:        sol.Status,
		Objective:     sol.Objective,
		GenderBalance: values[plan.GenderBalance],
		MinAttendance: values[plan.MinAttendance],
		Days:          make([]DayAttendance, len(plan.Days)),
	}
	for d, day := range plan.Days {
		att := DayAttendance{Date: day.Date, Week: plan.weekOf(d), Children: []int{}}
		for c, child := range plan.Children {
			if values[plan.Assign[d][c]] > attendThreshold {
				att.Children = append(att.Children, child.ID)
				if child.Group == model.GroupA {
					att.GroupA++
				}
			}
		}
		att.Total = len(att.Children)
		s.Days[d] = att
	}
	for w := range plan.Weeks {
		for _, ref := range plan.Weekly[w] {
			s.WeeklyInteraction += values[ref]
		}
	}
	return s, nil
}

// Day returns the attendance of the given date.
func (s *Schedule) Day(date time.Time) (DayAttendance, bool) {
	key := date.Format(model.DateLayout)
	for _, d := range s.Days {
		if d.Date.Format(model.DateLayout) == key {
			return d, true
		}
	}
	return DayAttendance{}, false
}

// Metrics returns the summary values keyed by metric name.
func (s *Schedule) Metrics() map[string]float64 {
	return map[string]float64{
		MetricObjective:         s.Objective,
		MetricWeeklyInteraction: s.WeeklyInteraction,
		MetricGenderBalance:     s.GenderBalance,
		MetricMinAttendance:     s.MinAttendance,
	}
}

// Metric returns one summary value by name.
func (s *Schedule) Metric(name string) (float64, bool) {
	v, ok := s.Metrics()[name]
	return v, ok
}

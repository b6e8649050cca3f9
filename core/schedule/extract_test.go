package schedule

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/rotation/core/milp"
	"github.com/kilianp07/rotation/core/model"
)

// zeroSolution returns a complete solution with every value at zero.
func zeroSolution(m *milp.Model) milp.Solution {
	return m.NewSolution(milp.StatusOptimal, make([]float64, len(m.Vars)))
}

func TestExtractAttendance(t *testing.T) {
	pop := children(6)
	plan, err := Build(Input{Days: days(monday, 2), Children: pop, Pairs: model.Pairs(pop)},
		Config{DailyCapacity: 3, WeeklyMin: 0, WeeklyMax: 2})
	require.NoError(t, err)

	sol := zeroSolution(plan.Model)
	for _, name := range []string{"x[2020-09-08,1]", "x[2020-09-08,3]", "x[2020-09-08,5]", "x[2020-09-07,2]"} {
		sol.Values[name] = 1
	}
	sol.Values["w[2020-W37,1,3]"] = 1
	sol.Values["w[2020-W37,3,5]"] = 1
	sol.Values["gender_balance"] = 0
	sol.Values["z"] = 1
	sol.Objective = 3

	s, err := Extract(plan, sol)
	require.NoError(t, err)
	day, ok := s.Day(monday.AddDate(0, 0, 1))
	require.True(t, ok)
	assert.Equal(t, []int{1, 3, 5}, day.Children)
	assert.Equal(t, 3, day.Total)
	assert.Equal(t, 3, day.GroupA)

	first, ok := s.Day(monday)
	require.True(t, ok)
	assert.Equal(t, []int{2}, first.Children)
	assert.Equal(t, 0, first.GroupA)

	assert.Equal(t, 3.0, s.Objective)
	assert.Equal(t, 2.0, s.WeeklyInteraction)
	assert.Equal(t, 1.0, s.MinAttendance)
	v, ok := s.Metric(MetricWeeklyInteraction)
	assert.True(t, ok)
	assert.Equal(t, 2.0, v)
	_, ok = s.Metric("nope")
	assert.False(t, ok)
	assert.Len(t, s.Metrics(), 4)
	_, ok = s.Day(monday.AddDate(0, 0, 5))
	assert.False(t, ok)
}

func TestExtractRoundsRelaxedValues(t *testing.T) {
	plan, err := Build(smallInput(), smallConfig())
	require.NoError(t, err)
	sol := zeroSolution(plan.Model)
	sol.Values["x[2020-09-07,1]"] = 0.9999999
	sol.Values["x[2020-09-07,2]"] = 1e-9
	s, err := Extract(plan, sol)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, s.Days[0].Children)
	assert.Empty(t, s.Days[1].Children)
}

func TestExtractIncomplete(t *testing.T) {
	plan, err := Build(smallInput(), smallConfig())
	require.NoError(t, err)
	sol := zeroSolution(plan.Model)
	delete(sol.Values, "p[2020-09-08,2,4]")
	s, err := Extract(plan, sol)
	assert.Nil(t, s)
	require.Error(t, err)
	assert.True(t, errors.Is(err, milp.ErrIncomplete))
	assert.Contains(t, err.Error(), "p[2020-09-08,2,4]")
}

func TestExtractRejectsInfeasible(t *testing.T) {
	plan, err := Build(smallInput(), smallConfig())
	require.NoError(t, err)
	_, err = Extract(plan, milp.Solution{Status: milp.StatusInfeasible})
	assert.True(t, errors.Is(err, ErrNoSolution))
}

func TestExtractUsesBuildWeeks(t *testing.T) {
	pop := children(2)
	cal := days(monday, 2)
	block := func(d model.Day) model.WeekID {
		if d.Date.Equal(monday) {
			return "block-1"
		}
		return "block-2"
	}
	plan, err := Build(Input{Days: cal, Children: pop, Pairs: model.Pairs(pop), WeekOf: block},
		Config{DailyCapacity: 2, WeeklyMin: 0, WeeklyMax: 1})
	require.NoError(t, err)
	assert.Equal(t, []model.WeekID{"block-1", "block-2"}, plan.Weeks)

	s, err := Extract(plan, zeroSolution(plan.Model))
	require.NoError(t, err)
	require.Len(t, s.Days, 2)
	assert.Equal(t, model.WeekID("block-1"), s.Days[0].Week)
	assert.Equal(t, model.WeekID("block-2"), s.Days[1].Week)
	assert.NotEqual(t, cal[0].Week, s.Days[0].Week)
}

package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestISOWeek(t *testing.T) {
	d := NewDay(time.Date(2020, 9, 7, 15, 4, 0, 0, time.Local))
	assert.Equal(t, WeekID("2020-W37"), d.Week)
	assert.Equal(t, "2020-09-07", d.Key())
	assert.Equal(t, WeekID("2020-W53"), ISOWeek(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestCalendarWeeks(t *testing.T) {
	var cal Calendar
	for i := 0; i < 14; i++ {
		cal = append(cal, NewDay(time.Date(2020, 9, 10+i, 0, 0, 0, 0, time.UTC)))
	}
	assert.Equal(t, []WeekID{"2020-W37", "2020-W38", "2020-W39"}, cal.Weeks(nil))
	byWeek := cal.DaysByWeek(nil)
	assert.Equal(t, []int{0, 1, 2, 3}, byWeek["2020-W37"])
	assert.Len(t, byWeek["2020-W38"], 7)

	single := func(Day) WeekID { return "all" }
	assert.Equal(t, []WeekID{"all"}, cal.Weeks(single))
	assert.Len(t, cal.DaysByWeek(single)["all"], 14)
}

func TestParseGroup(t *testing.T) {
	g, err := ParseGroup(" b ")
	assert.NoError(t, err)
	assert.Equal(t, GroupB, g)
	_, err = ParseGroup("c")
	assert.Error(t, err)
	assert.Equal(t, "A", GroupA.String())
	pop := Population{{ID: 1, Group: GroupA}, {ID: 2, Group: GroupB}, {ID: 3, Group: GroupA}}
	assert.Equal(t, []int{1, 3}, pop.InGroup(GroupA).IDs())
}

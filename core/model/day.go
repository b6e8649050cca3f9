package model

import (
	"fmt"
	"time"
)

// DateLayout is the layout used for day keys in variable names and reports.
const DateLayout = "2006-01-02"

// WeekID identifies the week a day belongs to, e.g. "2020-W37".
type WeekID string

// Day is one scheduling day of the horizon.
type Day struct {
	Date time.Time
	Week WeekID
}

// Key returns the date formatted with DateLayout.
func (d Day) Key() string { return d.Date.Format(DateLayout) }

// ISOWeek returns the ISO-8601 week identifier of t.
func ISOWeek(t time.Time) WeekID {
	y, w := t.ISOWeek()
	return WeekID(fmt.Sprintf("%d-W%02d", y, w))
}

// NewDay truncates t to midnight UTC and derives its ISO week.
func NewDay(t time.Time) Day {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return Day{Date: d, Week: ISOWeek(d)}
}

// Calendar is an ordered sequence of days.
type Calendar []Day

// Weeks returns the distinct week identifiers in first-seen order.
// A nil weekOf uses Day.Week.
func (c Calendar) Weeks(weekOf func(Day) WeekID) []WeekID {
	if weekOf == nil {
		weekOf = func(d Day) WeekID { return d.Week }
	}
	seen := make(map[WeekID]bool)
	var weeks []WeekID
	for _, d := range c {
		w := weekOf(d)
		if !seen[w] {
			seen[w] = true
			weeks = append(weeks, w)
		}
	}
	return weeks
}

// DaysByWeek groups day indexes by week using weekOf.
func (c Calendar) DaysByWeek(weekOf func(Day) WeekID) map[WeekID][]int {
	if weekOf == nil {
		weekOf = func(d Day) WeekID { return d.Week }
	}
	res := make(map[WeekID][]int)
	for i, d := range c {
		w := weekOf(d)
		res[w] = append(res[w], i)
	}
	return res
}

// Package calendar resolves the school horizon and the roster from
// configuration into the explicit inputs of the model builder.
package calendar

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kilianp07/rotation/core/model"
)

// ErrEmptyHorizon is returned when a range contains no school day.
var ErrEmptyHorizon = errors.New("horizon has no school day")

// ParseDate parses a YYYY-MM-DD date in UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(model.DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// ParseRange parses "2020-09-07..2020-09-18" into its inclusive bounds.
func ParseRange(s string) (start, end time.Time, err error) {
	from, to, ok := strings.Cut(s, "..")
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid range %q: want START..END", s)
	}
	if start, err = ParseDate(from); err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end, err = ParseDate(to); err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid range %q: end before start", s)
	}
	return start, end, nil
}

// BusinessDays lists Monday to Friday dates in [start, end] that are not
// holidays. Each day carries its ISO week.
func BusinessDays(start, end time.Time, holidays []time.Time) (model.Calendar, error) {
	off := make(map[string]bool, len(holidays))
	for _, h := range holidays {
		off[h.Format(model.DateLayout)] = true
	}
	first := model.NewDay(start).Date
	last := model.NewDay(end).Date
	var cal model.Calendar
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		if off[d.Format(model.DateLayout)] {
			continue
		}
		cal = append(cal, model.NewDay(d))
	}
	if len(cal) == 0 {
		return nil, fmt.Errorf("%s..%s: %w", first.Format(model.DateLayout), last.Format(model.DateLayout), ErrEmptyHorizon)
	}
	return cal, nil
}

// ExplicitDays builds a calendar from listed dates, sorted by date.
// Duplicates are kept so that the builder reports them.
func ExplicitDays(dates []string) (model.Calendar, error) {
	cal := make(model.Calendar, 0, len(dates))
	for _, s := range dates {
		t, err := ParseDate(s)
		if err != nil {
			return nil, err
		}
		cal = append(cal, model.NewDay(t))
	}
	sort.SliceStable(cal, func(i, j int) bool { return cal[i].Date.Before(cal[j].Date) })
	return cal, nil
}

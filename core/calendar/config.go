package calendar

import (
	"fmt"
	"time"

	"github.com/kilianp07/rotation/core/model"
)

// Config describes the school horizon. Either Range or Dates is used; Dates
// wins when both are set.
type Config struct {
	Range    string   `json:"range"`
	Dates    []string `json:"dates"`
	Holidays []string `json:"holidays"`
}

// SetDefaults applies the 2020-09-07..2020-09-18 horizon.
func (c *Config) SetDefaults() {
	if c.Range == "" && len(c.Dates) == 0 {
		c.Range = "2020-09-07..2020-09-18"
	}
}

// Resolve returns the calendar described by c.
func (c Config) Resolve() (model.Calendar, error) {
	if len(c.Dates) > 0 {
		return ExplicitDays(c.Dates)
	}
	start, end, err := ParseRange(c.Range)
	if err != nil {
		return nil, err
	}
	holidays := make([]time.Time, 0, len(c.Holidays))
	for _, h := range c.Holidays {
		t, err := ParseDate(h)
		if err != nil {
			return nil, fmt.Errorf("holiday: %w", err)
		}
		holidays = append(holidays, t)
	}
	return BusinessDays(start, end, holidays)
}

// PopulationConfig describes the children. A non-empty Roster takes
// precedence over Size.
type PopulationConfig struct {
	Size   int           `json:"size"`
	Roster []RosterEntry `json:"roster"`
}

// SetDefaults applies a class of 24.
func (c *PopulationConfig) SetDefaults() {
	if c.Size == 0 && len(c.Roster) == 0 {
		c.Size = 24
	}
}

// Resolve returns the population described by c.
func (c PopulationConfig) Resolve() (model.Population, error) {
	if len(c.Roster) > 0 {
		return Roster(c.Roster)
	}
	if c.Size < 0 {
		return nil, fmt.Errorf("population size must not be negative, got %d", c.Size)
	}
	return AlternatingPopulation(c.Size), nil
}

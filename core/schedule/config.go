package schedule

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// PartialWeekPolicy selects how frequency bounds apply to weeks having fewer
// days than WorkingDaysPerWeek.
type PartialWeekPolicy string

const (
	// PartialWeeksStrict applies the full [WeeklyMin, WeeklyMax] range.
	PartialWeeksStrict PartialWeekPolicy = "strict"
	// PartialWeeksClamp clamps both bounds to the number of days of the week.
	PartialWeeksClamp PartialWeekPolicy = "clamp"
	// PartialWeeksSkip emits no frequency constraint for the week.
	PartialWeeksSkip PartialWeekPolicy = "skip"
)

// Config holds the tunable constants of the model.
type Config struct {
	DailyCapacity      int               `json:"daily_capacity" validate:"gte=0"`
	WeeklyMin          int               `json:"weekly_min" validate:"gte=0"`
	WeeklyMax          int               `json:"weekly_max" validate:"gte=0"`
	WorkingDaysPerWeek int               `json:"working_days_per_week" validate:"gte=1,lte=7"`
	PartialWeeks       PartialWeekPolicy `json:"partial_weeks" validate:"oneof=strict clamp skip"`
}

// DefaultConfig is the 24 children rotation: 15 seats a day, 2 to 3 days a week.
func DefaultConfig() Config {
	return Config{
		DailyCapacity:      15,
		WeeklyMin:          2,
		WeeklyMax:          3,
		WorkingDaysPerWeek: 5,
		PartialWeeks:       PartialWeeksStrict,
	}
}

// SetDefaults fills fields left empty.
func (c *Config) SetDefaults() {
	if c.WorkingDaysPerWeek == 0 {
		c.WorkingDaysPerWeek = 5
	}
	if c.PartialWeeks == "" {
		c.PartialWeeks = PartialWeeksStrict
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate rejects contradictory or out of range settings.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &ConfigError{Field: fe.Field(), Reason: fmt.Sprintf("failed %s=%s (got %v)", fe.Tag(), fe.Param(), fe.Value())}
		}
		return &ConfigError{Field: "config", Reason: err.Error()}
	}
	if c.WeeklyMin > c.WeeklyMax {
		return &ConfigError{Field: "WeeklyMin", Reason: fmt.Sprintf("weekly_min %d exceeds weekly_max %d", c.WeeklyMin, c.WeeklyMax)}
	}
	return nil
}

// frequencyBounds returns the bounds for a week with n days. skip is true
// when no frequency constraint applies.
func (c Config) frequencyBounds(n int) (lo, hi int, skip bool) {
	if n >= c.WorkingDaysPerWeek {
		return c.WeeklyMin, c.WeeklyMax, false
	}
	switch c.PartialWeeks {
	case PartialWeeksClamp:
		return min(c.WeeklyMin, n), min(c.WeeklyMax, n), false
	case PartialWeeksSkip:
		return 0, 0, true
	default:
		return c.WeeklyMin, c.WeeklyMax, false
	}
}

package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 15, cfg.DailyCapacity)
}

func TestSetDefaults(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()
	assert.Equal(t, 5, cfg.WorkingDaysPerWeek)
	assert.Equal(t, PartialWeeksStrict, cfg.PartialWeeks)
	assert.NoError(t, cfg.Validate())
}

func TestFrequencyBounds(t *testing.T) {
	cfg := Config{WeeklyMin: 2, WeeklyMax: 3, WorkingDaysPerWeek: 5, PartialWeeks: PartialWeeksClamp}
	lo, hi, skip := cfg.frequencyBounds(5)
	assert.Equal(t, []any{2, 3, false}, []any{lo, hi, skip})
	lo, hi, skip = cfg.frequencyBounds(2)
	assert.Equal(t, []any{2, 2, false}, []any{lo, hi, skip})
	cfg.PartialWeeks = PartialWeeksSkip
	_, _, skip = cfg.frequencyBounds(4)
	assert.True(t, skip)
}

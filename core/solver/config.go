package solver

import (
	"fmt"
	"time"

	"github.com/kilianp07/rotation/core/factory"
)

// Config selects the solver backend and its search settings.
type Config struct {
	Backend          factory.ModuleConfig `json:"backend"`
	Gap              float64              `json:"gap"`
	TimeLimitSeconds int                  `json:"time_limit_seconds"`
	// MaxRetries applies to ErrUnreachable only.
	MaxRetries int `json:"max_retries"`
	BackoffMS  int `json:"backoff_ms"`
}

// SetDefaults applies the default search settings where unset.
func (c *Config) SetDefaults() {
	if c.Backend.Type == "" {
		c.Backend.Type = "bnb"
	}
	def := DefaultOptions()
	if c.Gap == 0 {
		c.Gap = def.Gap
	}
	if c.TimeLimitSeconds == 0 {
		c.TimeLimitSeconds = int(def.TimeLimit / time.Second)
	}
	if c.BackoffMS == 0 {
		c.BackoffMS = 500
	}
}

// Validate checks ranges.
func (c Config) Validate() error {
	if c.Gap < 0 || c.Gap >= 1 {
		return fmt.Errorf("solver gap must be in [0,1), got %v", c.Gap)
	}
	if c.TimeLimitSeconds < 0 {
		return fmt.Errorf("solver time_limit_seconds must not be negative")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("solver max_retries must not be negative")
	}
	return nil
}

// Options converts the configuration into solve options.
func (c Config) Options() Options {
	return Options{Gap: c.Gap, TimeLimit: time.Duration(c.TimeLimitSeconds) * time.Second}
}

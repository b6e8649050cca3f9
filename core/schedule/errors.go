package schedule

import (
	"errors"
	"fmt"
)

// ErrConfig is matched by every ConfigError.
var ErrConfig = errors.New("invalid schedule configuration")

// ErrNoSolution is returned by Extract for solutions without values.
var ErrNoSolution = errors.New("solution carries no assignment")

// ConfigError reports an input or setting rejected at build time.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("schedule config %s: %s", e.Field, e.Reason)
}

// Is matches ErrConfig.
func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

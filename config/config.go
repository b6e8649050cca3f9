package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/rotation/core/calendar"
	"github.com/kilianp07/rotation/core/metrics"
	"github.com/kilianp07/rotation/core/schedule"
	"github.com/kilianp07/rotation/core/solver"
	"github.com/kilianp07/rotation/infra/monitoring"
	"github.com/kilianp07/rotation/infra/mqtt"
	"github.com/kilianp07/rotation/infra/solver/server"
	"github.com/kilianp07/rotation/infra/store"
)

// EnvPrefix marks environment overrides. Nested keys are separated by a
// double underscore: K_SCHEDULE__DAILY_CAPACITY=12.
const EnvPrefix = "K_"

type Config struct {
	Calendar   calendar.Config           `json:"calendar"`
	Population calendar.PopulationConfig `json:"population"`
	Schedule   schedule.Config           `json:"schedule"`
	Solver     solver.Config             `json:"solver"`
	Metrics    metrics.Config            `json:"metrics"`
	Store      store.Config              `json:"store"`
	MQTT       mqtt.Config               `json:"mqtt"`
	Server     server.Config             `json:"server"`
	Sentry     monitoring.Config         `json:"sentry"`
	Logging    LoggingConfig             `json:"logging"`
}

// Default returns the configuration of the September 2020 two-week run.
func Default() *Config {
	cfg := &Config{Schedule: schedule.DefaultConfig()}
	cfg.SetDefaults()
	return cfg
}

// Load reads path (YAML or JSON) and applies environment overrides. An empty
// path loads the defaults with environment overrides only. Schedule fields
// absent from the file keep their default values.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides. The callback turns K_A__B into a.b, so
	// the provider splits on ".".
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	cfg := Config{Schedule: schedule.DefaultConfig()}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.Calendar.SetDefaults()
	c.Population.SetDefaults()
	c.Schedule.SetDefaults()
	c.Solver.SetDefaults()
	c.Store.SetDefaults()
	c.MQTT.SetDefaults()
	c.Server.SetDefaults()
	c.Logging.SetDefaults()
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Schedule.Validate(); err != nil {
		return err
	}
	if err := c.Solver.Validate(); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	for name, section := range map[string]any{"store": c.Store, "mqtt": c.MQTT, "sentry": c.Sentry} {
		if err := validate.Struct(section); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if c.Store.Type != "none" && c.Store.Path == "" {
		return fmt.Errorf("store: %s requires a path", c.Store.Type)
	}
	if c.Population.Size < 0 {
		return fmt.Errorf("population size must not be negative, got %d", c.Population.Size)
	}
	return nil
}

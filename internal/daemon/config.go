package daemon

import "github.com/ridgedb/ridge/internal/config"

// Config is ridge's daemon configuration — internal/config's Config,
// re-exported here so callers of this package (the ridged CLI, tests)
// don't need a second import for the same type, matching the teacher's
// own daemon package owning its Config type directly.
type Config = config.Config

// SchedulerSection is internal/config's scheduler section, re-exported
// for the same reason as Config.
type SchedulerSection = config.SchedulerConfig

// LoadConfig reads config from the default path (~/.ridge/config.toml),
// falling back to DefaultConfig() if it does not exist.
func LoadConfig() (Config, error) { return config.Load("") }

// SaveConfig writes cfg to the default path.
func SaveConfig(cfg Config) error { return config.Save(cfg, "") }

// DefaultConfig returns ridge's out-of-the-box configuration.
func DefaultConfig() Config { return config.DefaultConfig() }

func ridgeHome() string {
	return config.RidgeHome()
}

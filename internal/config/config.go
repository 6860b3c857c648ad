package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v9"

	"github.com/bcnelson/winterface/internal/logging"
)

// Config holds all process configuration. The admin interface access
// settings themselves are not here; they live in the settings store and the
// optional settings file.
type Config struct {
	Database DatabaseConfig
	Settings SettingsConfig
	Log      LogConfig
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Driver string `env:"DB_DRIVER" envDefault:"sqlite3"`
	DSN    string `env:"DB_DSN" envDefault:"data/winterface.db"`
}

// SettingsConfig holds settings source configuration.
type SettingsConfig struct {
	File            string        `env:"SETTINGS_FILE"` // Optional YAML overlay, read before the store
	Watch           bool          `env:"SETTINGS_WATCH" envDefault:"true"`
	RestartDebounce time.Duration `env:"RESTART_DEBOUNCE" envDefault:"1s"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
	JSON  bool   `env:"LOG_JSON" envDefault:"false"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(&cfg.Database); err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	if err := env.Parse(&cfg.Settings); err != nil {
		return nil, fmt.Errorf("parsing settings config: %w", err)
	}
	if err := env.Parse(&cfg.Log); err != nil {
		return nil, fmt.Errorf("parsing log config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite3 or postgres, got %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}

	if c.Settings.RestartDebounce < 0 {
		return fmt.Errorf("RESTART_DEBOUNCE must not be negative")
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}

	return nil
}

// UseSettingsFile returns true if a settings file overlay is configured.
func (c *Config) UseSettingsFile() bool {
	return c.Settings.File != ""
}

// Logging returns the logger configuration.
func (c *Config) Logging() logging.Config {
	level, _ := logging.ParseLevel(c.Log.Level)
	return logging.Config{Level: level, JSON: c.Log.JSON}
}

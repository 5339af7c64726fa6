package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the service configuration, loaded from the environment.
type Config struct {
	Port         int      `env:"PORT" envDefault:"8080"`
	DatabasePath string   `env:"DATABASE_PATH" envDefault:"progrid.db"`
	AdminIDs     []string `env:"ADMIN_IDS" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

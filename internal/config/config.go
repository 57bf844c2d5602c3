// Package config loads the server configuration from a TOML file with
// sensible defaults and environment overrides for secrets.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// AdminTokenEnv is the environment variable holding the admin API bearer
// token. The admin API is disabled when it is unset and no token is
// configured.
const AdminTokenEnv = "PEGBOARD_ADMIN_TOKEN"

// Config holds the server configuration.
type Config struct {
	Port     int    `toml:"port"`
	DataDir  string `toml:"data_dir"`
	LogLevel string `toml:"log_level"`

	// AdminToken may be set in the config file for development; the
	// environment variable always wins.
	AdminToken string `toml:"admin_token,omitempty"`

	Limits Limits `toml:"limits"`
}

// Limits are the capacity ceilings enforced by the services. Zero disables
// a ceiling.
type Limits struct {
	MaxLists        int `toml:"max_lists"`
	MaxCardsPerList int `toml:"max_cards_per_list"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:     8780,
		DataDir:  "./data",
		LogLevel: "info",
		Limits: Limits{
			MaxLists:        48,
			MaxCardsPerList: 500,
		},
	}
}

// Load reads a TOML config file on top of the defaults. An empty path
// returns the defaults unchanged. The admin token environment variable
// overrides any file value.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to load config %s: %w", path, err)
		}
	}

	if token := os.Getenv(AdminTokenEnv); token != "" {
		cfg.AdminToken = token
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return cfg, fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if cfg.DataDir == "" {
		return cfg, fmt.Errorf("data_dir must not be empty")
	}
	return cfg, nil
}

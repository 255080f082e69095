package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

type Config struct {
	BackendURL         string `toml:"backend_url"`
	APIKey             string `toml:"api_key"`
	CompletionTimeout  int    `toml:"completion_timeout_ms"`
	MaxContextTokens   int    `toml:"max_context_tokens"`
	CheckpointCapacity int    `toml:"checkpoint_capacity"`
	DBPath             string `toml:"db_path"`
	LogLevel           string `toml:"log_level"`
}

// Load reads the config file from ~/.config/texpilot/config.toml, falling
// back to defaults for any key the file omits. A missing file is not an
// error. TEXPILOT_API_KEY overrides the file's api_key.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		BackendURL:         "https://api.texpilot.dev/backend/latex_completion",
		CompletionTimeout:  30000,
		MaxContextTokens:   8000,
		CheckpointCapacity: 10,
		DBPath:             filepath.Join(home, ".config", "texpilot", "texpilot.db"),
		LogLevel:           "info",
	}

	cfgPath := filepath.Join(home, ".config", "texpilot", "config.toml")
	if _, err := os.Stat(cfgPath); err == nil {
		if _, err := toml.DecodeFile(cfgPath, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
		}
	}

	if key := os.Getenv("TEXPILOT_API_KEY"); key != "" {
		cfg.APIKey = key
	}

	cfg.DBPath = expandHome(cfg.DBPath, home)

	return cfg, nil
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}

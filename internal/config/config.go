package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces environment overrides, e.g. AISX_INPUT.
const EnvPrefix = "AISX"

type Config struct {
	Input     string `toml:"input" envconfig:"INPUT"`
	Title     string `toml:"title" envconfig:"TITLE"`
	PageSize  int    `toml:"page_size" envconfig:"PAGE_SIZE"`
	Workers   int    `toml:"workers" envconfig:"WORKERS"`
	Cache     bool   `toml:"cache" envconfig:"CACHE"`
	CachePath string `toml:"cache_path" envconfig:"CACHE_PATH"`
	LogLevel  string `toml:"log_level" envconfig:"LOG_LEVEL"`
}

// Load builds the configuration from defaults, ~/.config/aisx/config.toml
// and AISX_* environment variables, in that order.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return load(home)
}

func load(home string) (*Config, error) {
	cfg := &Config{
		Input:     filepath.Join(home, ".claude", "projects"),
		Title:     "Claude Code Conversations",
		PageSize:  15,
		Workers:   4,
		Cache:     true,
		CachePath: filepath.Join(home, ".config", "aisx", "catalog.db"),
		LogLevel:  "info",
	}

	cfgPath := Path(home)
	if _, err := os.Stat(cfgPath); err == nil {
		if _, err := toml.DecodeFile(cfgPath, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	// expand ~ in paths
	cfg.Input = expandHome(cfg.Input, home)
	cfg.CachePath = expandHome(cfg.CachePath, home)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path is the config file location under home.
func Path(home string) string {
	return filepath.Join(home, ".config", "aisx", "config.toml")
}

func (c *Config) validate() error {
	if c.PageSize <= 0 {
		return fmt.Errorf("config: page_size must be positive, got %d", c.PageSize)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("config: workers must be positive, got %d", c.Workers)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Level returns the slog level for LogLevel. Invalid values were rejected by
// Load, so they fall back to info here.
func (c *Config) Level() slog.Level {
	l, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return l
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("log_level %q: %w", s, err)
	}
	return l, nil
}

func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}

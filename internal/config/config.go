// Package config loads memoir configuration from a YAML file and
// environment variables.
//
// Precedence (highest to lowest):
//  1. Environment variables (MEMOIR_STORE_ROOT, MEMOIR_LOG_LEVEL, ...)
//  2. YAML config file (~/.memoir/config.yaml by default)
//  3. Hardcoded defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "MEMOIR_"

// Config holds all tunable settings.
type Config struct {
	StoreRoot string `koanf:"store_root"` // memory store directory
	TargetDoc string `koanf:"target_doc"` // global-scope promotion target

	MinConfidence        float64 `koanf:"min_confidence"`         // decay floor
	PromoteConfidence    float64 `koanf:"promote_confidence"`     // promotion gate
	PromotePositiveRatio float64 `koanf:"promote_positive_ratio"` // promotion ratio gate
	ImportConfidence     float64 `koanf:"import_confidence"`      // seed confidence for imported rules
	CorrectionConfidence float64 `koanf:"correction_confidence"`  // seed confidence for correction records
	KeepCooldownDays     int     `koanf:"keep_cooldown_days"`     // kept_observing suppression window

	LogLevel  string `koanf:"log_level"`  // debug, info, warn, error
	LogFormat string `koanf:"log_format"` // console or json
}

// Default returns the built-in configuration. Paths are resolved against
// the user's home directory; when that is unavailable they fall back to
// relative paths under the working directory.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		StoreRoot:            filepath.Join(home, ".memoir"),
		TargetDoc:            filepath.Join(home, ".claude", "CLAUDE.md"),
		MinConfidence:        0.1,
		PromoteConfidence:    0.8,
		PromotePositiveRatio: 0.7,
		ImportConfidence:     0.6,
		CorrectionConfidence: 0.7,
		KeepCooldownDays:     7,
		LogLevel:             "info",
		LogFormat:            "console",
	}
}

// DefaultPath is where Load looks for the config file when no path is given.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".memoir", "config.yaml")
	}
	return filepath.Join(home, ".memoir", "config.yaml")
}

// Load reads the YAML file at path (if it exists) and applies MEMOIR_*
// environment overrides on top of the defaults. A missing file is not an
// error; a malformed one is.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	k := koanf.New(".")

	if raw, err := os.ReadFile(path); err == nil {
		if err := k.Load(rawbytes.Provider(raw), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	// MEMOIR_STORE_ROOT -> store_root, MEMOIR_LOG_LEVEL -> log_level
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings that would make the lifecycle rules degenerate.
func (c *Config) Validate() error {
	if c.MinConfidence <= 0 || c.MinConfidence >= 1 {
		return fmt.Errorf("min_confidence must be in (0, 1), got %v", c.MinConfidence)
	}
	if c.PromoteConfidence <= 0 || c.PromoteConfidence > 1 {
		return fmt.Errorf("promote_confidence must be in (0, 1], got %v", c.PromoteConfidence)
	}
	if c.PromotePositiveRatio < 0 || c.PromotePositiveRatio > 1 {
		return fmt.Errorf("promote_positive_ratio must be in [0, 1], got %v", c.PromotePositiveRatio)
	}
	if c.KeepCooldownDays < 0 {
		return fmt.Errorf("keep_cooldown_days must not be negative, got %d", c.KeepCooldownDays)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log_format must be console or json, got %q", c.LogFormat)
	}
	return nil
}

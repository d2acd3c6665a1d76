// Package config loads engine configuration from the store's config manifest
// and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config drives scheduling defaults, cache sizing and logging for one store.
type Config struct {
	ManagerName     string          `yaml:"manager_name"`
	DefaultTimezone string          `yaml:"default_timezone"`
	Scheduling      SchedulingConfig `yaml:"scheduling"`
	Cache           CacheConfig     `yaml:"cache"`
	Log             LogConfig       `yaml:"log"`
}

type SchedulingConfig struct {
	DefaultDurationDays int  `yaml:"default_duration_days"`
	WorkingDaysOnly     bool `yaml:"working_days_only"`
	WorkingHoursPerDay  int  `yaml:"working_hours_per_day"`
}

type CacheConfig struct {
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func DefaultConfig() *Config {
	return &Config{
		DefaultTimezone: "UTC",
		Scheduling: SchedulingConfig{
			DefaultDurationDays: 1,
			WorkingDaysOnly:     false,
			WorkingHoursPerDay:  8,
		},
		Cache: CacheConfig{
			TTL:        5 * time.Minute,
			MaxEntries: 10000,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// FileName is the config manifest inside a store root.
const FileName = "config.yaml"

// Load reads the store config using the real environment.
func Load(root string) (*Config, error) {
	return LoadWithEnv(root, os.Getenv)
}

// LoadWithEnv reads the store config using the provided environment lookup.
// This allows tests to provide isolated environment values.
func LoadWithEnv(root string, getenv func(string) string) (*Config, error) {
	cfg := DefaultConfig()

	path := filepath.Join(root, FileName)
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Environment variables override the config file.
	if tz := getenv("TTR_TIMEZONE"); tz != "" {
		cfg.DefaultTimezone = tz
	}
	if level := getenv("TTR_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if hours := getenv("TTR_WORKING_HOURS"); hours != "" {
		if n, err := strconv.Atoi(hours); err == nil && n > 0 {
			cfg.Scheduling.WorkingHoursPerDay = n
		}
	}

	return cfg, nil
}

// Save writes the config manifest into the store root.
func (c *Config) Save(root string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}
	return os.WriteFile(filepath.Join(root, FileName), data, 0o644)
}

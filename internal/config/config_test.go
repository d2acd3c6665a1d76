package config

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	if cfg.DefaultTimezone != "UTC" {
		t.Errorf("DefaultTimezone = %q, want UTC", cfg.DefaultTimezone)
	}
	if cfg.Scheduling.WorkingHoursPerDay != 8 {
		t.Errorf("WorkingHoursPerDay = %d, want 8", cfg.Scheduling.WorkingHoursPerDay)
	}
	if cfg.Cache.TTL != 5*time.Minute {
		t.Errorf("Cache.TTL = %v, want 5m", cfg.Cache.TTL)
	}
}

func TestSaveAndLoad(t *testing.T) {
	t.Parallel()
	root := t.TempDir()

	cfg := DefaultConfig()
	cfg.ManagerName = "alex"
	cfg.Scheduling.WorkingDaysOnly = true
	if err := cfg.Save(root); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := LoadWithEnv(root, func(string) string { return "" })
	if err != nil {
		t.Fatalf("LoadWithEnv() error = %v", err)
	}
	if loaded.ManagerName != "alex" {
		t.Errorf("ManagerName = %q, want alex", loaded.ManagerName)
	}
	if !loaded.Scheduling.WorkingDaysOnly {
		t.Error("WorkingDaysOnly should round-trip")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := LoadWithEnv(t.TempDir(), func(string) string { return "" })
	if err != nil {
		t.Fatalf("LoadWithEnv() error = %v", err)
	}
	if cfg.DefaultTimezone != "UTC" {
		t.Errorf("DefaultTimezone = %q, want UTC", cfg.DefaultTimezone)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Parallel()
	env := map[string]string{
		"TTR_TIMEZONE":      "America/Sao_Paulo",
		"TTR_LOG_LEVEL":     "debug",
		"TTR_WORKING_HOURS": "6",
	}
	cfg, err := LoadWithEnv(t.TempDir(), func(key string) string { return env[key] })
	if err != nil {
		t.Fatalf("LoadWithEnv() error = %v", err)
	}
	if cfg.DefaultTimezone != "America/Sao_Paulo" {
		t.Errorf("DefaultTimezone = %q", cfg.DefaultTimezone)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
	if cfg.Scheduling.WorkingHoursPerDay != 6 {
		t.Errorf("WorkingHoursPerDay = %d, want 6", cfg.Scheduling.WorkingHoursPerDay)
	}
}

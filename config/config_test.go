package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("loading embedded defaults: %v", err)
	}
	if cfg.Drive.MaxSpeed <= 0 {
		t.Errorf("expected positive max_speed, got %v", cfg.Drive.MaxSpeed)
	}
	if cfg.Steering.ExplorationSectors != 8 {
		t.Errorf("expected 8 exploration sectors, got %d", cfg.Steering.ExplorationSectors)
	}
	if cfg.Tuning.Max != 5.0 {
		t.Errorf("expected tuning max 5.0, got %v", cfg.Tuning.Max)
	}
}

func TestLoadOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte("drive:\n  max_speed: 3.14\nsim:\n  num_robots: 12\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	if cfg.Drive.MaxSpeed != 3.14 {
		t.Errorf("override not applied, max_speed = %v", cfg.Drive.MaxSpeed)
	}
	if cfg.Sim.NumRobots != 12 {
		t.Errorf("override not applied, num_robots = %d", cfg.Sim.NumRobots)
	}
	// Untouched fields keep their defaults.
	if cfg.Drive.TurnGain != 0.3 {
		t.Errorf("default lost, turn_gain = %v", cfg.Drive.TurnGain)
	}
}

func TestValidateRejections(t *testing.T) {
	base := func() *Config {
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("loading defaults: %v", err)
		}
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative max speed", func(c *Config) { c.Drive.MaxSpeed = -1 }},
		{"zero smoothing alpha", func(c *Config) { c.Drive.SmoothingAlpha = 0 }},
		{"alpha above one", func(c *Config) { c.Drive.SmoothingAlpha = 1.5 }},
		{"negative separation threshold", func(c *Config) { c.Steering.SeparationThreshold = -0.1 }},
		{"unknown formation pattern", func(c *Config) { c.Steering.Formation.Pattern = "diamond" }},
		{"inverted tuning bounds", func(c *Config) { c.Tuning.Min = 3; c.Tuning.Max = 1 }},
		{"zero emergency threshold", func(c *Config) { c.Mission.EmergencyThreshold = 0 }},
		{"tiny tuning window", func(c *Config) { c.Tuning.Window = 1 }},
		{"zero robots", func(c *Config) { c.Sim.NumRobots = 0 }},
		{"zero dt", func(c *Config) { c.Sim.DT = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("reloading written config: %v", err)
	}
	if back.Drive.MaxSpeed != cfg.Drive.MaxSpeed {
		t.Errorf("round trip mismatch: %v != %v", back.Drive.MaxSpeed, cfg.Drive.MaxSpeed)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("got driver %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Scheduler.Interval.Std() != 30*time.Second {
		t.Errorf("got interval %s, want 30s", cfg.Scheduler.Interval.Std())
	}
}

func TestLoadParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
database:
  driver: postgres
  dsn: postgres://localhost/praxis
scheduler:
  interval: 10s
  phase_duration: 1m
  max_concurrent: 8
training:
  passing_scores: [50, 60, 70, 80]
  auto_accuracy: 0.5
  max_iterations: 3
provider:
  type: ollama
  endpoint: http://localhost:11434
  model: llama3
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("got driver %q", cfg.Database.Driver)
	}
	if cfg.Scheduler.Interval.Std() != 10*time.Second {
		t.Errorf("got interval %s", cfg.Scheduler.Interval.Std())
	}
	if cfg.Scheduler.MaxConcurrent != 8 {
		t.Errorf("got max_concurrent %d", cfg.Scheduler.MaxConcurrent)
	}
	if len(cfg.Training.PassingScores) != 4 || cfg.Training.PassingScores[0] != 50 {
		t.Errorf("got passing scores %v", cfg.Training.PassingScores)
	}
	if cfg.Provider.Type != "ollama" {
		t.Errorf("got provider type %q", cfg.Provider.Type)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("PRAXIS_DB_DRIVER", "postgres")
	t.Setenv("PRAXIS_SCHEDULER_INTERVAL", "45s")
	t.Setenv("PRAXIS_SCHEDULER_ALLOW_ALL", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("got driver %q, want postgres from env", cfg.Database.Driver)
	}
	if cfg.Scheduler.Interval.Std() != 45*time.Second {
		t.Errorf("got interval %s, want 45s from env", cfg.Scheduler.Interval.Std())
	}
	if !cfg.Scheduler.AllowAll {
		t.Error("expected allow_all from env")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("database:\n  driver: oracle\n"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for unsupported driver")
	}

	if err := os.WriteFile(path, []byte("training:\n  auto_accuracy: 1.5\n"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for out-of-range accuracy")
	}
}

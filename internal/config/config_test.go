package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Animation.FrameInterval != 16*time.Millisecond {
		t.Errorf("expected 16ms frame interval, got %v", cfg.Animation.FrameInterval)
	}
	if cfg.Events.Enabled {
		t.Error("expected events disabled by default")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `logging:
  level: debug
  format: json
animation:
  frame_interval: 5ms
  default_easing: ease-out
sequences:
  dirs:
    - /tmp/seqs
events:
  enabled: true
  database_path: /tmp/events.db
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
	if cfg.Animation.FrameInterval != 5*time.Millisecond {
		t.Fatalf("expected 5ms frame interval, got %v", cfg.Animation.FrameInterval)
	}
	if len(cfg.Sequences.Dirs) != 1 || cfg.Sequences.Dirs[0] != "/tmp/seqs" {
		t.Fatalf("unexpected sequence dirs: %v", cfg.Sequences.Dirs)
	}
	if !cfg.Events.Enabled {
		t.Fatal("expected events enabled")
	}
	if cfg.Source != path {
		t.Fatalf("expected source %q, got %q", path, cfg.Source)
	}
	// Untouched sections keep defaults.
	if cfg.Scheduler.QueueSize != DefaultConfig().Scheduler.QueueSize {
		t.Fatalf("expected default queue size, got %d", cfg.Scheduler.QueueSize)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SEQUENCER_LOGGING_LEVEL", "warn")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "warn" {
		t.Fatalf("expected env override warn, got %q", cfg.Logging.Level)
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	chdir(t, dir)

	// Register cleanup for both keys, then leave them unset so .env applies.
	t.Setenv("SEQUENCER_LOGGING_LEVEL", "")
	t.Setenv("SEQUENCER_METRICS_ADDR", "")
	os.Unsetenv("SEQUENCER_LOGGING_LEVEL")
	os.Unsetenv("SEQUENCER_METRICS_ADDR")

	content := "SEQUENCER_LOGGING_LEVEL=error\nSEQUENCER_METRICS_ADDR=127.0.0.1:9464\n"
	if err := os.WriteFile(filepath.Join(dir, DotEnvFile), []byte(content), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "error" {
		t.Fatalf("expected level from .env, got %q", cfg.Logging.Level)
	}
	if cfg.Metrics.Addr != "127.0.0.1:9464" {
		t.Fatalf("expected metrics addr from .env, got %q", cfg.Metrics.Addr)
	}
}

func TestDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	chdir(t, dir)
	t.Setenv("SEQUENCER_LOGGING_LEVEL", "debug")

	if err := os.WriteFile(filepath.Join(dir, DotEnvFile), []byte("SEQUENCER_LOGGING_LEVEL=error\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected environment to win, got %q", cfg.Logging.Level)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }},
		{"zero frame", func(c *Config) { c.Animation.FrameInterval = 0 }},
		{"negative queue", func(c *Config) { c.Scheduler.QueueSize = -1 }},
		{"events without path", func(c *Config) { c.Events.Enabled = true; c.Events.DatabasePath = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}

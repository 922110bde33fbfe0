// Package config loads sequencer configuration through viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DotEnvFile is read from the working directory before environment overrides
// are applied. Variables already set in the environment win.
const DotEnvFile = ".env"

// EnvPrefix is the prefix for environment overrides (SEQUENCER_LOGGING_LEVEL, ...).
const EnvPrefix = "SEQUENCER"

// Config is the full application configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Animation AnimationConfig `mapstructure:"animation"`
	Sequences SequencesConfig `mapstructure:"sequences"`
	Events    EventsConfig    `mapstructure:"events"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`

	// Source is the config file that was read, empty when defaults were used.
	Source string `mapstructure:"-"`
}

// LoggingConfig controls the zerolog output.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SchedulerConfig controls the event loop used for playback.
type SchedulerConfig struct {
	// QueueSize is the initial capacity of the loop's task queue.
	QueueSize int `mapstructure:"queue_size"`
}

// AnimationConfig controls the tween engine.
type AnimationConfig struct {
	FrameInterval time.Duration `mapstructure:"frame_interval"`
	DefaultEasing string        `mapstructure:"default_easing"`
}

// SequencesConfig lists extra directories searched for sequence files.
type SequencesConfig struct {
	Dirs []string `mapstructure:"dirs"`
}

// EventsConfig controls the SQLite event log.
type EventsConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	DatabasePath string `mapstructure:"database_path"`
}

// MetricsConfig controls the Prometheus endpoint served during playback.
type MetricsConfig struct {
	// Addr is the listen address, e.g. "127.0.0.1:9464". Empty disables it.
	Addr string `mapstructure:"addr"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Scheduler: SchedulerConfig{
			QueueSize: 64,
		},
		Animation: AnimationConfig{
			FrameInterval: 16 * time.Millisecond,
			DefaultEasing: "linear",
		},
		Events: EventsConfig{
			Enabled:      false,
			DatabasePath: filepath.Join(defaultDataDir(), "events.db"),
		},
	}
}

// Load reads configuration from path, or from the default search locations
// when path is empty. A missing config file in the search locations is not an error.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(DotEnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if strings.TrimSpace(path) != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, dir := range searchDirs() {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Source = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the runtime cannot use.
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "console", "json":
	default:
		return fmt.Errorf("invalid logging.format %q (want console or json)", c.Logging.Format)
	}
	if c.Scheduler.QueueSize < 0 {
		return fmt.Errorf("scheduler.queue_size must not be negative")
	}
	if c.Animation.FrameInterval <= 0 {
		return fmt.Errorf("animation.frame_interval must be greater than 0")
	}
	if c.Events.Enabled && strings.TrimSpace(c.Events.DatabasePath) == "" {
		return fmt.Errorf("events.database_path is required when events are enabled")
	}
	return nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("scheduler.queue_size", cfg.Scheduler.QueueSize)
	v.SetDefault("animation.frame_interval", cfg.Animation.FrameInterval)
	v.SetDefault("animation.default_easing", cfg.Animation.DefaultEasing)
	v.SetDefault("sequences.dirs", cfg.Sequences.Dirs)
	v.SetDefault("events.enabled", cfg.Events.Enabled)
	v.SetDefault("events.database_path", cfg.Events.DatabasePath)
	v.SetDefault("metrics.addr", cfg.Metrics.Addr)
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func searchDirs() []string {
	dirs := make([]string, 0, 2)
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		dirs = append(dirs, filepath.Join(xdg, "sequencer"))
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		dirs = append(dirs, filepath.Join(home, ".config", "sequencer"))
	}
	return dirs
}

func defaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".local", "share", "sequencer")
	}
	return filepath.Join(os.TempDir(), "sequencer")
}

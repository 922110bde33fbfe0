// Package cli implements the sequencer command line.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/opencode-ai/sequencer/internal/config"
	"github.com/opencode-ai/sequencer/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfgFile     string
	jsonOutput  bool
	jsonlOutput bool
	logLevel    string
	noColor     bool
	noProgress  bool

	appConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "sequencer",
	Short:         "Play cooperative action timelines",
	Long:          "sequencer loads timelines declared in YAML and plays them step by step: sleeps, calls, parallel animations, detached launches and blocking waits.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $XDG_CONFIG_HOME/sequencer/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")
	rootCmd.PersistentFlags().BoolVar(&jsonlOutput, "jsonl", false, "output JSON lines")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "disable progress output")
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

func initConfig() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if strings.TrimSpace(logLevel) != "" {
		cfg.Logging.Level = logLevel
	}

	format := cfg.Logging.Format
	if IsJSONOutput() || IsJSONLOutput() {
		format = "json"
	}
	if err := logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: format,
		Output: os.Stderr,
	}); err != nil {
		return err
	}

	appConfig = cfg
	if cfg.Source != "" {
		logger := logging.Component("cli")
		logger.Debug().Str("path", cfg.Source).Msg("config loaded")
	}
	return nil
}

// GetConfig returns the loaded configuration, or the defaults before
// initialisation.
func GetConfig() *config.Config {
	if appConfig == nil {
		return config.DefaultConfig()
	}
	return appConfig
}

// IsJSONOutput reports whether --json was given.
func IsJSONOutput() bool {
	return jsonOutput
}

// IsJSONLOutput reports whether --jsonl was given.
func IsJSONLOutput() bool {
	return jsonlOutput
}

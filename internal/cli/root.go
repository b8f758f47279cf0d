/*
PURPOSE:
  Defines the root Cobra command for the Forest Capacity CLI.
  Handles global flags, runner settings and their overrides.

REQUIREMENTS:
  User-specified:
  - Provide a CLI interface.
  - One positional argument (the benchmark config document) on `run`.

  Implementation-discovered:
  - Needs to expose an Execute() function for main.go.
  - Precedence is flags > FOREST_CAPACITY_* env > settings file > defaults.

ARCHITECTURE INTEGRATION:
  - Called by: cmd/forest-capacity/main.go
  - Calls: Child commands (run, validate)
  - Dependencies: github.com/spf13/cobra, github.com/spf13/viper

ERROR HANDLING:
  - Returns error to main.go for exit code handling.

IMPLEMENTATION RULES:
  - Use `PersistentFlags()` for flags available to all subcommands.
  - Settings are loaded once in PersistentPreRunE and shared through `settings`.

RELATED FILES:
  - cmd/forest-capacity/main.go
  - internal/config/config.go
*/

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/daryltucker/forest-capacity/internal/config"
	"github.com/daryltucker/forest-capacity/internal/output"
)

var (
	// settingsFile stores the path to the runner settings file (if specified via flag)
	settingsFile string
	// settings is the merged runner configuration for the current command.
	settings *config.Config

	v = viper.New()

	rootCmd = &cobra.Command{
		Use:   "forest-capacity",
		Short: "Find the highest concurrent-user count a serving stack sustains",
		Long: `Drives an external load benchmark repeatedly, searching for the largest user
count whose TTFT and latency per token stay under fixed thresholds. Use 'run --help'
for search and soak options.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSettings()
			if err != nil {
				return err
			}
			settings = cfg
			return output.SetLevel(cfg.LogLevel)
		},
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&settingsFile, "settings", "", "runner settings file (default is ./forest_capacity.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")

	v.SetEnvPrefix("FOREST_CAPACITY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// loadSettings reads the settings file and layers env and flag overrides on top.
func loadSettings() (*config.Config, error) {
	cfg, err := config.Load(settingsFile)
	if err != nil {
		return nil, err
	}
	applyOverrides(cfg, v)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return cfg, nil
}

// applyOverrides copies every key set by flag or env into cfg.
func applyOverrides(cfg *config.Config, v *viper.Viper) {
	if v.IsSet("binary") {
		cfg.BenchmarkBinary = v.GetString("binary")
	}
	if v.IsSet("start-users") {
		cfg.StartUsers = v.GetInt("start-users")
	}
	if v.IsSet("increment") {
		cfg.Increment = v.GetInt("increment")
	}
	if v.IsSet("max-users") {
		cfg.MaxUserCount = v.GetInt("max-users")
	}
	if v.IsSet("trial-timeout") {
		cfg.TrialTimeout = v.GetDuration("trial-timeout")
	}
	if v.IsSet("delay") {
		cfg.ContinuousDelay = v.GetDuration("delay")
	}
	if v.IsSet("iterations") {
		cfg.MaxIterations = v.GetInt("iterations")
	}
	if v.IsSet("log-level") {
		cfg.LogLevel = v.GetString("log-level")
	}
}

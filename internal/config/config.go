/*
PURPOSE:
  Defines the runner settings structure and loading logic for Forest Capacity.
  Adheres to "Config IS Code" philosophy.

REQUIREMENTS:
  User-specified:
  - Allow configuration of the benchmark binary, search start point and increment,
    the continuous-mode delay and the per-trial timeout.

  Implementation-discovered:
  - Needs to support YAML parsing.
  - The benchmark's own JSON document is NOT this file (see internal/benchdoc).
  - CLI flags and FOREST_CAPACITY_* env vars override values here (internal/cli).

ARCHITECTURE INTEGRATION:
  - Used by: internal/cli, internal/engine
  - Dependencies: gopkg.in/yaml.v3

ERROR HANDLING:
  - Returns explicit error if settings file is invalid.
  - Missing default files fall back to defaults.

IMPLEMENTATION RULES:
  - Config struct tags should support yaml.
  - Defaults reproduce the historical behaviour (56 users, +10, 5s delay, no timeout).

USAGE:
  cfg, err := config.Load("forest_capacity.yaml")

RELATED FILES:
  - internal/cli/root.go

MAINTENANCE:
  - Update when adding new tuning parameters.
*/

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/daryltucker/forest-capacity/internal/model"
)

// Config represents the runner settings for Forest Capacity.
type Config struct {
	BenchmarkBinary string   `yaml:"benchmark_binary"`
	BenchmarkArgs   []string `yaml:"benchmark_args"`
	StartUsers      int      `yaml:"start_users"`
	Increment       int      `yaml:"increment"`
	// MaxUserCount caps the linear probe. 0 means unbounded.
	MaxUserCount int `yaml:"max_user_count"`
	// TrialTimeout bounds a single benchmark invocation. 0 means none.
	TrialTimeout    time.Duration `yaml:"trial_timeout"`
	ContinuousDelay time.Duration `yaml:"continuous_delay"`
	// MaxIterations bounds the continuous loop. 0 means forever.
	MaxIterations  int              `yaml:"max_iterations"`
	ResultsDirName string           `yaml:"results_dir_name"`
	Thresholds     model.Thresholds `yaml:"thresholds"`
	LogLevel       string           `yaml:"log_level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		BenchmarkBinary: "echoswift",
		BenchmarkArgs:   []string{"start"},
		StartUsers:      56,
		Increment:       10,
		MaxUserCount:    0,
		TrialTimeout:    0,
		ContinuousDelay: 5 * time.Second,
		MaxIterations:   0,
		ResultsDirName:  "Results",
		Thresholds:      model.DefaultThresholds,
		LogLevel:        "info",
	}
}

// Load reads settings from a file.
// If path is specified, it attempts to load that file.
// If path is empty, it searches for default files in order.
// If no file found, returns default config.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	var data []byte
	var err error

	if path != "" {
		data, err = os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
	} else {
		defaults := []string{"forest_capacity.yaml", "forest_capacity.yml", "capacity.yaml"}
		found := false
		for _, name := range defaults {
			data, err = os.ReadFile(name)
			if err == nil {
				path = name
				found = true
				break
			}
		}
		if !found {
			return cfg, nil
		}
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings file %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the settings for values the search cannot work with.
func (c *Config) Validate() error {
	if c.BenchmarkBinary == "" {
		return fmt.Errorf("benchmark_binary must not be empty")
	}
	if c.StartUsers < 1 {
		return fmt.Errorf("start_users must be >= 1, got %d", c.StartUsers)
	}
	if c.Increment < 1 {
		return fmt.Errorf("increment must be >= 1, got %d", c.Increment)
	}
	if c.MaxUserCount < 0 {
		return fmt.Errorf("max_user_count must be >= 0, got %d", c.MaxUserCount)
	}
	if c.MaxUserCount > 0 && c.MaxUserCount < c.StartUsers {
		return fmt.Errorf("max_user_count (%d) is below start_users (%d)", c.MaxUserCount, c.StartUsers)
	}
	if c.TrialTimeout < 0 || c.ContinuousDelay < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	if c.MaxIterations < 0 {
		return fmt.Errorf("max_iterations must be >= 0, got %d", c.MaxIterations)
	}
	if c.ResultsDirName == "" {
		return fmt.Errorf("results_dir_name must not be empty")
	}
	return nil
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "echoswift", cfg.BenchmarkBinary)
	assert.Equal(t, []string{"start"}, cfg.BenchmarkArgs)
	assert.Equal(t, 56, cfg.StartUsers)
	assert.Equal(t, 10, cfg.Increment)
	assert.Equal(t, 5*time.Second, cfg.ContinuousDelay)
	assert.Zero(t, cfg.TrialTimeout)
	assert.Equal(t, 2000.0, cfg.Thresholds.TTFT)
	require.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	content := `
benchmark_binary: /opt/bench/echoswift
start_users: 8
increment: 4
trial_timeout: 90s
continuous_delay: 1s
thresholds:
  ttft_ms: 1500
  latency_per_token_ms: 100
  latency_ms: 200
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/bench/echoswift", cfg.BenchmarkBinary)
	assert.Equal(t, 8, cfg.StartUsers)
	assert.Equal(t, 4, cfg.Increment)
	assert.Equal(t, 90*time.Second, cfg.TrialTimeout)
	assert.Equal(t, time.Second, cfg.ContinuousDelay)
	assert.Equal(t, 1500.0, cfg.Thresholds.TTFT)
	// untouched keys keep their defaults
	assert.Equal(t, "Results", cfg.ResultsDirName)
	assert.Equal(t, []string{"start"}, cfg.BenchmarkArgs)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadNoDefaultFile(t *testing.T) {
	chdir(t, t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("increment: 0\n"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "increment")
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"empty binary":      func(c *Config) { c.BenchmarkBinary = "" },
		"zero start":        func(c *Config) { c.StartUsers = 0 },
		"cap below start":   func(c *Config) { c.MaxUserCount = 10 },
		"negative timeout":  func(c *Config) { c.TrialTimeout = -time.Second },
		"negative iters":    func(c *Config) { c.MaxIterations = -1 },
		"empty results dir": func(c *Config) { c.ResultsDirName = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kavikulu/shadowmine/pkg/pattern"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "test_config_*")
	require.NoError(t, err, "Failed to create temp directory")
	t.Cleanup(func() { os.RemoveAll(dir) })

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644), "Failed to write config file")
	return path
}

func TestGet_Defaults(t *testing.T) {
	cfg, err := Get(nil)
	require.NoError(t, err, "default configuration should parse")

	assert.Equal(t, []pattern.Kind{
		pattern.KindPhiRatio,
		pattern.KindFibonacci,
		pattern.KindCoherence,
		pattern.KindFieldCoupling,
	}, cfg.Detectors, "cross-coupling should stay opt-in")
	assert.Empty(t, cfg.Inputs)
	assert.Zero(t, cfg.Workers)
	assert.Equal(t, pattern.DefaultPhiConfig(), cfg.Phi)
	assert.Equal(t, pattern.DefaultFibonacciConfig(), cfg.Fibonacci)
	assert.Equal(t, pattern.DefaultCouplingConfig(), cfg.Coupling)
}

func TestGet_Flags(t *testing.T) {
	cfg, err := Get([]string{
		"--input", "a.csv,b.json",
		"--detectors", "phi_ratio,cross_coupling",
		"--workers", "4",
		"--store", "./wal/verdicts",
		"--listen", ":8080",
		"--json",
	})
	require.NoError(t, err, "flag configuration should parse")

	assert.Equal(t, []string{"a.csv", "b.json"}, cfg.Inputs)
	assert.Equal(t, []pattern.Kind{pattern.KindPhiRatio, pattern.KindCrossCoupling}, cfg.Detectors)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "./wal/verdicts", cfg.StoreDir)
	assert.Equal(t, ":8080", cfg.Listen)
	assert.True(t, cfg.JSON)
}

func TestGet_UnknownDetectorFlag(t *testing.T) {
	_, err := Get([]string{"--detectors", "phi_ratio,bogus"})
	require.Error(t, err, "unknown detector should be rejected")
	assert.Contains(t, err.Error(), "unknown detector")
}

func TestGet_NegativeWorkersFlag(t *testing.T) {
	_, err := Get([]string{"--workers", "-1"})
	require.Error(t, err, "negative worker count should be rejected")
}

func TestGet_Yaml(t *testing.T) {
	path := writeConfigFile(t, `
inputs:
  - data/growth.csv
  - https://example.com/series.json
detectors:
  - phi_ratio
  - coherence
workers: "2"
store_dir: ./wal/verdicts
listen: ":9090"
json: true
phi_tolerance: "0.07"
phi_threshold: "2.5"
phi_null_model: window
phi_trials: "500"
phi_seed: "42"
fibonacci_tolerance: "0.2"
fibonacci_threshold: "0.7"
smoothing_period: "7"
coupling_tolerance: "0.12"
coupling_threshold: "0.4"
`)

	cfg, err := Get([]string{"--config", path})
	require.NoError(t, err, "yaml configuration should parse")

	assert.Equal(t, []string{"data/growth.csv", "https://example.com/series.json"}, cfg.Inputs)
	assert.Equal(t, []pattern.Kind{pattern.KindPhiRatio, pattern.KindCoherence}, cfg.Detectors)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, "./wal/verdicts", cfg.StoreDir)
	assert.Equal(t, ":9090", cfg.Listen)
	assert.True(t, cfg.JSON)

	assert.InDelta(t, 0.07, cfg.Phi.Tolerance, 1e-12)
	assert.InDelta(t, 2.5, cfg.Phi.EnrichmentThreshold, 1e-12)
	assert.Equal(t, pattern.NullModelWindow, cfg.Phi.NullModel)
	assert.Equal(t, 500, cfg.Phi.Trials)
	assert.Equal(t, int64(42), cfg.Phi.Seed)

	assert.InDelta(t, 0.2, cfg.Fibonacci.Tolerance, 1e-12)
	assert.InDelta(t, 0.7, cfg.Fibonacci.SignificanceThreshold, 1e-12)

	assert.Equal(t, 7, cfg.Coherence.SmoothingPeriod)
	assert.Equal(t, cfg.Phi, cfg.Coherence.Phi, "coherence should embed the tuned phi config")
	assert.Equal(t, cfg.Fibonacci, cfg.Coherence.Fibonacci, "coherence should embed the tuned fibonacci config")

	assert.InDelta(t, 0.12, cfg.Coupling.Tolerance, 1e-12)
	assert.InDelta(t, 0.4, cfg.Coupling.SignificanceThreshold, 1e-12)
}

func TestGet_YamlPartial(t *testing.T) {
	path := writeConfigFile(t, `
inputs:
  - data/growth.csv
phi_tolerance: "0.08"
`)

	cfg, err := Get([]string{"--config", path})
	require.NoError(t, err, "partial yaml should fall back to defaults")

	assert.InDelta(t, 0.08, cfg.Phi.Tolerance, 1e-12)
	assert.InDelta(t, 2.0, cfg.Phi.EnrichmentThreshold, 1e-12, "unset keys should keep their defaults")
	assert.Len(t, cfg.Detectors, 4)
}

func TestGet_YamlUnknownKey(t *testing.T) {
	path := writeConfigFile(t, `
inputs:
  - data/growth.csv
phi_tolerence: "0.05"
`)

	_, err := Get([]string{"--config", path})
	require.Error(t, err, "misspelled keys should be rejected")
	assert.Contains(t, err.Error(), "incorrect yaml config")
}

func TestGet_YamlBadDecimal(t *testing.T) {
	path := writeConfigFile(t, `
phi_tolerance: "lots"
`)

	_, err := Get([]string{"--config", path})
	require.Error(t, err, "non-numeric threshold should be rejected")
	assert.Contains(t, err.Error(), "phi_tolerance")
}

func TestGet_YamlUnknownDetector(t *testing.T) {
	path := writeConfigFile(t, `
detectors:
  - phi_ratio
  - vibes
`)

	_, err := Get([]string{"--config", path})
	require.Error(t, err, "unknown detector in yaml should be rejected")
	assert.Contains(t, err.Error(), "unknown detector")
}

func TestGet_YamlNegativeWorkers(t *testing.T) {
	path := writeConfigFile(t, `
workers: "-2"
`)

	_, err := Get([]string{"--config", path})
	require.Error(t, err, "negative worker count in yaml should be rejected")
}

func TestGet_MissingYamlFile(t *testing.T) {
	_, err := Get([]string{"--config", "/nonexistent/config.yaml"})
	require.Error(t, err, "missing config file should surface an error")
}

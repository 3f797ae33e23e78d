package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, 60, cfg.Alerting.EvaluationIntervalSec)
	assert.Equal(t, 60, cfg.Alerting.DedupCooldownSec)
	assert.InDelta(t, 0.2, cfg.Synthetics.JitterPct, 1e-9)
	assert.Equal(t, 2000, cfg.Synthetics.SpreadStartMs)
}

func TestLoadDefaultThresholds(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.InDelta(t, 5, cfg.Thresholds.ErrorRate, 1e-9)
	assert.InDelta(t, 500, cfg.Thresholds.ResponseTime, 1e-9)
	assert.InDelta(t, 80, cfg.Thresholds.CPUUsage, 1e-9)
	assert.InDelta(t, 75, cfg.Thresholds.MemoryUsage, 1e-9)
	assert.InDelta(t, 500, cfg.Thresholds.DatabaseQueryTime, 1e-9)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("VALKEY_NODE", "cache:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "cache:6379", cfg.Cache.Node)
}

func TestValidateConfigRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Port = 0 }},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }},
		{"bad environment", func(c *Config) { c.Environment = "qa" }},
		{"bad storage driver", func(c *Config) { c.Storage.Driver = "postgres" }},
		{"missing sqlite path", func(c *Config) { c.Storage.Path = "" }},
		{"negative cooldown", func(c *Config) { c.Alerting.DedupCooldownSec = -1 }},
		{"jitter above cap", func(c *Config) { c.Synthetics.JitterPct = 1.5 }},
		{"error rate above 100", func(c *Config) { c.Thresholds.ErrorRate = 150 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, validateConfig(cfg))
		})
	}
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/models"
)

// Load loads configuration from various sources with priority order:
// 1. Environment variables
// 2. Configuration file (config.yaml)
// 3. Default values
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/apimon/")
	v.AddConfigPath("./configs/")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("APIMON")

	setDefaults(v)

	// Config file is optional; env vars and defaults suffice.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	overrideWithEnvVars(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("environment", "development")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")

	// CORS defaults
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Content-Type", "Authorization", "X-Request-ID"})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 3600)

	// Cache defaults (single-node Valkey, optional)
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.node", "localhost:6379")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.ttl", 0)

	// Storage defaults
	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.path", "./data/apimon.db")

	// Monitoring defaults
	v.SetDefault("monitoring.enabled", true)
	v.SetDefault("monitoring.metrics_path", "/metrics")

	// WebSocket defaults
	v.SetDefault("websocket.enabled", true)
	v.SetDefault("websocket.max_connections", 1000)
	v.SetDefault("websocket.read_buffer_size", 1024)
	v.SetDefault("websocket.write_buffer_size", 1024)
	v.SetDefault("websocket.ping_interval", 30)

	// Synthetics defaults
	v.SetDefault("synthetics.enabled", true)
	v.SetDefault("synthetics.jitter_pct", 0.2)
	v.SetDefault("synthetics.spread_start_ms", 2000)

	// Simulator defaults
	v.SetDefault("simulator.enabled", false)
	v.SetDefault("simulator.rps", 5)
	v.SetDefault("simulator.db_qps", 3)

	// Alerting defaults
	v.SetDefault("alerting.evaluation_interval_sec", 60)
	v.SetDefault("alerting.dedup_cooldown_sec", 60)
	v.SetDefault("alerting.ignore_404_endpoints", []string{})

	// Threshold defaults
	v.SetDefault("thresholds.error_rate", 5)
	v.SetDefault("thresholds.response_time", 500)
	v.SetDefault("thresholds.cpu_usage", 80)
	v.SetDefault("thresholds.memory_usage", 75)
	v.SetDefault("thresholds.database_query_time", 500)

	// Tracing defaults
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.otlp_endpoint", "")
	v.SetDefault("tracing.service_name", "apimon-server")
}

// FindConfigFile returns the path of the config file Load would read, or ""
// when none exists. The watcher uses it to know what to watch.
func FindConfigFile() string {
	for _, dir := range []string{"/etc/apimon", "./configs", "."} {
		path := dir + "/config.yaml"
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// overrideWithEnvVars explicitly handles environment variable overrides
func overrideWithEnvVars(v *viper.Viper) {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			v.Set("port", p)
		}
	}

	if env := os.Getenv("ENVIRONMENT"); env != "" {
		v.Set("environment", env)
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		v.Set("log_level", logLevel)
	}

	if cacheNode := os.Getenv("VALKEY_NODE"); cacheNode != "" {
		v.Set("cache.node", strings.TrimSpace(cacheNode))
		v.Set("cache.enabled", true)
	}

	if dbPath := os.Getenv("STORAGE_PATH"); dbPath != "" {
		v.Set("storage.path", dbPath)
	}

	if otlp := os.Getenv("OTLP_ENDPOINT"); otlp != "" {
		v.Set("tracing.otlp_endpoint", otlp)
		v.Set("tracing.enabled", true)
	}
}

// validateConfig validates the loaded configuration
func validateConfig(config *Config) error {
	if config.Port < 1 || config.Port > 65535 {
		return fmt.Errorf("invalid port number: %d", config.Port)
	}

	validLogLevels := []string{"debug", "info", "warn", "error", "fatal"}
	if !contains(validLogLevels, config.LogLevel) {
		return fmt.Errorf("invalid log level: %s", config.LogLevel)
	}

	validEnvironments := []string{"development", "staging", "production", "test"}
	if !contains(validEnvironments, config.Environment) {
		return fmt.Errorf("invalid environment: %s", config.Environment)
	}

	validDrivers := []string{"sqlite", "memory"}
	if !contains(validDrivers, config.Storage.Driver) {
		return fmt.Errorf("invalid storage driver: %s", config.Storage.Driver)
	}
	if config.Storage.Driver == "sqlite" && config.Storage.Path == "" {
		return fmt.Errorf("storage path is required for the sqlite driver")
	}

	if config.Cache.Enabled && config.Cache.Node == "" {
		return fmt.Errorf("cache node is required when the cache is enabled")
	}

	if config.Alerting.EvaluationIntervalSec < 1 {
		return fmt.Errorf("alert evaluation interval must be at least 1 second")
	}
	if config.Alerting.DedupCooldownSec < 0 {
		return fmt.Errorf("alert dedup cooldown cannot be negative")
	}

	if config.Synthetics.JitterPct < 0 || config.Synthetics.JitterPct > 0.9 {
		return fmt.Errorf("synthetics jitter must be between 0 and 0.9")
	}

	if err := validateThresholds(&config.Thresholds); err != nil {
		return err
	}

	return nil
}

func validateThresholds(t *models.Thresholds) error {
	if t.ErrorRate < 0 || t.ErrorRate > 100 {
		return fmt.Errorf("error rate threshold must be between 0 and 100")
	}
	if t.ResponseTime < 0 {
		return fmt.Errorf("response time threshold cannot be negative")
	}
	if t.CPUUsage < 0 || t.CPUUsage > 100 {
		return fmt.Errorf("cpu usage threshold must be between 0 and 100")
	}
	if t.MemoryUsage < 0 || t.MemoryUsage > 100 {
		return fmt.Errorf("memory usage threshold must be between 0 and 100")
	}
	if t.DatabaseQueryTime < 0 {
		return fmt.Errorf("database query time threshold cannot be negative")
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

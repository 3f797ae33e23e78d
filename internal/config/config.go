package config

import (
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/models"
)

// Config is the server configuration loaded from file, environment and
// defaults.
type Config struct {
	Environment string `mapstructure:"environment"`
	Port        int    `mapstructure:"port"`
	LogLevel    string `mapstructure:"log_level"`

	CORS       CORSConfig        `mapstructure:"cors"`
	Cache      CacheConfig       `mapstructure:"cache"`
	Storage    StorageConfig     `mapstructure:"storage"`
	Monitoring MonitoringConfig  `mapstructure:"monitoring"`
	WebSocket  WebSocketConfig   `mapstructure:"websocket"`
	Synthetics SyntheticsConfig  `mapstructure:"synthetics"`
	Simulator  SimulatorConfig   `mapstructure:"simulator"`
	Alerting   AlertingConfig    `mapstructure:"alerting"`
	Thresholds models.Thresholds `mapstructure:"thresholds"`
	Tracing    TracingConfig     `mapstructure:"tracing"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type CacheConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Node     string `mapstructure:"node"`
	DB       int    `mapstructure:"db"`
	Password string `mapstructure:"password"`
	TTL      int    `mapstructure:"ttl"` // seconds, 0 = no expiry
}

type StorageConfig struct {
	Driver string `mapstructure:"driver"` // sqlite | memory
	Path   string `mapstructure:"path"`
}

type MonitoringConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	MetricsPath string `mapstructure:"metrics_path"`
}

type WebSocketConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	MaxConnections  int  `mapstructure:"max_connections"`
	ReadBufferSize  int  `mapstructure:"read_buffer_size"`
	WriteBufferSize int  `mapstructure:"write_buffer_size"`
	PingInterval    int  `mapstructure:"ping_interval"` // seconds
}

type SyntheticsConfig struct {
	Enabled       bool    `mapstructure:"enabled"`
	JitterPct     float64 `mapstructure:"jitter_pct"`
	SpreadStartMs int     `mapstructure:"spread_start_ms"`
}

type SimulatorConfig struct {
	Enabled bool `mapstructure:"enabled"`
	RPS     int  `mapstructure:"rps"`
	DBQPS   int  `mapstructure:"db_qps"`
}

type AlertingConfig struct {
	EvaluationIntervalSec int `mapstructure:"evaluation_interval_sec"`
	DedupCooldownSec      int `mapstructure:"dedup_cooldown_sec"`
	// Endpoints whose 404 responses are expected and never alert.
	Ignore404Endpoints []string `mapstructure:"ignore_404_endpoints"`
}

type TracingConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	ServiceName  string `mapstructure:"service_name"`
}

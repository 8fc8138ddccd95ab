package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	RPC         RPCConfig
	Environment EnvironmentConfig
	Session     SessionConfig
	Logging     LogConfig
	RateLimit   RateLimitConfig
	Metrics     MetricsConfig
}

// RPCConfig holds RPC endpoint configuration.
type RPCConfig struct {
	Host            string        `envconfig:"RPC_HOST" default:"0.0.0.0" validate:"required"`
	Port            int           `envconfig:"RPC_PORT" default:"8000" validate:"gte=0,lte=65535"`
	Path            string        `envconfig:"RPC_PATH" default:"/tribler" validate:"required,startswith=/"`
	Serial          bool          `envconfig:"RPC_SERIAL" default:"true"`
	ShutdownTimeout time.Duration `envconfig:"RPC_SHUTDOWN_TIMEOUT" default:"5s" validate:"gt=0"`
}

// Addr returns the host:port the RPC server binds.
func (c RPCConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// EnvironmentConfig holds the process environment the service runs in.
// Empty paths are resolved by the environment initializer.
type EnvironmentConfig struct {
	ServiceArgument string `envconfig:"TSAP_SERVICE_ARGUMENT"`
	PackageCache    string `envconfig:"TSAP_PACKAGE_CACHE"`
	PrivateDir      string `envconfig:"TSAP_PRIVATE_DIR"`
	HostPlatform    string `envconfig:"TSAP_HOST_PLATFORM"`
	StateDir        string `envconfig:"TSAP_STATE_DIR"`
	DownloadDir     string `envconfig:"TSAP_DOWNLOAD_DIR"`
}

// SessionConfig holds session engine configuration.
type SessionConfig struct {
	InMemory         bool  `envconfig:"SESSION_IN_MEMORY" default:"false"`
	SyncWrites       bool  `envconfig:"SESSION_SYNC_WRITES" default:"true"`
	ValueLogFileSize int64 `envconfig:"SESSION_VALUE_LOG_SIZE" default:"67108864" validate:"gte=1048576"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100" validate:"gt=0"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200" validate:"gt=0"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// MetricsConfig holds Prometheus exposition configuration.
type MetricsConfig struct {
	Enabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
	Path    string `envconfig:"METRICS_PATH" default:"/metrics" validate:"required,startswith=/"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints declared in struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		RPC: RPCConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			Path:            "/tribler",
			Serial:          true,
			ShutdownTimeout: 5 * time.Second,
		},
		Session: SessionConfig{
			InMemory:         false,
			SyncWrites:       true,
			ValueLogFileSize: 64 << 20,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/wovenlabs/loom/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Extension host configuration
	Extensions ExtensionsConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// ExtensionsConfig holds extension discovery and lifecycle settings
type ExtensionsConfig struct {
	// Directories scanned for extension manifests
	Dirs []string

	// Watch enables filesystem watching of the extension directories
	Watch bool

	// RescanCron is an optional cron expression for periodic rescans
	RescanCron string

	// AutoActivate activates every discovered extension after loading
	AutoActivate bool

	// Manifest parse cache
	CacheSize int
	CacheTTL  time.Duration
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel

	// Metrics
	MetricsEnabled bool

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool    // Use insecure gRPC connection
	OTelSampleRatio    float64 // Fraction of root traces to record
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Extensions:    loadExtensionsConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("LOOM_HOST", "0.0.0.0"),
		Port:            getEnv("LOOM_PORT", "8080"),
		ReadTimeout:     getEnvDuration("LOOM_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("LOOM_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("LOOM_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("LOOM_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("LOOM_HEALTH_PORT", "9090"),
	}
}

// loadExtensionsConfig loads extension host configuration from environment
func loadExtensionsConfig() ExtensionsConfig {
	cfg := ExtensionsConfig{
		Watch:        getEnvBool("LOOM_EXTENSIONS_WATCH", false),
		RescanCron:   getEnv("LOOM_EXTENSIONS_RESCAN_CRON", ""),
		AutoActivate: getEnvBool("LOOM_EXTENSIONS_AUTO_ACTIVATE", true),
		CacheSize:    getEnvInt("LOOM_MANIFEST_CACHE_SIZE", 256),
		CacheTTL:     getEnvDuration("LOOM_MANIFEST_CACHE_TTL", 5*time.Minute),
	}

	dirs := getEnv("LOOM_EXTENSIONS_DIRS", "./extensions")
	for _, dir := range strings.Split(dirs, ",") {
		if dir = strings.TrimSpace(dir); dir != "" {
			cfg.Dirs = append(cfg.Dirs, dir)
		}
	}

	return cfg
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	cfg := ObservabilityConfig{
		LogLevel:           parseLogLevel(getEnv("LOOM_LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("LOOM_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("LOOM_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("LOOM_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("LOOM_OTEL_SERVICE_NAME", "loom-host"),
		OTelServiceVersion: getEnv("LOOM_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("LOOM_OTEL_INSECURE", true),
		OTelSampleRatio:    getEnvFloat("LOOM_OTEL_SAMPLE_RATIO", 1.0),
	}

	return cfg
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	// Validate extension host config
	if len(c.Extensions.Dirs) == 0 {
		return fmt.Errorf("at least one extension directory is required")
	}
	if c.Extensions.CacheSize <= 0 {
		return fmt.Errorf("manifest cache size must be positive")
	}

	// Validate OpenTelemetry config
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
		if c.Observability.OTelSampleRatio <= 0 || c.Observability.OTelSampleRatio > 1 {
			return fmt.Errorf("OpenTelemetry sample ratio must be in (0, 1]")
		}
	}

	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat returns a float environment variable or a default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from environment variables with
// sensible defaults for all settings.
//
// # Configuration Structure
//
// Server settings:
//
//	LOOM_HOST="0.0.0.0"
//	LOOM_PORT="8080"
//	LOOM_HEALTH_PORT="9090"
//	LOOM_READ_TIMEOUT="15s"
//	LOOM_WRITE_TIMEOUT="15s"
//
// Extension host settings:
//
//	LOOM_EXTENSIONS_DIRS="./extensions,/opt/loom/extensions"
//	LOOM_EXTENSIONS_WATCH="true"
//	LOOM_EXTENSIONS_RESCAN_CRON="*/5 * * * *"
//	LOOM_EXTENSIONS_AUTO_ACTIVATE="true"
//	LOOM_MANIFEST_CACHE_SIZE="256"
//	LOOM_MANIFEST_CACHE_TTL="5m"
//
// Observability settings:
//
//	LOOM_LOG_LEVEL="info"  # debug, info, warn, error
//	LOOM_METRICS_ENABLED="true"
//	LOOM_OTEL_ENABLED="true"
//	LOOM_OTEL_ENDPOINT="otel-collector:4317"
//	LOOM_OTEL_SAMPLE_RATIO="1.0"  # fraction of root traces in (0, 1]
//
// # Usage Example
//
// Load configuration:
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("Server: %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//	fmt.Printf("Extension dirs: %v\n", cfg.Extensions.Dirs)
//	fmt.Printf("Log level: %s\n", cfg.Observability.LogLevel)
//
// # Related Packages
//
//   - pkg/host: Uses extension host configuration
//   - pkg/observability: Uses observability configuration
package config

// Package observability provides structured logging, Prometheus metrics, and OpenTelemetry tracing.
//
// # Overview
//
// This package centralizes observability infrastructure including JSON logging, metrics
// collection, health checks, and distributed tracing integration.
//
// # Structured Logging
//
// Create logger:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("port", 8080).Info("Server started")
//
// Context-aware logging:
//
//	logger := observability.FromContext(ctx)
//	logger.WithError(err).Error("Request failed")
//
// # Prometheus Metrics
//
// Initialize metrics:
//
//	metrics := observability.NewMetrics(prometheus.NewRegistry())
//	metrics.HTTPRequestsTotal.WithLabelValues("GET", "/extensions", "200").Inc()
//	metrics.LoadsTotal.WithLabelValues("success").Inc()
//
// Lifecycle gauges:
//
//	metrics.ExtensionsRegistered.Set(float64(count))
//	metrics.ExtensionsEnabled.Set(float64(enabled))
//
// # Health Checks
//
// Configure health checker:
//
//	checker := observability.NewHealthChecker(version)
//	checker.AddCheck("registry", registryCheck)
//	status := checker.Check(ctx)
//
// # OpenTelemetry
//
// Initialize tracing:
//
//	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
//		ServiceName:    "loom-host",
//		ServiceVersion: "1.0.0",
//		Endpoint:       "otel-collector:4317",
//	}, logger)
//	defer observability.ShutdownOTel(ctx, providers, logger)
//
// # Related Packages
//
//   - pkg/config: Observability configuration
//   - pkg/httputil: Request logging middleware
package observability

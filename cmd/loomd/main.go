package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/wovenlabs/loom/pkg/api"
	"github.com/wovenlabs/loom/pkg/config"
	"github.com/wovenlabs/loom/pkg/host"
	"github.com/wovenlabs/loom/pkg/loader"
	"github.com/wovenlabs/loom/pkg/observability"
	"github.com/wovenlabs/loom/pkg/registry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "loomd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Observability.LogLevel == observability.DebugLevel {
		log.SetLevel(logrus.DebugLevel)
	}

	// OpenTelemetry (optional)
	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
		SampleRatio:    cfg.Observability.OTelSampleRatio,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	// Extension host. Extensions compiled into this binary register
	// their factories here before Startup.
	moduleRegistry := loader.NewModuleRegistry()
	registerBuiltins(moduleRegistry)

	h, err := host.New(cfg.Extensions, moduleRegistry, log)
	if err != nil {
		return err
	}

	// Metrics
	var metrics *observability.Metrics
	promRegistry := prometheus.NewRegistry()
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(promRegistry)
		h.Loader().SetMetrics(metrics)
	}

	// Boot the extension subsystem
	if err := h.Startup(ctx); err != nil {
		return err
	}
	if err := h.Start(ctx); err != nil {
		return err
	}
	logger.Infof("Extension host started with %d extensions", h.Registry().Count())

	// Admin API server
	apiServer := api.NewServer(h.Registry(), h.Loader())
	if metrics != nil {
		apiServer.SetMetrics(metrics)
	}

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      apiServer.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Health and metrics server on a separate port for probes
	healthChecker := observability.NewHealthChecker(cfg.Observability.OTelServiceVersion)
	healthChecker.AddCheck("registry", func(ctx context.Context) observability.DependencyStatus {
		if h.Registry().Count() == 0 {
			return observability.Degraded("no extensions registered")
		}
		return observability.Healthy()
	})
	healthChecker.AddCheck("extensions", func(ctx context.Context) observability.DependencyStatus {
		for _, meta := range h.Registry().List() {
			if meta.State == registry.StateError {
				return observability.Degraded("extension in error state: " + meta.Manifest.ID)
			}
		}
		return observability.Healthy()
	})

	healthMux := http.NewServeMux()
	observability.RegisterHealthRoutes(healthMux, healthChecker)
	if cfg.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(healthMux, promRegistry)
	}
	healthServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: healthMux,
	}

	go func() {
		logger.Infof("Health server listening on %s", healthServer.Addr)
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Health server failed")
		}
	}()

	go func() {
		logger.Infof("API server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("API server failed")
			os.Exit(1)
		}
	}()

	// Block until a shutdown signal, then unwind in order: API
	// server, extensions, telemetry.
	sm := observability.NewShutdownManager(logger, server, cfg.Server.ShutdownTimeout)
	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		return healthServer.Shutdown(ctx)
	})
	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		return h.Stop(ctx)
	})
	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		return observability.ShutdownOTel(ctx, providers, logger)
	})

	return sm.WaitForShutdown()
}

// registerBuiltins is the seam where compiled-in extensions register
// their module factories. The default build ships none.
func registerBuiltins(mr *loader.ModuleRegistry) {
	_ = mr
}

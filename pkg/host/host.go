package host

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/wovenlabs/loom/pkg/config"
	"github.com/wovenlabs/loom/pkg/loader"
	"github.com/wovenlabs/loom/pkg/manifest"
	"github.com/wovenlabs/loom/pkg/registry"
)

// Host owns the extension subsystem: registry, loader, discovery, and
// the optional watcher.
type Host struct {
	cfg       config.ExtensionsConfig
	registry  *registry.Registry
	loader    *loader.Loader
	discovery *Discovery
	watcher   *Watcher
	log       *logrus.Logger
}

// New wires up a host from configuration and the injected
// code-loading capability.
func New(cfg config.ExtensionsConfig, resolver loader.Resolver, log *logrus.Logger) (*Host, error) {
	if resolver == nil {
		return nil, fmt.Errorf("resolver is required")
	}
	if log == nil {
		log = logrus.New()
	}

	cache := manifest.NewCache(manifest.CacheConfig{
		MaxEntries: cfg.CacheSize,
		TTL:        cfg.CacheTTL,
	})

	reg := registry.NewRegistry(log)
	ld := loader.NewLoader(reg, resolver, log)

	h := &Host{
		cfg:       cfg,
		registry:  reg,
		loader:    ld,
		discovery: NewDiscovery(cfg.Dirs, cache, log),
		log:       log,
	}

	if cfg.Watch || cfg.RescanCron != "" {
		h.watcher = NewWatcher(h, cfg, log)
	}

	return h, nil
}

// Registry returns the host's extension registry.
func (h *Host) Registry() *registry.Registry {
	return h.registry
}

// Loader returns the host's lifecycle loader.
func (h *Host) Loader() *loader.Loader {
	return h.loader
}

// Scan discovers extensions on disk and reconciles the registry:
// newly found extensions are registered, extensions whose directory
// vanished are deactivated, unloaded, and unregistered.
func (h *Host) Scan(ctx context.Context) error {
	found, err := h.discovery.Scan()
	if err != nil {
		return err
	}

	present := make(map[string]bool, len(found))
	for _, disc := range found {
		present[disc.Manifest.ID] = true

		if meta, err := h.registry.Get(disc.Manifest.ID); err == nil {
			// Same manifest at the same path needs no re-registration.
			if meta.InstallPath == disc.InstallPath &&
				meta.Manifest.Version == disc.Manifest.Version {
				continue
			}

			// Drop the stale module so the next load resolves the new
			// install.
			if err := h.loader.Unload(ctx, disc.Manifest.ID); err != nil {
				h.log.WithError(err).WithField("extension", disc.Manifest.ID).
					Warn("Failed to unload changed extension")
			}
		}

		if err := h.registry.Register(disc.Manifest, disc.InstallPath); err != nil {
			h.log.WithError(err).WithField("extension", disc.Manifest.ID).
				Warn("Failed to register discovered extension")
		}
	}

	for _, id := range h.registry.IDs() {
		if present[id] {
			continue
		}

		h.log.WithField("extension", id).Info("Extension removed from disk, unregistering")
		if err := h.loader.Unload(ctx, id); err != nil {
			h.log.WithError(err).WithField("extension", id).
				Warn("Failed to unload removed extension")
		}
		h.registry.Unregister(id)
	}

	return nil
}

// Startup runs the boot sequence: scan, bulk load, and, when
// configured, bulk activation.
func (h *Host) Startup(ctx context.Context) error {
	if err := h.Scan(ctx); err != nil {
		return fmt.Errorf("extension scan failed: %w", err)
	}

	if err := h.loader.LoadAll(ctx); err != nil {
		return fmt.Errorf("extension load failed: %w", err)
	}

	if h.cfg.AutoActivate {
		if err := h.loader.ActivateAll(ctx); err != nil {
			return fmt.Errorf("extension activation failed: %w", err)
		}
	}

	return nil
}

// Start begins filesystem watching and scheduled rescans, when either
// is configured.
func (h *Host) Start(ctx context.Context) error {
	if h.watcher == nil {
		return nil
	}
	return h.watcher.Start(ctx)
}

// Stop halts the watcher and deactivates every enabled extension in
// reverse dependency order.
func (h *Host) Stop(ctx context.Context) error {
	if h.watcher != nil {
		h.watcher.Stop()
	}
	return h.loader.DeactivateAll(ctx)
}

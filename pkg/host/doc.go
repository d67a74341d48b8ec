// Package host ties the extension subsystem together: it discovers
// installed extensions on disk, registers them, drives the lifecycle
// through the loader, and keeps the registry in sync with the
// filesystem.
//
// # Overview
//
// A Host owns a Registry and a Loader and layers discovery on top.
// Scan walks the configured extension directories for manifest files,
// registering each valid extension it finds and unregistering
// extensions whose directories disappeared. Optional filesystem
// watching and a cron-driven rescan keep the registry current without
// restarting the process.
//
// # Usage Example
//
//	h, err := host.New(cfg, resolver, log)
//	if err != nil {
//		return err
//	}
//	if err := h.Scan(ctx); err != nil {
//		return err
//	}
//	if err := h.Start(ctx); err != nil {
//		return err
//	}
//	defer h.Stop(ctx)
//
// # Related Packages
//
//   - pkg/manifest: manifest parsing and validation
//   - pkg/registry: extension records and the dependency graph
//   - pkg/loader: lifecycle orchestration
package host

// Package loader orchestrates the extension lifecycle.
//
// # Overview
//
// The loader sequences load, activate, deactivate, and unload for one
// or many extensions. It enforces dependency order, detects circular
// dependencies before any side effect, isolates per-extension
// failures in bulk operations, and emits lifecycle events.
//
// # Key Features
//
// Module Cache: Load is idempotent and returns the identical module reference
// Dependency-First Activation: Required dependencies reach ENABLED strictly first
// Failure Isolation: LoadAll/ActivateAll record failures and keep going
// Activation Contexts: Scoped subscription arenas disposed LIFO on deactivate
// Lifecycle Events: In-process pub/sub with uuid-stamped payloads
//
// # Usage Example
//
// Wire a loader and activate everything:
//
//	ld := loader.NewLoader(reg, resolver, log)
//	ld.On(loader.EventActivated, func(e loader.Event) {
//		log.Infof("activated %s", e.ExtensionID)
//	})
//
//	if err := ld.LoadAll(ctx); err != nil {
//		return err // only structural failures (a cycle) reject the batch
//	}
//	if err := ld.ActivateAll(ctx); err != nil {
//		return err
//	}
//
// Single-extension lifecycle:
//
//	if err := ld.Activate(ctx, "flow-designer"); err != nil {
//		var depErr *loader.DependencyError
//		if errors.As(err, &depErr) {
//			log.Warnf("missing dependency: %s", depErr.DependencyID)
//		}
//	}
//
// # Concurrency
//
// A single logical caller drives lifecycle operations per extension
// id. Concurrent Load calls for the same id are deduplicated with
// singleflight; interleaving two Activate calls for one id is the
// caller's responsibility to prevent.
//
// # Related Packages
//
//   - pkg/registry: State and graph queries
//   - pkg/manifest: Manifest schema
package loader

// Package api exposes the extension host's administrative HTTP
// surface: registry introspection, manifest validation, and lifecycle
// triggers (load, activate, deactivate, unload, reload).
//
// The API is host tooling, not an extension-facing contract.
// Extensions interact with the host through their activation context,
// never through these endpoints.
package api

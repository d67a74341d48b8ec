package registry

import (
	"time"

	"github.com/wovenlabs/loom/pkg/manifest"
)

// State is an extension lifecycle state.
type State string

const (
	// StateUninstalled means the extension is known but not installed.
	StateUninstalled State = "uninstalled"
	// StateInstalled is the state immediately after registration.
	// Loading a module does not by itself leave this state.
	StateInstalled State = "installed"
	// StateEnabled means the extension is activated.
	StateEnabled State = "enabled"
	// StateDisabled means the extension was deactivated after being enabled.
	StateDisabled State = "disabled"
	// StateError means a lifecycle transition failed; Err records the reason.
	StateError State = "error"
)

// ExtensionMetadata wraps a manifest with the mutable lifecycle fields
// owned by the registry/loader pair. One record exists per registered
// id; it is created by Register and mutated in place by the loader.
type ExtensionMetadata struct {
	Manifest    *manifest.Manifest `json:"manifest"`
	State       State              `json:"state"`
	InstallPath string             `json:"installPath"`
	InstalledAt time.Time          `json:"installedAt"`
	Module      interface{}        `json:"-"`               // Present once loaded
	Err         string             `json:"error,omitempty"` // Present only in the error state
}

// ID returns the extension id from the manifest.
func (m *ExtensionMetadata) ID() string {
	return m.Manifest.ID
}

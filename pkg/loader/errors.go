package loader

import "fmt"

// LoaderError wraps a failure during load, activate, or deactivate,
// including errors raised by the extension's own hooks. It is always
// paired with a registry SetError call and an error event.
type LoaderError struct {
	Op          string // "load", "activate", "deactivate"
	ExtensionID string
	Err         error
}

// Error implements the error interface.
func (e *LoaderError) Error() string {
	return fmt.Sprintf("failed to %s extension %s: %v", e.Op, e.ExtensionID, e.Err)
}

// Unwrap returns the underlying cause.
func (e *LoaderError) Unwrap() error {
	return e.Err
}

// DependencyError is returned when a required dependency is missing
// from the registry at activation time.
type DependencyError struct {
	ExtensionID  string
	DependencyID string
}

// Error implements the error interface.
func (e *DependencyError) Error() string {
	return fmt.Sprintf("extension %s requires missing dependency %s", e.ExtensionID, e.DependencyID)
}

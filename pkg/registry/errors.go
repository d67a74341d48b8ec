package registry

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when an operation references an
	// unregistered extension id.
	ErrNotFound = errors.New("extension not found")
)

// ConflictError is returned by Register when a manifest declares a
// conflict with an installed extension, or an installed extension
// declares a conflict with the incoming id.
type ConflictError struct {
	ID         string
	ConflictID string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("extension %s conflicts with installed extension %s", e.ID, e.ConflictID)
}

// CircularDependencyError is returned before any side effect when a
// requested subset of the dependency graph contains a cycle. Path
// holds the offending cycle from the repeated id back to itself.
type CircularDependencyError struct {
	Path []string
}

// Error implements the error interface. The message is a host-facing
// diagnostic surfaced verbatim.
func (e *CircularDependencyError) Error() string {
	return "Circular dependency detected: " + strings.Join(e.Path, " -> ")
}

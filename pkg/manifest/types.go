package manifest

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest describes extension metadata. A manifest is immutable once
// registered with the registry.
type Manifest struct {
	ID               string            `yaml:"id" json:"id"`                               // Unique ID (e.g., "flow-designer")
	Name             string            `yaml:"name" json:"name"`                           // Display name
	Version          string            `yaml:"version" json:"version"`                     // Strict semver, no leading "v"
	Description      string            `yaml:"description,omitempty" json:"description,omitempty"`
	Author           Author            `yaml:"author,omitempty" json:"author,omitempty"`   // String or {name, email, url}
	Category         Category          `yaml:"category" json:"category"`                   // Extension category
	Keywords         []string          `yaml:"keywords,omitempty" json:"keywords,omitempty"`
	Main             string            `yaml:"main" json:"main"`                           // Entry reference
	Dependencies     []Dependency      `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`
	Permissions      []string          `yaml:"permissions,omitempty" json:"permissions,omitempty"` // Capability tags (network, storage, ...)
	ActivationEvents []string          `yaml:"activationEvents,omitempty" json:"activationEvents,omitempty"` // Opaque host triggers
	Engines          map[string]string `yaml:"engines,omitempty" json:"engines,omitempty"` // Minimum host-version compatibility
	Contributes      *Contributes      `yaml:"contributes,omitempty" json:"contributes,omitempty"`
	Conflicts        []string          `yaml:"conflicts,omitempty" json:"conflicts,omitempty"` // IDs this extension cannot coexist with
}

// Dependency is a declared dependency on another extension. Optional
// dependencies do not contribute edges to the dependency graph.
type Dependency struct {
	ID       string `yaml:"id" json:"id"`
	Version  string `yaml:"version" json:"version"`
	Optional bool   `yaml:"optional,omitempty" json:"optional,omitempty"`
}

// Author identifies the extension author. In manifest files it may be
// written either as a plain string or as a {name, email, url} mapping.
type Author struct {
	Name  string `yaml:"name" json:"name"`
	Email string `yaml:"email,omitempty" json:"email,omitempty"`
	URL   string `yaml:"url,omitempty" json:"url,omitempty"`
}

// UnmarshalYAML accepts both the scalar and the structured author form.
func (a *Author) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		a.Name = value.Value
		a.Email = ""
		a.URL = ""
		return nil
	}

	type plain Author
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*a = Author(p)
	return nil
}

// MarshalYAML writes the scalar form when only a name is set.
func (a Author) MarshalYAML() (interface{}, error) {
	if a.Email == "" && a.URL == "" {
		return a.Name, nil
	}
	type plain Author
	return plain(a), nil
}

// IsZero reports whether no author information is present.
func (a Author) IsZero() bool {
	return a.Name == "" && a.Email == "" && a.URL == ""
}

// Category classifies what an extension contributes to the host.
type Category string

const (
	CategoryWorkflowNode Category = "workflow-node"
	CategoryWidget       Category = "widget"
	CategoryIntegration  Category = "integration"
	CategoryUtility      Category = "utility"
	CategoryAgent        Category = "agent"
	CategoryTheme        Category = "theme"
)

var validCategories = map[Category]bool{
	CategoryWorkflowNode: true,
	CategoryWidget:       true,
	CategoryIntegration:  true,
	CategoryUtility:      true,
	CategoryAgent:        true,
	CategoryTheme:        true,
}

// Contributes declares the structured extension points an extension
// registers with the host. The host interprets these; the lifecycle
// subsystem only validates their shape.
type Contributes struct {
	Nodes    []NodeContribution    `yaml:"nodes,omitempty" json:"nodes,omitempty"`
	Widgets  []WidgetContribution  `yaml:"widgets,omitempty" json:"widgets,omitempty"`
	Commands []CommandContribution `yaml:"commands,omitempty" json:"commands,omitempty"`
	Settings []SettingContribution `yaml:"settings,omitempty" json:"settings,omitempty"`
}

// NodeContribution declares a workflow node type.
type NodeContribution struct {
	Type        string `yaml:"type" json:"type"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// WidgetContribution declares a dashboard widget.
type WidgetContribution struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// CommandContribution declares a host command.
type CommandContribution struct {
	Command string `yaml:"command" json:"command"`
	Title   string `yaml:"title" json:"title"`
}

// SettingContribution declares a configurable setting.
type SettingContribution struct {
	Key     string      `yaml:"key" json:"key"`
	Type    string      `yaml:"type" json:"type"`
	Default interface{} `yaml:"default,omitempty" json:"default,omitempty"`
}

// FieldError describes a single manifest constraint violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates the constraint violations found in a
// manifest. It is returned by Parse and by Registry.Register.
type ValidationError struct {
	Fields []FieldError
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "manifest validation failed: " + strings.Join(parts, "; ")
}

// ValidationResult is the non-throwing validation outcome used by
// batch tooling and API handlers.
type ValidationResult struct {
	Valid    bool         `json:"valid"`
	Manifest *Manifest    `json:"manifest,omitempty"`
	Errors   []FieldError `json:"errors,omitempty"`
}

package manifest

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// FileName is the manifest file looked up inside an extension's
// install directory.
const FileName = "extension.yaml"

const (
	maxDescriptionLength = 500
	maxKeywords          = 10
)

var (
	// extensionIDRegex matches kebab-case ids: lowercase start,
	// lowercase/digits/hyphens only, total length >= 3.
	extensionIDRegex = regexp.MustCompile(`^[a-z][a-z0-9-]{2,}$`)

	// semverRegex matches strict three-component semantic versions with
	// optional prerelease and build metadata. A leading "v" is rejected.
	semverRegex = regexp.MustCompile(`^(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)(-[0-9A-Za-z-]+(\.[0-9A-Za-z-]+)*)?(\+[0-9A-Za-z-]+(\.[0-9A-Za-z-]+)*)?$`)

	emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// IsValidExtensionID reports whether s is a well-formed extension id.
func IsValidExtensionID(s string) bool {
	return extensionIDRegex.MatchString(s)
}

// IsValidVersion reports whether s is a strict semantic version.
func IsValidVersion(s string) bool {
	return semverRegex.MatchString(s)
}

// Parse decodes and validates a manifest. The input may be YAML or
// JSON (YAML 1.2 is a JSON superset). It returns a *ValidationError
// when any field violates its constraint.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, &ValidationError{Fields: []FieldError{{
			Field:   "manifest",
			Message: fmt.Sprintf("failed to parse manifest: %v", err),
		}}}
	}

	if fieldErrs := check(&m); len(fieldErrs) > 0 {
		return nil, &ValidationError{Fields: fieldErrs}
	}

	return &m, nil
}

// Validate is the non-throwing variant of Parse for batch and API use.
func Validate(data []byte) *ValidationResult {
	m, err := Parse(data)
	if err != nil {
		verr := err.(*ValidationError)
		return &ValidationResult{Valid: false, Errors: verr.Fields}
	}
	return &ValidationResult{Valid: true, Manifest: m}
}

// ValidateManifest validates an already-decoded manifest.
func ValidateManifest(m *Manifest) error {
	if fieldErrs := check(m); len(fieldErrs) > 0 {
		return &ValidationError{Fields: fieldErrs}
	}
	return nil
}

// Load reads and parses a manifest from a file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return Parse(data)
}

// LoadFromDir loads a manifest from an extension directory (looks for
// extension.yaml).
func LoadFromDir(dir string) (*Manifest, error) {
	return Load(filepath.Join(dir, FileName))
}

// Save writes a manifest to a file.
func Save(m *Manifest, path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	return nil
}

// check collects every constraint violation in the manifest.
func check(m *Manifest) []FieldError {
	var errs []FieldError

	add := func(field, format string, args ...interface{}) {
		errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if m.ID == "" {
		add("id", "extension id is required")
	} else if !IsValidExtensionID(m.ID) {
		add("id", "invalid extension id %q: must match ^[a-z][a-z0-9-]{2,}$", m.ID)
	}

	if m.Name == "" {
		add("name", "extension name is required")
	}

	if m.Version == "" {
		add("version", "version is required")
	} else if !IsValidVersion(m.Version) {
		add("version", "invalid semver %q", m.Version)
	}

	if len(m.Description) > maxDescriptionLength {
		add("description", "description exceeds %d characters", maxDescriptionLength)
	}

	if m.Category == "" {
		add("category", "category is required")
	} else if !validCategories[m.Category] {
		add("category", "unknown category %q", m.Category)
	}

	if len(m.Keywords) > maxKeywords {
		add("keywords", "at most %d keywords are allowed", maxKeywords)
	}

	if m.Main == "" {
		add("main", "entry reference is required")
	}

	if m.Author.Email != "" && !emailRegex.MatchString(m.Author.Email) {
		add("author.email", "invalid email %q", m.Author.Email)
	}
	if m.Author.URL != "" && !isHTTPURL(m.Author.URL) {
		add("author.url", "invalid url %q", m.Author.URL)
	}

	for i, dep := range m.Dependencies {
		field := fmt.Sprintf("dependencies[%d]", i)
		if !IsValidExtensionID(dep.ID) {
			add(field+".id", "invalid dependency id %q", dep.ID)
		}
		if dep.Version == "" {
			add(field+".version", "dependency version is required")
		}
		if dep.ID == m.ID {
			add(field+".id", "extension cannot depend on itself")
		}
	}

	for engine, version := range m.Engines {
		if version == "" {
			add("engines."+engine, "engine version constraint is required")
		}
	}

	for i, id := range m.Conflicts {
		field := fmt.Sprintf("conflicts[%d]", i)
		if !IsValidExtensionID(id) {
			add(field, "invalid conflict id %q", id)
		}
		if id == m.ID {
			add(field, "extension cannot conflict with itself")
		}
	}

	if m.Contributes != nil {
		for i, n := range m.Contributes.Nodes {
			if n.Type == "" {
				add(fmt.Sprintf("contributes.nodes[%d].type", i), "node type is required")
			}
		}
		for i, w := range m.Contributes.Widgets {
			if w.ID == "" {
				add(fmt.Sprintf("contributes.widgets[%d].id", i), "widget id is required")
			}
		}
		for i, c := range m.Contributes.Commands {
			if c.Command == "" {
				add(fmt.Sprintf("contributes.commands[%d].command", i), "command is required")
			}
		}
		for i, s := range m.Contributes.Settings {
			if s.Key == "" {
				add(fmt.Sprintf("contributes.settings[%d].key", i), "setting key is required")
			}
		}
	}

	return errs
}

// isHTTPURL reports whether s is an absolute http(s) URL.
func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// RequiredDependencyIDs returns the ids of the manifest's non-optional
// dependencies, in declaration order.
func (m *Manifest) RequiredDependencyIDs() []string {
	ids := make([]string, 0, len(m.Dependencies))
	for _, dep := range m.Dependencies {
		if !dep.Optional {
			ids = append(ids, dep.ID)
		}
	}
	return ids
}

package manifest

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validManifestYAML() []byte {
	return []byte(`
id: flow-designer
name: Flow Designer
version: 1.2.0
description: Visual workflow editing
author:
  name: Jane Doe
  email: jane@example.com
  url: https://example.com
category: workflow-node
keywords: [workflow, editor]
main: dist/index
dependencies:
  - id: chart-widgets
    version: 1.0.0
  - id: theme-pack
    version: 2.0.0
    optional: true
permissions: [network]
activationEvents: ["onCommand:flow.open"]
engines:
  loom: ">=1.0.0"
contributes:
  nodes:
    - type: flow.branch
      name: Branch
  commands:
    - command: flow.open
      title: Open Flow
conflicts: [legacy-designer]
`)
}

// TestParse_Valid tests parsing a fully populated manifest
func TestParse_Valid(t *testing.T) {
	m, err := Parse(validManifestYAML())
	require.NoError(t, err)
	require.NotNil(t, m)

	assert.Equal(t, "flow-designer", m.ID)
	assert.Equal(t, "Flow Designer", m.Name)
	assert.Equal(t, "1.2.0", m.Version)
	assert.Equal(t, CategoryWorkflowNode, m.Category)
	assert.Equal(t, "Jane Doe", m.Author.Name)
	assert.Equal(t, "jane@example.com", m.Author.Email)
	assert.Len(t, m.Dependencies, 2)
	assert.True(t, m.Dependencies[1].Optional)
	assert.Equal(t, ">=1.0.0", m.Engines["loom"])
	assert.Equal(t, []string{"legacy-designer"}, m.Conflicts)
	require.NotNil(t, m.Contributes)
	assert.Equal(t, "flow.branch", m.Contributes.Nodes[0].Type)
}

// TestParse_ScalarAuthor tests the shorthand string author form
func TestParse_ScalarAuthor(t *testing.T) {
	m, err := Parse([]byte(`
id: scalar-author
name: Scalar Author
version: 0.1.0
category: utility
main: index
author: Solo Dev
`))
	require.NoError(t, err)
	assert.Equal(t, "Solo Dev", m.Author.Name)
	assert.Empty(t, m.Author.Email)
}

// TestParse_InvalidYAML tests that malformed input yields a ValidationError
func TestParse_InvalidYAML(t *testing.T) {
	m, err := Parse([]byte("id: [unclosed"))
	assert.Nil(t, m)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "manifest", verr.Fields[0].Field)
}

// TestParse_AggregatesFieldErrors tests that all violations are reported together
func TestParse_AggregatesFieldErrors(t *testing.T) {
	_, err := Parse([]byte(`
id: X
version: v1.0.0
category: nonsense
`))
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))

	fields := make(map[string]bool)
	for _, f := range verr.Fields {
		fields[f.Field] = true
	}
	assert.True(t, fields["id"])
	assert.True(t, fields["name"])
	assert.True(t, fields["version"])
	assert.True(t, fields["category"])
	assert.True(t, fields["main"])
}

// TestParse_SelfDependency tests rejection of an extension depending on itself
func TestParse_SelfDependency(t *testing.T) {
	_, err := Parse([]byte(`
id: self-dep
name: Self
version: 1.0.0
category: utility
main: index
dependencies:
  - id: self-dep
    version: 1.0.0
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot depend on itself")
}

// TestParse_SelfConflict tests rejection of an extension conflicting with itself
func TestParse_SelfConflict(t *testing.T) {
	_, err := Parse([]byte(`
id: self-conflict
name: Self
version: 1.0.0
category: utility
main: index
conflicts: [self-conflict]
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot conflict with itself")
}

// TestIsValidExtensionID tests the id grammar
func TestIsValidExtensionID(t *testing.T) {
	valid := []string{"abc", "flow-designer", "a1-b2-c3", "ext-0"}
	for _, id := range valid {
		assert.True(t, IsValidExtensionID(id), id)
	}

	invalid := []string{"", "ab", "Abc", "1abc", "-abc", "flow_designer", "flow designer"}
	for _, id := range invalid {
		assert.False(t, IsValidExtensionID(id), id)
	}
}

// TestIsValidVersion tests strict semver checking
func TestIsValidVersion(t *testing.T) {
	valid := []string{"0.0.1", "1.0.0", "10.20.30", "1.0.0-alpha.1", "1.0.0+build.5", "2.1.0-rc.1+sha.abc"}
	for _, v := range valid {
		assert.True(t, IsValidVersion(v), v)
	}

	invalid := []string{"", "v1.0.0", "1.0", "1", "1.0.0.0", "01.0.0", "1.0.0-"}
	for _, v := range invalid {
		assert.False(t, IsValidVersion(v), v)
	}
}

// TestValidate_NonThrowing tests the batch validation result shape
func TestValidate_NonThrowing(t *testing.T) {
	result := Validate(validManifestYAML())
	assert.True(t, result.Valid)
	assert.NotNil(t, result.Manifest)
	assert.Empty(t, result.Errors)

	result = Validate([]byte("id: bad id\nname: n\n"))
	assert.False(t, result.Valid)
	assert.Nil(t, result.Manifest)
	assert.NotEmpty(t, result.Errors)
}

// TestSaveAndLoadFromDir tests the file round trip through an extension directory
func TestSaveAndLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()

	m, err := Parse(validManifestYAML())
	require.NoError(t, err)

	err = Save(m, filepath.Join(tmpDir, FileName))
	require.NoError(t, err)

	loaded, err := LoadFromDir(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, m.ID, loaded.ID)
	assert.Equal(t, m.Version, loaded.Version)
	assert.Equal(t, m.Author, loaded.Author)
	assert.Equal(t, m.Dependencies, loaded.Dependencies)
}

// TestLoad_NonexistentFile tests loading from a missing path
func TestLoad_NonexistentFile(t *testing.T) {
	m, err := Load("/nonexistent/extension.yaml")
	assert.Error(t, err)
	assert.Nil(t, m)
	assert.Contains(t, err.Error(), "failed to read manifest")
}

// TestRequiredDependencyIDs tests that optional dependencies are excluded
func TestRequiredDependencyIDs(t *testing.T) {
	m, err := Parse(validManifestYAML())
	require.NoError(t, err)

	assert.Equal(t, []string{"chart-widgets"}, m.RequiredDependencyIDs())
}

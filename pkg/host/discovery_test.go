package host

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wovenlabs/loom/pkg/manifest"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

// writeExtension creates an extension directory with a manifest under dir.
func writeExtension(t *testing.T, dir, id string, deps ...string) string {
	t.Helper()

	extDir := filepath.Join(dir, id)
	require.NoError(t, os.MkdirAll(extDir, 0755))

	m := &manifest.Manifest{
		ID:       id,
		Name:     "Extension " + id,
		Version:  "1.0.0",
		Category: manifest.CategoryUtility,
		Main:     "index",
	}
	for _, dep := range deps {
		m.Dependencies = append(m.Dependencies, manifest.Dependency{ID: dep, Version: "1.0.0"})
	}
	require.NoError(t, manifest.Save(m, filepath.Join(extDir, manifest.FileName)))
	return extDir
}

// TestDiscovery_Scan tests finding extensions in a directory
func TestDiscovery_Scan(t *testing.T) {
	tmpDir := t.TempDir()
	writeExtension(t, tmpDir, "flow-designer")
	writeExtension(t, tmpDir, "chart-widgets")

	// Non-extension noise is ignored.
	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "not-an-extension"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "README.md"), []byte("x"), 0644))

	d := NewDiscovery([]string{tmpDir}, nil, quietLogger())
	found, err := d.Scan()
	require.NoError(t, err)

	ids := make([]string, 0, len(found))
	for _, disc := range found {
		ids = append(ids, disc.Manifest.ID)
	}
	assert.ElementsMatch(t, []string{"flow-designer", "chart-widgets"}, ids)
}

// TestDiscovery_SkipsInvalidManifests tests scan isolation
func TestDiscovery_SkipsInvalidManifests(t *testing.T) {
	tmpDir := t.TempDir()
	writeExtension(t, tmpDir, "good-ext")

	badDir := filepath.Join(tmpDir, "bad-ext")
	require.NoError(t, os.MkdirAll(badDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(badDir, manifest.FileName), []byte("id: X\n"), 0644))

	d := NewDiscovery([]string{tmpDir}, nil, quietLogger())
	found, err := d.Scan()
	require.NoError(t, err)

	require.Len(t, found, 1)
	assert.Equal(t, "good-ext", found[0].Manifest.ID)
}

// TestDiscovery_MissingDirectory tests that nonexistent dirs are skipped
func TestDiscovery_MissingDirectory(t *testing.T) {
	d := NewDiscovery([]string{"/nonexistent/extensions"}, nil, quietLogger())
	found, err := d.Scan()
	require.NoError(t, err)
	assert.Empty(t, found)
}

// TestDiscovery_DuplicateIDs tests that the first directory wins
func TestDiscovery_DuplicateIDs(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()
	pathA := writeExtension(t, dirA, "flow-designer")
	writeExtension(t, dirB, "flow-designer")

	d := NewDiscovery([]string{dirA, dirB}, nil, quietLogger())
	found, err := d.Scan()
	require.NoError(t, err)

	require.Len(t, found, 1)
	assert.Equal(t, pathA, found[0].InstallPath)
}

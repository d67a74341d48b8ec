package host

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/wovenlabs/loom/pkg/manifest"
)

// Discovered is one extension found on disk: the directory it lives
// in and its parsed manifest.
type Discovered struct {
	InstallPath string
	Manifest    *manifest.Manifest
}

// Discovery scans directories for extension manifests. Each immediate
// subdirectory holding an extension.yaml is one installed extension.
type Discovery struct {
	dirs  []string
	cache *manifest.Cache
	log   *logrus.Logger
}

// NewDiscovery creates a discovery over the given directories.
func NewDiscovery(dirs []string, cache *manifest.Cache, log *logrus.Logger) *Discovery {
	if log == nil {
		log = logrus.New()
	}
	if cache == nil {
		cache = manifest.NewCache(manifest.DefaultCacheConfig())
	}

	return &Discovery{
		dirs:  dirs,
		cache: cache,
		log:   log,
	}
}

// Scan walks every configured directory and returns the extensions
// found. Directories that do not exist are skipped; directories whose
// manifest fails to parse are logged and skipped, never aborting the
// scan.
func (d *Discovery) Scan() ([]Discovered, error) {
	var found []Discovered
	seen := make(map[string]string)

	for _, dir := range d.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				d.log.WithField("dir", dir).Debug("Extension directory does not exist, skipping")
				continue
			}
			return nil, fmt.Errorf("failed to read extension directory %s: %w", dir, err)
		}

		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}

			installPath := filepath.Join(dir, entry.Name())
			m, err := d.readManifest(installPath)
			if err != nil {
				d.log.WithError(err).WithField("path", installPath).
					Warn("Skipping extension with invalid manifest")
				continue
			}
			if m == nil {
				continue
			}

			// First directory wins when two dirs carry the same id.
			if prev, dup := seen[m.ID]; dup {
				d.log.WithFields(logrus.Fields{
					"extension": m.ID,
					"path":      installPath,
					"existing":  prev,
				}).Warn("Duplicate extension id, keeping first occurrence")
				continue
			}
			seen[m.ID] = installPath

			found = append(found, Discovered{
				InstallPath: installPath,
				Manifest:    m,
			})
		}
	}

	return found, nil
}

// readManifest parses the manifest in dir. Returns (nil, nil) when the
// directory has no manifest file at all.
func (d *Discovery) readManifest(dir string) (*manifest.Manifest, error) {
	path := filepath.Join(dir, manifest.FileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	return d.cache.Parse(data)
}

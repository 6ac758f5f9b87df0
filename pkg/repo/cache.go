package repo

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/arthur-debert/bulge/pkg/errors"
	"github.com/arthur-debert/bulge/pkg/paths"
	"github.com/arthur-debert/bulge/pkg/types"
)

// Cache stores verified repository databases and the manifest of their
// hashes.
type Cache struct {
	fs    types.FS
	paths paths.Paths
	now   func() time.Time
}

// NewCache creates a cache below the paths database directory
func NewCache(fsys types.FS, p paths.Paths) *Cache {
	return &Cache{fs: fsys, paths: p, now: time.Now}
}

// Manifest returns the recorded entries keyed by repository name. A
// missing manifest is empty.
func (c *Cache) Manifest() (map[string]types.CachedRepo, error) {
	manifest := map[string]types.CachedRepo{}
	data, err := c.fs.ReadFile(c.paths.ManifestPath())
	if err != nil {
		if os.IsNotExist(err) {
			return manifest, nil
		}
		return nil, errors.Wrap(err, errors.ErrDatabase, "failed to read cache manifest")
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabase, "corrupt cache manifest").
			WithDetail("path", c.paths.ManifestPath())
	}
	return manifest, nil
}

// Read returns the cached database for repo
func (c *Cache) Read(repo string) ([]byte, error) {
	data, err := c.fs.ReadFile(c.paths.RepoCachePath(repo))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrDatabase, "no cached database for %s, run `bulge sync`", repo).
			WithDetail("repo", repo)
	}
	return data, nil
}

// Store replaces the cached database of repo with verified data and
// records hash in the manifest. The database is in place before the
// manifest mentions it. When the manifest cannot be written the previous
// database is put back so it keeps matching its recorded hash.
func (c *Cache) Store(repo, mirror string, data []byte, hash string) error {
	manifest, err := c.Manifest()
	if err != nil {
		return err
	}
	manifest[repo] = types.CachedRepo{
		Name:     repo,
		Hash:     hash,
		Mirror:   mirror,
		SyncedAt: c.now().UTC(),
	}
	encoded, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrDatabase, "failed to encode cache manifest")
	}

	if err := c.fs.MkdirAll(c.paths.RepoCacheDir(), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "failed to create cache directory %s", c.paths.RepoCacheDir())
	}
	dbPath := c.paths.RepoCachePath(repo)
	previous, readErr := c.fs.ReadFile(dbPath)
	if err := c.atomicWrite(dbPath, data); err != nil {
		return err
	}

	if err := c.atomicWrite(c.paths.ManifestPath(), encoded); err != nil {
		if readErr == nil {
			_ = c.atomicWrite(dbPath, previous)
		} else {
			_ = c.fs.Remove(dbPath)
		}
		return err
	}
	return nil
}

func (c *Cache) atomicWrite(path string, data []byte) error {
	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".tmp")
	if err := c.fs.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to write %s", path)
	}
	if err := c.fs.Rename(tmp, path); err != nil {
		_ = c.fs.Remove(tmp)
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to replace %s", path)
	}
	return nil
}

package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/bulge/pkg/errors"
)

// Environment variable names
const (
	// EnvRoot selects the installation root when no flag is given
	EnvRoot = "BULGE_ROOT"

	// EnvHome is the standard home directory variable
	EnvHome = "HOME"
)

// Fixed layout below the installation root. These are not user
// configurable; configurable settings live in pkg/config.
const (
	DefaultRoot = "/"

	LockFile       = "var/lock/bulge.lock"
	ConfigDirName  = "etc/bulge"
	ConfigFileName = "config.json"
	MirrorsName    = "mirrors"
	DatabasesName  = "databases"
	CacheDirName   = "cache"
	ManifestName   = "cache.json"
	InstalledName  = "installed"
	ScratchDirName = "tmp/bulge"
	KeyringName    = "keyring.asc"

	// DatabaseExt is appended to a repository name for its cache file
	DatabaseExt = ".db"
)

// Paths resolves every engine location relative to the installation root.
type Paths interface {
	Root() string
	IsSystemRoot() bool
	Resolve(pkgPath string) string
	LockPath() string
	ConfigDir() string
	ConfigPath() string
	MirrorsPath() string
	KeyringPath() string
	DatabaseDir() string
	RepoCacheDir() string
	RepoCachePath(repo string) string
	ManifestPath() string
	InstalledDir() string
	InstalledPath(name string) string
	ScratchRoot() string
	ScratchDir(id string) string
}

type paths struct {
	root string
}

// New creates a Paths instance for root. An empty root falls back to
// BULGE_ROOT and then to "/".
func New(root string) (Paths, error) {
	if root == "" {
		root = os.Getenv(EnvRoot)
	}
	if root == "" {
		root = DefaultRoot
	}

	abs, err := filepath.Abs(expandHome(root))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to get absolute path for root %s", root)
	}
	return &paths{root: abs}, nil
}

func (p *paths) Root() string {
	return p.root
}

// IsSystemRoot reports whether the engine operates on the live system
func (p *paths) IsSystemRoot() bool {
	return p.root == DefaultRoot
}

// Resolve maps an absolute package path such as "/usr/bin/bar" below the
// root. The result never escapes the root.
func (p *paths) Resolve(pkgPath string) string {
	clean := filepath.Clean("/" + strings.TrimPrefix(pkgPath, "/"))
	return filepath.Join(p.root, clean)
}

func (p *paths) LockPath() string {
	return filepath.Join(p.root, LockFile)
}

func (p *paths) ConfigDir() string {
	return filepath.Join(p.root, ConfigDirName)
}

func (p *paths) ConfigPath() string {
	return filepath.Join(p.ConfigDir(), ConfigFileName)
}

func (p *paths) MirrorsPath() string {
	return filepath.Join(p.ConfigDir(), MirrorsName)
}

// KeyringPath is the default armored keyring used for signature checks
func (p *paths) KeyringPath() string {
	return filepath.Join(p.ConfigDir(), KeyringName)
}

func (p *paths) DatabaseDir() string {
	return filepath.Join(p.ConfigDir(), DatabasesName)
}

func (p *paths) RepoCacheDir() string {
	return filepath.Join(p.DatabaseDir(), CacheDirName)
}

func (p *paths) RepoCachePath(repo string) string {
	return filepath.Join(p.RepoCacheDir(), repo+DatabaseExt)
}

func (p *paths) ManifestPath() string {
	return filepath.Join(p.DatabaseDir(), ManifestName)
}

func (p *paths) InstalledDir() string {
	return filepath.Join(p.DatabaseDir(), InstalledName)
}

func (p *paths) InstalledPath(name string) string {
	return filepath.Join(p.InstalledDir(), name+".json")
}

func (p *paths) ScratchRoot() string {
	return filepath.Join(p.root, ScratchDirName)
}

func (p *paths) ScratchDir(id string) string {
	return filepath.Join(p.ScratchRoot(), id)
}

// ExpandHome expands ~ to the user's home directory
func ExpandHome(path string) string {
	return expandHome(path)
}

func expandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.Getenv(EnvHome)
		if homeDir == "" {
			return path
		}
	}

	if len(path) == 1 {
		return homeDir
	}
	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(homeDir, path[2:])
	}

	// ~other is not expanded
	return path
}

package commands

import (
	"io"

	"github.com/arthur-debert/bulge/pkg/config"
	"github.com/arthur-debert/bulge/pkg/datastore"
	"github.com/arthur-debert/bulge/pkg/executor"
	"github.com/arthur-debert/bulge/pkg/filesystem"
	"github.com/arthur-debert/bulge/pkg/lock"
	"github.com/arthur-debert/bulge/pkg/logging"
	"github.com/arthur-debert/bulge/pkg/paths"
	"github.com/arthur-debert/bulge/pkg/privilege"
	"github.com/arthur-debert/bulge/pkg/repo"
	"github.com/arthur-debert/bulge/pkg/types"
)

// Options configure an Environment
type Options struct {
	// Root is the installation root; empty uses BULGE_ROOT or "/"
	Root string
	// ConfigPath overrides the config file location
	ConfigPath string
	FS         types.FS
	Dialog     types.ConfirmationDialog
	Resolver   executor.DependencyResolver
	// Fetcher overrides the HTTP fetcher built from the config
	Fetcher repo.Fetcher
	Out     io.Writer
}

// Environment carries everything a command needs: the filesystem, the
// well-known paths below the root, the installed-package store and the
// lock. Config is loaded lazily since setup runs without one.
type Environment struct {
	FS        types.FS
	Paths     paths.Paths
	DataStore datastore.DataStore
	Lock      *lock.Manager
	Dialog    types.ConfirmationDialog
	Out       io.Writer

	configPath string
	resolver   executor.DependencyResolver
	fetcher    repo.Fetcher
	config     *config.Config
}

// NewEnvironment builds an environment for the given root
func NewEnvironment(opts Options) (*Environment, error) {
	fsys := opts.FS
	if fsys == nil {
		fsys = filesystem.NewOS()
	}
	p, err := paths.New(opts.Root)
	if err != nil {
		return nil, err
	}
	dialog := opts.Dialog
	if dialog == nil {
		dialog = types.AlwaysConfirm
	}
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = p.ConfigPath()
	}

	return &Environment{
		FS:         fsys,
		Paths:      p,
		DataStore:  datastore.New(fsys, p),
		Lock:       lock.New(fsys, p.LockPath()),
		Dialog:     dialog,
		Out:        out,
		configPath: configPath,
		resolver:   opts.Resolver,
		fetcher:    opts.Fetcher,
	}, nil
}

// Config loads the configuration once
func (e *Environment) Config() (*config.Config, error) {
	if e.config != nil {
		return e.config, nil
	}
	cfg, err := config.Load(e.FS, e.configPath)
	if err != nil {
		return nil, err
	}
	e.config = cfg
	return cfg, nil
}

// Mirrors loads the mirror templates
func (e *Environment) Mirrors() ([]string, error) {
	return config.LoadMirrors(e.FS, e.Paths.MirrorsPath())
}

// Fetcher returns the configured fetcher
func (e *Environment) Fetcher() (repo.Fetcher, error) {
	if e.fetcher != nil {
		return e.fetcher, nil
	}
	cfg, err := e.Config()
	if err != nil {
		return nil, err
	}
	e.fetcher = repo.NewHTTPFetcher(cfg.Timeout, cfg.Progressbar)
	return e.fetcher, nil
}

// Verifier returns the signature verifier, or nil when no keyring is
// configured
func (e *Environment) Verifier() (repo.SignatureVerifier, error) {
	cfg, err := e.Config()
	if err != nil {
		return nil, err
	}
	if cfg.Keyring == "" {
		return nil, nil
	}
	v, err := repo.LoadKeyring(e.FS, e.Paths.Resolve(cfg.Keyring))
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Cache returns the repository cache
func (e *Environment) Cache() *repo.Cache {
	return repo.NewCache(e.FS, e.Paths)
}

// Catalog loads the cached indexes of the active sources
func (e *Environment) Catalog() (*repo.Catalog, error) {
	cfg, err := e.Config()
	if err != nil {
		return nil, err
	}
	return repo.LoadCatalog(e.Cache(), cfg.ActiveSources()), nil
}

// Executor returns a transaction executor bound to this environment
func (e *Environment) Executor() *executor.Executor {
	return executor.New(executor.Options{
		DataStore: e.DataStore,
		Paths:     e.Paths,
		Lock:      e.Lock,
		Dialog:    e.Dialog,
		Resolver:  e.resolver,
		Output:    e.Out,
		FS:        e.FS,
	})
}

// PrepareMutation runs before every mutating command: it escalates
// privileges when operating on the live system, then offers to remove a
// stale lock.
func (e *Environment) PrepareMutation(escalator *privilege.Escalator) error {
	if escalator == nil {
		escalator = privilege.Default
	}
	if err := escalator.Ensure(e.Paths.IsSystemRoot()); err != nil {
		return err
	}
	if e.Lock.Exists() {
		logger := logging.GetLogger("commands")
		logger.Warn().Str("path", e.Lock.Path()).Msg("Lock file found")
		_, _ = io.WriteString(e.Out, "An instance of bulge is already running.\n")
	}
	return e.Lock.ResolveStale(e.Dialog)
}

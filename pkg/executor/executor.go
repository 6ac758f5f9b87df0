package executor

import (
	"fmt"
	"io"

	"github.com/arthur-debert/bulge/pkg/datastore"
	"github.com/arthur-debert/bulge/pkg/filesystem"
	"github.com/arthur-debert/bulge/pkg/lock"
	"github.com/arthur-debert/bulge/pkg/logging"
	"github.com/arthur-debert/bulge/pkg/paths"
	"github.com/arthur-debert/bulge/pkg/types"
	"github.com/rs/zerolog"
)

// Options contains configuration for the executor
type Options struct {
	DataStore datastore.DataStore
	Paths     paths.Paths
	Lock      *lock.Manager
	Dialog    types.ConfirmationDialog
	Resolver  DependencyResolver
	Logger    zerolog.Logger
	// Output receives the user-facing progress lines
	Output io.Writer
	// Filesystem operations interface for testing
	FS types.FS
}

// Executor installs and removes packages
type Executor struct {
	dataStore datastore.DataStore
	paths     paths.Paths
	lock      *lock.Manager
	dialog    types.ConfirmationDialog
	resolver  DependencyResolver
	logger    zerolog.Logger
	out       io.Writer
	fs        types.FS
}

// New creates a new executor instance
func New(opts Options) *Executor {
	logger := opts.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = logging.GetLogger("executor")
	}

	fs := opts.FS
	if fs == nil {
		fs = filesystem.NewOS()
	}

	lk := opts.Lock
	if lk == nil {
		lk = lock.New(fs, opts.Paths.LockPath())
	}

	dialog := opts.Dialog
	if dialog == nil {
		dialog = types.AlwaysConfirm
	}

	resolver := opts.Resolver
	if resolver == nil {
		resolver = NoopResolver{}
	}

	return &Executor{
		dataStore: opts.DataStore,
		paths:     opts.Paths,
		lock:      lk,
		dialog:    dialog,
		resolver:  resolver,
		logger:    logger,
		out:       opts.Output,
		fs:        fs,
	}
}

func (e *Executor) printf(format string, args ...interface{}) {
	if e.out != nil {
		_, _ = fmt.Fprintf(e.out, format, args...)
	}
}

// Package lock implements the host-wide transaction lock. The lock is a
// zero-byte marker file; its existence means a mutating operation is in
// progress. It is not reentrant and serializes every mutating command.
package lock

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/arthur-debert/bulge/pkg/errors"
	"github.com/arthur-debert/bulge/pkg/logging"
	"github.com/arthur-debert/bulge/pkg/types"
	"github.com/rs/zerolog"
)

// StalePrompt is shown when a lock file is found before a mutating command.
const StalePrompt = "Delete lock file? (Only do this when the other process is frozen)"

// Manager guards a single lock file path.
type Manager struct {
	fs     types.FS
	path   string
	logger zerolog.Logger
}

// New creates a Manager for the lock file at path
func New(fsys types.FS, path string) *Manager {
	return &Manager{
		fs:     fsys,
		path:   path,
		logger: logging.GetLogger("lock"),
	}
}

// Path returns the lock file location
func (m *Manager) Path() string {
	return m.path
}

// Exists reports whether the lock file is present
func (m *Manager) Exists() bool {
	_, err := m.fs.Lstat(m.path)
	return err == nil
}

// Acquire creates the lock file. It fails with LOCK_HELD if the file
// already exists and with LOCK_IO for any other filesystem error.
func (m *Manager) Acquire() error {
	if err := m.fs.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrLockIO, "failed to create lock directory for %s", m.path)
	}

	f, err := m.fs.OpenFile(m.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if stderrors.Is(err, fs.ErrExist) {
			return errors.Newf(errors.ErrLockHeld, "lock file %s exists, is another bulge process running?", m.path).
				WithDetail("path", m.path)
		}
		return errors.Wrapf(err, errors.ErrLockIO, "failed to create lock file %s", m.path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, errors.ErrLockIO, "failed to close lock file %s", m.path)
	}

	m.logger.Debug().Str("path", m.path).Msg("Lock acquired")
	return nil
}

// Release removes the lock file. Removing an absent lock is an error.
func (m *Manager) Release() error {
	if err := m.fs.Remove(m.path); err != nil {
		return errors.Wrapf(err, errors.ErrLockIO, "failed to remove lock file %s", m.path)
	}
	m.logger.Debug().Str("path", m.path).Msg("Lock released")
	return nil
}

// With runs fn while holding the lock. The lock is released on every exit
// path, including a panic in fn. A release failure is reported only when
// fn itself succeeded.
func (m *Manager) With(fn func() error) (err error) {
	if err := m.Acquire(); err != nil {
		return err
	}
	defer func() {
		if relErr := m.Release(); relErr != nil {
			m.logger.Error().Err(relErr).Msg("Failed to release lock")
			if err == nil {
				err = relErr
			}
		}
	}()
	return fn()
}

// ResolveStale handles a lock left behind by another process. If no lock
// exists it returns immediately. Otherwise the user is asked whether to
// delete it; declining returns USER_DECLINED.
func (m *Manager) ResolveStale(dialog types.ConfirmationDialog) error {
	if !m.Exists() {
		return nil
	}

	m.logger.Warn().Str("path", m.path).Msg("Lock file exists")
	ok, err := dialog.Confirm(types.ConfirmationRequest{
		ID:          "lock:stale",
		Operation:   "lock",
		Title:       StalePrompt,
		Description: "A lock file was found at " + m.path + ". Another bulge process may be running.",
		Items:       []string{m.path},
		Default:     false,
	})
	if err != nil {
		return err
	}
	if !ok {
		return errors.Declined("lock removal")
	}

	return m.Release()
}

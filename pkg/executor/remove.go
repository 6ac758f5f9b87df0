package executor

import (
	"context"
	stderrors "errors"
	"io/fs"
	"syscall"

	"github.com/arthur-debert/bulge/pkg/errors"
	"github.com/arthur-debert/bulge/pkg/logging"
)

// Remove deletes every file owned by name that still exists, then its
// record. The record is kept if any deletion fails.
func (e *Executor) Remove(ctx context.Context, name string) error {
	return e.lock.With(func() error {
		return e.remove(ctx, name)
	})
}

func (e *Executor) remove(ctx context.Context, name string) error {
	done := logging.LogOperationStart(e.logger, "remove")
	defer done()

	record, err := e.dataStore.Get(name)
	if err != nil {
		return err
	}

	logger := logging.ForPackage(e.logger, name, record.Version)
	removed := 0
	for _, f := range record.InstalledFiles {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := e.fs.Lstat(e.paths.Resolve(f)); err != nil {
			if !missing(err) {
				logger.Error().Err(err).Str("path", f).Msg("Remove aborted")
				return errors.Wrapf(err, errors.ErrFileRemove, "failed to inspect %s", f).
					WithDetail("path", f)
			}
			logger.Debug().Str("path", f).Msg("Already gone, skipping")
			continue
		}
		if err := e.removeFile(f); err != nil {
			logger.Error().Err(err).Str("path", f).Msg("Remove aborted")
			return err
		}
		removed++
	}

	if err := e.dataStore.Delete(name); err != nil {
		return err
	}

	e.printf("Removed %s v%s.\n", name, record.Version)
	logger.Info().Int("removed", removed).Int("owned", len(record.InstalledFiles)).Msg("Package removed")
	return nil
}

// missing reports whether err means nothing exists at the path
func missing(err error) bool {
	return stderrors.Is(err, fs.ErrNotExist) || stderrors.Is(err, syscall.ENOTDIR)
}

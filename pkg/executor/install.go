package executor

import (
	"bytes"
	"context"
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/arthur-debert/bulge/pkg/archive"
	"github.com/arthur-debert/bulge/pkg/conflict"
	"github.com/arthur-debert/bulge/pkg/errors"
	"github.com/arthur-debert/bulge/pkg/logging"
	"github.com/arthur-debert/bulge/pkg/types"
	"github.com/arthur-debert/bulge/pkg/versionguard"
	"github.com/google/uuid"
)

// InstallFile installs a package archive read from path as a local package
func (e *Executor) InstallFile(ctx context.Context, path string) (*types.InstalledPackage, error) {
	data, err := e.fs.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to read package %s", path).
			WithDetail("path", path)
	}
	return e.Install(ctx, data, types.LocalSource)
}

// Install runs the install transaction for a package archive obtained from
// source. The lock is held for the whole transaction.
func (e *Executor) Install(ctx context.Context, data []byte, source types.Source) (*types.InstalledPackage, error) {
	var installed *types.InstalledPackage
	err := e.lock.With(func() error {
		var err error
		installed, err = e.install(ctx, data, source)
		return err
	})
	return installed, err
}

func (e *Executor) install(ctx context.Context, data []byte, source types.Source) (*types.InstalledPackage, error) {
	done := logging.LogOperationStart(e.logger, "install")
	defer done()

	ok, err := archive.IsValidPackage(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Newf(errors.ErrPackageInvalid, "archive has no %s entry, not a package", archive.DescriptorName)
	}

	scratch := e.paths.ScratchDir(uuid.NewString())
	cleaned := false
	defer func() {
		if cleaned {
			return
		}
		if err := e.fs.RemoveAll(scratch); err != nil {
			e.logger.Warn().Err(err).Str("scratch", scratch).Msg("Failed to remove scratch directory")
		}
	}()

	if err := archive.Unpack(e.fs, bytes.NewReader(data), scratch); err != nil {
		return nil, err
	}

	raw, err := e.fs.ReadFile(filepath.Join(scratch, archive.DescriptorName))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrPackageInvalid, "failed to read package descriptor")
	}
	desc, err := archive.DecodeDescriptor(raw)
	if err != nil {
		return nil, err
	}

	logger := logging.ForPackage(e.logger, desc.Name, desc.Version).With().
		Str("source", source.Name).
		Logger()
	logger.Info().Str("scratch", scratch).Msg("Package unpacked")

	if err := e.checkDependencies(ctx, desc); err != nil {
		return nil, err
	}

	e.printf("\nInstalling package %s v%s from %s.\n", desc.Name, desc.Version, source.Name)
	if err := e.confirm(types.ConfirmationRequest{
		ID:          "install:" + desc.Name,
		Package:     desc.Name,
		Operation:   "install",
		Title:       "Continue?",
		Description: "Install " + desc.Name + " v" + desc.Version + " from " + source.Name,
	}, "install"); err != nil {
		return nil, err
	}

	prior, err := e.priorRecord(desc.Name)
	if err != nil {
		return nil, err
	}
	if prior != nil {
		if versionguard.IsDowngradeEpoch(desc.Epoch, desc.Version, prior.Epoch, prior.Version) {
			e.printf("This will result in a downgrade as %s v%s is already installed!\n", desc.Name, prior.Version)
			if err := e.confirm(types.ConfirmationRequest{
				ID:          "install:downgrade:" + desc.Name,
				Package:     desc.Name,
				Operation:   "install",
				Title:       "Continue?",
				Description: "Downgrade " + desc.Name + " from v" + prior.Version + " to v" + desc.Version,
			}, "install"); err != nil {
				return nil, err
			}
		}
		e.printf("Warning: %s is already installed, reinstalling...\n", desc.Name)
	}

	payloadPath := filepath.Join(scratch, archive.PayloadName)
	files, err := e.listPayload(payloadPath)
	if err != nil {
		return nil, err
	}

	e.printf("\nLooking for conflicting files...\n")
	report := conflict.DetectFor(e.fs, e.paths.Root(), files, prior)
	if report.IsConflict {
		if err := e.removeConflicts(desc.Name, report); err != nil {
			return nil, err
		}
	}

	if err := e.dataStore.Disown(files, desc.Name); err != nil {
		return nil, err
	}

	record := types.InstalledPackage{
		Name:           desc.Name,
		Version:        desc.Version,
		Epoch:          desc.Epoch,
		Groups:         desc.Groups,
		InstalledFiles: files,
		Provides:       desc.ProvidesList(),
		Conflicts:      desc.ConflictsList(),
		Source:         source.Name,
	}
	if err := e.dataStore.Put(record); err != nil {
		return nil, err
	}
	logger.Debug().Int("files", len(files)).Msg("Pending record written")

	e.printf("Unpacking files...\n")
	if err := e.extract(payloadPath); err != nil {
		logger.Error().Err(err).Msg("Extraction failed, record left pending")
		return nil, err
	}

	if err := e.dataStore.Commit(desc.Name); err != nil {
		return nil, err
	}

	cleaned = true
	if err := e.fs.RemoveAll(scratch); err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileRemove, "failed to delete scratch directory %s", scratch).
			WithDetail("path", scratch)
	}

	e.printf("\nInstalled %s v%s!\n", desc.Name, desc.Version)
	logger.Info().Int("files", len(files)).Msg("Package installed")

	record.State = types.RecordCommitted
	record.InstalledAt = time.Now()
	return &record, nil
}

func (e *Executor) checkDependencies(ctx context.Context, desc types.Descriptor) error {
	e.printf("Looking for conflicting packages...\n")
	e.printf("Looking for dependencies...\n")

	installed, err := e.dataStore.List()
	if err != nil {
		return err
	}
	if err := e.resolver.Check(ctx, desc, installed); err != nil {
		return vetoError(desc, err)
	}
	return nil
}

// priorRecord returns the installed record for name, or nil when the
// package is not installed
func (e *Executor) priorRecord(name string) (*types.InstalledPackage, error) {
	prior, err := e.dataStore.Get(name)
	if errors.IsErrorCode(err, errors.ErrPackageNotInstalled) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if prior.Pending() {
		e.logger.Warn().Str("package", name).Msg("Previous install never completed")
	}
	return prior, nil
}

func (e *Executor) listPayload(payloadPath string) ([]string, error) {
	f, err := e.fs.Open(payloadPath)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrPackageInvalid, "package has no %s entry", archive.PayloadName)
	}
	defer func() { _ = f.Close() }()
	return archive.ListPayload(f)
}

// removeConflicts asks before deleting files that the package does not own
// and deletes them one by one. Any deletion failure aborts the install.
func (e *Executor) removeConflicts(name string, report types.ConflictReport) error {
	e.printf("Package files already exist on the file system!\n")

	if err := e.confirm(types.ConfirmationRequest{
		ID:          "install:conflicts:" + name,
		Package:     name,
		Operation:   "install",
		Title:       "Continue? THIS WILL DELETE FILES!",
		Description: strings.Join(report.Files, "\n"),
		Items:       report.Files,
	}, "install"); err != nil {
		return err
	}

	e.printf("Continuing install!\n")
	for _, f := range report.Files {
		e.printf("Removing %s\n", f)
		if err := e.removeFile(f); err != nil {
			return err
		}
	}
	return nil
}

// removeFile deletes one package path below the root. A file that is already
// gone is not an error.
func (e *Executor) removeFile(pkgPath string) error {
	target := e.paths.Resolve(pkgPath)
	if err := e.fs.Remove(target); err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return errors.Wrapf(err, errors.ErrFileRemove, "failed to delete %s", pkgPath).
			WithDetail("path", pkgPath)
	}
	e.logger.Debug().Str("path", pkgPath).Msg("Removed file")
	return nil
}

func (e *Executor) extract(payloadPath string) error {
	f, err := e.fs.Open(payloadPath)
	if err != nil {
		return errors.Wrapf(err, errors.ErrExtract, "failed to open %s", archive.PayloadName)
	}
	defer func() { _ = f.Close() }()

	return archive.ExtractPayload(e.fs, f, e.paths.Root(), archive.Options{
		PreserveXattrs: true,
		PreserveOwner:  os.Geteuid() == 0,
	})
}

// confirm asks the dialog and turns a negative answer into USER_DECLINED
func (e *Executor) confirm(req types.ConfirmationRequest, what string) error {
	ok, err := e.dialog.Confirm(req)
	if err != nil {
		return err
	}
	if !ok {
		e.logger.Info().Str("confirmation", req.ID).Msg("User declined")
		return errors.Declined(what)
	}
	return nil
}

// Package conflict compares the files a package would install against the
// live filesystem and the manifest of a previous install of the same
// package.
package conflict

import (
	stderrors "errors"
	"io/fs"
	"path/filepath"
	"syscall"

	"github.com/arthur-debert/bulge/pkg/logging"
	"github.com/arthur-debert/bulge/pkg/types"
)

// Detect returns every candidate path that already exists below root and
// is not owned by a prior install of the same package. Candidates are
// absolute package paths ("/usr/bin/foo"). The report keeps candidate
// order.
func Detect(fsys types.FS, root string, candidates []string, hasPrior bool, owned []string) types.ConflictReport {
	logger := logging.GetLogger("conflict")

	ownedSet := make(map[string]struct{}, len(owned))
	if hasPrior {
		for _, f := range owned {
			ownedSet[f] = struct{}{}
		}
	}

	report := types.ConflictReport{}
	for _, candidate := range candidates {
		if _, err := fsys.Lstat(filepath.Join(root, candidate)); err != nil {
			if stderrors.Is(err, fs.ErrNotExist) || stderrors.Is(err, syscall.ENOTDIR) {
				continue
			}
			// unreadable paths may exist, so they are reported
			logger.Warn().Err(err).Str("path", candidate).Msg("Cannot inspect path, reporting it as a conflict")
		}
		if hasPrior {
			if _, ok := ownedSet[candidate]; ok {
				continue
			}
		}
		report.Files = append(report.Files, candidate)
	}
	report.IsConflict = len(report.Files) > 0

	logger.Debug().
		Int("candidates", len(candidates)).
		Bool("prior_install", hasPrior).
		Int("conflicts", len(report.Files)).
		Msg("Conflict check complete")

	return report
}

// DetectFor runs Detect against an optional previous install record
func DetectFor(fsys types.FS, root string, candidates []string, prior *types.InstalledPackage) types.ConflictReport {
	if prior == nil {
		return Detect(fsys, root, candidates, false, nil)
	}
	return Detect(fsys, root, candidates, true, prior.InstalledFiles)
}

package commands

import (
	"context"
	"path/filepath"

	"github.com/arthur-debert/bulge/pkg/errors"
	"github.com/arthur-debert/bulge/pkg/logging"
	"github.com/arthur-debert/bulge/pkg/repo"
	"github.com/arthur-debert/bulge/pkg/types"
)

// Install installs each target in order. A target naming an existing file
// is installed as a local archive; anything else is looked up in the
// cached indexes and downloaded. The first failure stops the command.
func Install(ctx context.Context, env *Environment, targets []string) ([]*types.InstalledPackage, error) {
	log := logging.GetLogger("commands.install")
	log.Debug().Strs("targets", targets).Msg("Executing command")

	if len(targets) == 0 {
		return nil, errors.New(errors.ErrInvalidInput, "no packages specified")
	}

	exec := env.Executor()
	var installed []*types.InstalledPackage
	for _, target := range targets {
		var (
			rec *types.InstalledPackage
			err error
		)
		if file, ok := env.localArchive(target); ok {
			log.Info().Str("file", file).Msg("Installing local archive")
			rec, err = exec.InstallFile(ctx, file)
		} else {
			var data []byte
			var match repo.Match
			data, match, err = download(ctx, env, target)
			if err == nil {
				rec, err = exec.Install(ctx, data, match.Source)
			}
		}
		if err != nil {
			return installed, err
		}
		installed = append(installed, rec)
	}

	log.Info().Int("installed", len(installed)).Msg("Command finished")
	return installed, nil
}

// localArchive reports whether target is an existing regular file
func (e *Environment) localArchive(target string) (string, bool) {
	path, err := filepath.Abs(target)
	if err != nil {
		return "", false
	}
	info, err := e.FS.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}
	return path, true
}

func download(ctx context.Context, env *Environment, name string) ([]byte, repo.Match, error) {
	catalog, err := env.Catalog()
	if err != nil {
		return nil, repo.Match{}, err
	}
	match, ok := catalog.Lookup(name)
	if !ok {
		return nil, repo.Match{}, errors.Newf(errors.ErrPackageNotFound, "package %s was not found in any repository, try `bulge sync`", name).
			WithDetail("package", name)
	}
	templates, err := env.Mirrors()
	if err != nil {
		return nil, match, err
	}
	fetcher, err := env.Fetcher()
	if err != nil {
		return nil, match, err
	}
	data, err := repo.NewDownloader(fetcher, env.Out).Download(ctx, match, templates)
	return data, match, err
}

// Remove removes each named package in order
func Remove(ctx context.Context, env *Environment, names []string) error {
	log := logging.GetLogger("commands.remove")
	log.Debug().Strs("packages", names).Msg("Executing command")

	if len(names) == 0 {
		return errors.New(errors.ErrInvalidInput, "no packages specified")
	}

	exec := env.Executor()
	for _, name := range names {
		if err := exec.Remove(ctx, name); err != nil {
			return err
		}
	}

	log.Info().Int("removed", len(names)).Msg("Command finished")
	return nil
}

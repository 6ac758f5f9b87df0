package commands

import (
	"path/filepath"

	"github.com/arthur-debert/bulge/pkg/config"
	"github.com/arthur-debert/bulge/pkg/errors"
	"github.com/arthur-debert/bulge/pkg/logging"
)

// SetupResult lists what setup created
type SetupResult struct {
	Directories []string
	Files       []string
}

// Setup creates the directory layout, a default config and mirror list and
// the empty installed-package store. Existing files are never overwritten.
func Setup(env *Environment) (*SetupResult, error) {
	log := logging.GetLogger("commands.setup")
	result := &SetupResult{}

	err := env.Lock.With(func() error {
		dirs := []string{
			env.Paths.ConfigDir(),
			env.Paths.DatabaseDir(),
			env.Paths.RepoCacheDir(),
			env.Paths.InstalledDir(),
			env.Paths.ScratchRoot(),
		}
		for _, dir := range dirs {
			if _, err := env.FS.Stat(dir); err == nil {
				continue
			}
			if err := env.FS.MkdirAll(dir, 0755); err != nil {
				return errors.Wrapf(err, errors.ErrDirCreate, "failed to create %s", dir)
			}
			result.Directories = append(result.Directories, dir)
		}

		files := []struct {
			path    string
			content []byte
		}{
			{env.configPath, config.DefaultConfigContent()},
			{env.Paths.MirrorsPath(), config.DefaultMirrorsContent()},
		}
		for _, f := range files {
			if _, err := env.FS.Stat(f.path); err == nil {
				log.Debug().Str("path", f.path).Msg("Keeping existing file")
				continue
			}
			if err := env.FS.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
				return errors.Wrapf(err, errors.ErrDirCreate, "failed to create %s", filepath.Dir(f.path))
			}
			if err := env.FS.WriteFile(f.path, f.content, 0644); err != nil {
				return errors.Wrapf(err, errors.ErrFileWrite, "failed to write %s", f.path)
			}
			result.Files = append(result.Files, f.path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Int("directories", len(result.Directories)).Int("files", len(result.Files)).Msg("Command finished")
	return result, nil
}

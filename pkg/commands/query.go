package commands

import (
	"github.com/arthur-debert/bulge/pkg/errors"
	"github.com/arthur-debert/bulge/pkg/logging"
	"github.com/arthur-debert/bulge/pkg/repo"
	"github.com/arthur-debert/bulge/pkg/types"
)

// InfoResult describes one package from the database and the indexes
type InfoResult struct {
	Installed *types.InstalledPackage
	Available *repo.Match
}

// Info looks a package up in the installed-package store and in the cached
// indexes. Missing config only hides the indexed information.
func Info(env *Environment, name string) (*InfoResult, error) {
	log := logging.GetLogger("commands.info")

	result := &InfoResult{}
	rec, err := env.DataStore.Get(name)
	switch {
	case err == nil:
		result.Installed = rec
	case !errors.IsErrorCode(err, errors.ErrPackageNotInstalled):
		return nil, err
	}

	if catalog, err := env.Catalog(); err == nil {
		if match, ok := catalog.Lookup(name); ok {
			result.Available = &match
		}
	} else {
		log.Debug().Err(err).Msg("Indexes unavailable")
	}

	if result.Installed == nil && result.Available == nil {
		return nil, errors.Newf(errors.ErrPackageNotFound, "package %s was not found", name).
			WithDetail("package", name)
	}
	return result, nil
}

// SearchResult is one indexed package matching a search term
type SearchResult struct {
	repo.Match
	// InstalledVersion is empty when the package is not installed
	InstalledVersion string
}

// Search returns the indexed packages matching any of terms, once each
func Search(env *Environment, terms []string) ([]SearchResult, error) {
	log := logging.GetLogger("commands.search")

	if len(terms) == 0 {
		return nil, errors.New(errors.ErrInvalidInput, "no search terms specified")
	}
	catalog, err := env.Catalog()
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var results []SearchResult
	for _, term := range terms {
		for _, m := range catalog.Search(term) {
			key := m.Source.Name + "/" + m.Entry.Name
			if seen[key] {
				continue
			}
			seen[key] = true
			r := SearchResult{Match: m}
			if rec, err := env.DataStore.Get(m.Entry.Name); err == nil {
				r.InstalledVersion = rec.Version
			}
			results = append(results, r)
		}
	}

	log.Info().Strs("terms", terms).Int("results", len(results)).Msg("Command finished")
	return results, nil
}

// List returns every installed package
func List(env *Environment) ([]types.InstalledPackage, error) {
	return env.DataStore.List()
}

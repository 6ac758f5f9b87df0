package commands

import (
	"context"

	"github.com/arthur-debert/bulge/pkg/logging"
	"github.com/arthur-debert/bulge/pkg/repo"
	"github.com/arthur-debert/bulge/pkg/versionguard"
)

// Sync refreshes the cached database of every active source
func Sync(ctx context.Context, env *Environment) (*repo.Report, error) {
	log := logging.GetLogger("commands.sync")
	log.Debug().Msg("Executing command")

	cfg, err := env.Config()
	if err != nil {
		return nil, err
	}
	templates, err := env.Mirrors()
	if err != nil {
		return nil, err
	}
	fetcher, err := env.Fetcher()
	if err != nil {
		return nil, err
	}
	verifier, err := env.Verifier()
	if err != nil {
		return nil, err
	}

	syncer := repo.NewSyncer(env.Cache(), env.Lock, fetcher, verifier, env.Out)
	report, err := syncer.Sync(ctx, cfg.ActiveSources(), templates)
	if err != nil {
		return report, err
	}

	log.Info().
		Int("sources", len(report.Sources)).
		Strs("failed", report.Failed()).
		Msg("Command finished")
	return report, nil
}

// UpgradeCandidate is an installed package for which a newer version is
// available
type UpgradeCandidate struct {
	Name             string
	InstalledVersion string
	InstalledEpoch   int
	Available        repo.Match
}

// UpgradeResult is the outcome of the upgrade command
type UpgradeResult struct {
	Report   *repo.Report
	Upgrades []UpgradeCandidate
}

// Upgrade synchronizes the databases and reports installed packages whose
// indexed version is newer, comparing epochs first.
func Upgrade(ctx context.Context, env *Environment) (*UpgradeResult, error) {
	log := logging.GetLogger("commands.upgrade")

	report, err := Sync(ctx, env)
	if err != nil {
		return nil, err
	}
	upgrades, err := Upgrades(env)
	if err != nil {
		return nil, err
	}

	log.Info().Int("upgrades", len(upgrades)).Msg("Command finished")
	return &UpgradeResult{Report: report, Upgrades: upgrades}, nil
}

// Upgrades compares the installed packages against the cached indexes
func Upgrades(env *Environment) ([]UpgradeCandidate, error) {
	catalog, err := env.Catalog()
	if err != nil {
		return nil, err
	}
	installed, err := env.DataStore.List()
	if err != nil {
		return nil, err
	}

	var upgrades []UpgradeCandidate
	for _, rec := range installed {
		match, ok := catalog.Lookup(rec.Name)
		if !ok {
			continue
		}
		if versionguard.CompareEpoch(match.Entry.Epoch, match.Entry.Version, rec.Epoch, rec.Version) > 0 {
			upgrades = append(upgrades, UpgradeCandidate{
				Name:             rec.Name,
				InstalledVersion: rec.Version,
				InstalledEpoch:   rec.Epoch,
				Available:        match,
			})
		}
	}
	return upgrades, nil
}

package config

import (
	"time"

	"github.com/arthur-debert/bulge/pkg/types"
)

// Repo is one entry of the repos list
type Repo struct {
	Name   string  `koanf:"name"`
	Active bool    `koanf:"active"`
	URL    *string `koanf:"url"`
}

// Config is the decoded configuration document
type Config struct {
	Architecture string        `koanf:"architecture"`
	Colour       bool          `koanf:"colour"`
	Progressbar  bool          `koanf:"progressbar"`
	Repos        []Repo        `koanf:"repos"`
	Keyring      string        `koanf:"keyring"`
	Timeout      time.Duration `koanf:"timeout"`
}

// ActiveSources returns the sources whose active flag is set, in file order.
func (c *Config) ActiveSources() []types.Source {
	var sources []types.Source
	for _, r := range c.Repos {
		if !r.Active {
			continue
		}
		src := types.Source{Name: r.Name}
		if r.URL != nil {
			u := *r.URL
			src.URL = &u
		}
		sources = append(sources, src)
	}
	return sources
}

// Repo returns the configured entry for name regardless of its active flag
func (c *Config) Repo(name string) (Repo, bool) {
	for _, r := range c.Repos {
		if r.Name == name {
			return r, true
		}
	}
	return Repo{}, false
}

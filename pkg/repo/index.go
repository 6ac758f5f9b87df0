package repo

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/arthur-debert/bulge/pkg/errors"
	"github.com/arthur-debert/bulge/pkg/logging"
	"github.com/arthur-debert/bulge/pkg/types"
)

// IndexEntry describes one package available from a repository
type IndexEntry struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Epoch       int    `json:"epoch"`
	Description string `json:"description"`
	Filename    string `json:"filename"`
	SHA512      string `json:"sha512"`
}

// Index is the decoded content of a repository database
type Index struct {
	Packages []IndexEntry `json:"packages"`
}

// ParseIndex decodes a repository database
func ParseIndex(data []byte) (*Index, error) {
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, errors.Wrap(err, errors.ErrIndex, "malformed repository database")
	}
	for i, p := range idx.Packages {
		if p.Name == "" || p.Version == "" || p.Filename == "" {
			return nil, errors.Newf(errors.ErrIndex, "repository database entry %d is incomplete", i)
		}
		if strings.Contains(p.Filename, "/") || strings.Contains(p.Filename, "..") {
			return nil, errors.Newf(errors.ErrIndex, "invalid filename %q for %s", p.Filename, p.Name)
		}
	}
	return &idx, nil
}

// Find returns the entry named name
func (i *Index) Find(name string) (IndexEntry, bool) {
	for _, p := range i.Packages {
		if p.Name == name {
			return p, true
		}
	}
	return IndexEntry{}, false
}

// RepoIndex pairs a source with its cached index
type RepoIndex struct {
	Source types.Source
	Index  *Index
}

// Catalog is the set of cached indexes of the active sources, in
// configuration order
type Catalog struct {
	Repos []RepoIndex
}

// Match is a catalog lookup result
type Match struct {
	Source types.Source
	Entry  IndexEntry
}

// LoadCatalog reads the cached index of every source. Sources without a
// cache or with an unparseable one are logged and skipped.
func LoadCatalog(cache *Cache, sources []types.Source) *Catalog {
	logger := logging.GetLogger("index")
	catalog := &Catalog{}
	for _, source := range sources {
		data, err := cache.Read(source.Name)
		if err != nil {
			logger.Warn().Str("source", source.Name).Err(err).Msg("No cached database")
			continue
		}
		idx, err := ParseIndex(data)
		if err != nil {
			logger.Warn().Str("source", source.Name).Err(err).Msg("Skipping unreadable database")
			continue
		}
		catalog.Repos = append(catalog.Repos, RepoIndex{Source: source, Index: idx})
	}
	return catalog
}

// Lookup returns the first source, in configuration order, providing name
func (c *Catalog) Lookup(name string) (Match, bool) {
	for _, r := range c.Repos {
		if entry, ok := r.Index.Find(name); ok {
			return Match{Source: r.Source, Entry: entry}, true
		}
	}
	return Match{}, false
}

// Search returns every entry whose name or description contains term,
// case-insensitively, sorted by name then source order.
func (c *Catalog) Search(term string) []Match {
	term = strings.ToLower(term)
	var matches []Match
	for _, r := range c.Repos {
		for _, p := range r.Index.Packages {
			if strings.Contains(strings.ToLower(p.Name), term) ||
				strings.Contains(strings.ToLower(p.Description), term) {
				matches = append(matches, Match{Source: r.Source, Entry: p})
			}
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Entry.Name < matches[j].Entry.Name })
	return matches
}

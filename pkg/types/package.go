package types

import (
	"strings"
	"time"
)

// Source is one configured repository. URL, when set, replaces mirror
// template substitution with a fixed base URL.
type Source struct {
	Name string
	URL  *string
}

// HasFixedURL reports whether the source is pinned to a base URL
func (s Source) HasFixedURL() bool {
	return s.URL != nil && strings.TrimSpace(*s.URL) != ""
}

// LocalSource is recorded for packages installed from a file on disk.
var LocalSource = Source{Name: "local"}

// Descriptor is the decoded PKG entry of a package archive.
type Descriptor struct {
	Name      string   `json:"name"`
	Version   string   `json:"version"`
	Epoch     int      `json:"epoch"`
	Groups    []string `json:"groups"`
	Provides  string   `json:"provides"`
	Conflicts string   `json:"conflicts"`
}

// ProvidesList splits the comma-joined provides field
func (d Descriptor) ProvidesList() []string {
	return SplitList(d.Provides)
}

// ConflictsList splits the comma-joined conflicts field
func (d Descriptor) ConflictsList() []string {
	return SplitList(d.Conflicts)
}

// SplitList converts a comma-joined string to its non-empty elements.
func SplitList(joined string) []string {
	var out []string
	for _, part := range strings.Split(joined, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// JoinList is the inverse of SplitList
func JoinList(items []string) string {
	return strings.Join(items, ",")
}

// RecordState marks whether the files of an installed record are known to be
// on disk.
type RecordState string

const (
	// RecordPending is written before payload extraction starts
	RecordPending RecordState = "pending"
	// RecordCommitted is written once extraction finished
	RecordCommitted RecordState = "committed"
)

// InstalledPackage is the installed-package database record. It is the
// authority for which files a package owns.
type InstalledPackage struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	Epoch          int         `json:"epoch"`
	Groups         []string    `json:"groups"`
	InstalledFiles []string    `json:"installed_files"`
	Provides       []string    `json:"provides"`
	Conflicts      []string    `json:"conflicts"`
	Source         string      `json:"source_name"`
	State          RecordState `json:"state"`
	InstalledAt    time.Time   `json:"installed_at"`
}

// Pending reports whether extraction of this record never completed
func (p InstalledPackage) Pending() bool {
	return p.State == RecordPending
}

// Owns reports whether path is listed in the record's installed files
func (p InstalledPackage) Owns(path string) bool {
	for _, f := range p.InstalledFiles {
		if f == path {
			return true
		}
	}
	return false
}

// ConflictReport lists destination paths that already exist on disk and are
// not owned by a previous install of the same package, in candidate order.
type ConflictReport struct {
	IsConflict bool
	Files      []string
}

// CachedRepo is the last verified state of a repository's local cache.
type CachedRepo struct {
	Name     string    `json:"name"`
	Hash     string    `json:"hash"`
	Mirror   string    `json:"mirror"`
	SyncedAt time.Time `json:"synced_at"`
}

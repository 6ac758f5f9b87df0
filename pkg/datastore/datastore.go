package datastore

import "github.com/arthur-debert/bulge/pkg/types"

// DataStore manages the installed-package records.
type DataStore interface {
	// Get returns the record for name, or PACKAGE_NOT_INSTALLED.
	Get(name string) (*types.InstalledPackage, error)

	// Exists reports whether a record for name is stored.
	Exists(name string) bool

	// Put writes rec as a pending record, replacing any previous one.
	Put(rec types.InstalledPackage) error

	// Commit marks the record for name as committed.
	Commit(name string) error

	// Delete removes the record for name.
	Delete(name string) error

	// List returns every record sorted by name.
	List() ([]types.InstalledPackage, error)

	// OwnedFiles returns the installed files of name.
	OwnedFiles(name string) ([]string, error)

	// OwnerOf returns the package owning path, if any.
	OwnerOf(path string) (string, bool, error)

	// Disown removes paths from every record except the one named keep.
	Disown(paths []string, keep string) error
}

package types

import (
	"io"
	"io/fs"
)

// FS is the filesystem abstraction every engine component writes through.
// Paths are absolute host paths; the alternative root is applied by callers
// through pkg/paths, never by the FS itself.
type FS interface {
	// File operations
	Stat(name string) (fs.FileInfo, error)
	Lstat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error
	Open(name string) (io.ReadCloser, error)
	OpenFile(name string, flag int, perm fs.FileMode) (io.WriteCloser, error)
	Chmod(name string, mode fs.FileMode) error
	Rename(oldpath, newpath string) error

	// Directory operations
	MkdirAll(path string, perm fs.FileMode) error
	ReadDir(name string) ([]fs.DirEntry, error)

	// Link operations
	Symlink(oldname, newname string) error
	Readlink(name string) (string, error)
	Link(oldname, newname string) error

	// Removal
	Remove(name string) error
	RemoveAll(path string) error
}

// XattrFS is implemented by filesystems that can store extended attributes.
type XattrFS interface {
	SetXattr(path, name string, value []byte) error
}

// OwnerFS is implemented by filesystems that can change file ownership.
type OwnerFS interface {
	Lchown(name string, uid, gid int) error
}

package filesystem

import (
	"io"
	"io/fs"
	"os"
	"sync"

	"github.com/arthur-debert/bulge/pkg/types"
	"github.com/spf13/afero"
)

// aferoFS implements types.FS using afero
type aferoFS struct {
	fs afero.Fs

	mu     sync.Mutex
	xattrs map[string]map[string][]byte
}

// NewAferoFS creates a new afero filesystem implementation
func NewAferoFS(fs afero.Fs) types.FS {
	return &aferoFS{fs: fs, xattrs: make(map[string]map[string][]byte)}
}

// NewMemoryFS returns an in-memory filesystem, mostly for tests
func NewMemoryFS() types.FS {
	return NewAferoFS(afero.NewMemMapFs())
}

func (a *aferoFS) Stat(name string) (fs.FileInfo, error) {
	return a.fs.Stat(name)
}

func (a *aferoFS) Lstat(name string) (fs.FileInfo, error) {
	if l, ok := a.fs.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(name)
		return info, err
	}
	return a.fs.Stat(name)
}

func (a *aferoFS) ReadFile(name string) ([]byte, error) {
	info, err := a.fs.Stat(name)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrInvalid}
	}
	return afero.ReadFile(a.fs, name)
}

func (a *aferoFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	return afero.WriteFile(a.fs, name, data, perm)
}

func (a *aferoFS) Open(name string) (io.ReadCloser, error) {
	return a.fs.Open(name)
}

func (a *aferoFS) OpenFile(name string, flag int, perm fs.FileMode) (io.WriteCloser, error) {
	return a.fs.OpenFile(name, flag, perm)
}

func (a *aferoFS) Chmod(name string, mode fs.FileMode) error {
	return a.fs.Chmod(name, mode)
}

func (a *aferoFS) Rename(oldpath, newpath string) error {
	return a.fs.Rename(oldpath, newpath)
}

func (a *aferoFS) MkdirAll(path string, perm fs.FileMode) error {
	return a.fs.MkdirAll(path, perm)
}

func (a *aferoFS) ReadDir(name string) ([]fs.DirEntry, error) {
	entries, err := afero.ReadDir(a.fs, name)
	if err != nil {
		return nil, err
	}
	dirEntries := make([]fs.DirEntry, len(entries))
	for i, entry := range entries {
		dirEntries[i] = fs.FileInfoToDirEntry(entry)
	}
	return dirEntries, nil
}

func (a *aferoFS) Symlink(oldname, newname string) error {
	if l, ok := a.fs.(afero.Linker); ok {
		return l.SymlinkIfPossible(oldname, newname)
	}
	// MemMapFs has no symlinks: store the target as file content.
	return afero.WriteFile(a.fs, newname, []byte(oldname), 0777|os.ModeSymlink)
}

func (a *aferoFS) Readlink(name string) (string, error) {
	if l, ok := a.fs.(afero.LinkReader); ok {
		return l.ReadlinkIfPossible(name)
	}
	content, err := afero.ReadFile(a.fs, name)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// Link copies the file when the backing filesystem has no hard links.
func (a *aferoFS) Link(oldname, newname string) error {
	if _, ok := a.fs.(*afero.OsFs); ok {
		return os.Link(oldname, newname)
	}
	info, err := a.fs.Stat(oldname)
	if err != nil {
		return &os.LinkError{Op: "link", Old: oldname, New: newname, Err: err}
	}
	if _, err := a.fs.Stat(newname); err == nil {
		return &os.LinkError{Op: "link", Old: oldname, New: newname, Err: fs.ErrExist}
	}
	data, err := afero.ReadFile(a.fs, oldname)
	if err != nil {
		return err
	}
	return afero.WriteFile(a.fs, newname, data, info.Mode().Perm())
}

func (a *aferoFS) Remove(name string) error {
	a.mu.Lock()
	delete(a.xattrs, name)
	a.mu.Unlock()
	return a.fs.Remove(name)
}

func (a *aferoFS) RemoveAll(path string) error {
	return a.fs.RemoveAll(path)
}

// SetXattr records attributes in memory; they are visible through Xattrs.
func (a *aferoFS) SetXattr(path, name string, value []byte) error {
	if _, err := a.fs.Stat(path); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.xattrs[path] == nil {
		a.xattrs[path] = make(map[string][]byte)
	}
	a.xattrs[path][name] = append([]byte(nil), value...)
	return nil
}

// Xattrs returns the attributes recorded for path on an afero-backed FS.
func Xattrs(fsys types.FS, path string) map[string][]byte {
	a, ok := fsys.(*aferoFS)
	if !ok {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string][]byte, len(a.xattrs[path]))
	for k, v := range a.xattrs[path] {
		out[k] = v
	}
	return out
}

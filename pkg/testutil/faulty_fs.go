package testutil

import (
	"io"
	"io/fs"
	"sync"

	"github.com/arthur-debert/bulge/pkg/types"
)

// FaultyFS wraps a types.FS and fails selected operations on selected paths
type FaultyFS struct {
	types.FS

	mu     sync.Mutex
	faults map[string]error
	calls  []string
}

// NewFaultyFS wraps fsys
func NewFaultyFS(fsys types.FS) *FaultyFS {
	return &FaultyFS{FS: fsys, faults: map[string]error{}}
}

// FailOn makes op ("Remove", "OpenFile", ...) on path return err
func (f *FaultyFS) FailOn(op, path string, err error) *FaultyFS {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.faults[op+":"+path] = err
	return f
}

// Calls returns the recorded "op:path" calls
func (f *FaultyFS) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *FaultyFS) check(op, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op+":"+path)
	return f.faults[op+":"+path]
}

func (f *FaultyFS) Lstat(name string) (fs.FileInfo, error) {
	if err := f.check("Lstat", name); err != nil {
		return nil, &fs.PathError{Op: "lstat", Path: name, Err: err}
	}
	return f.FS.Lstat(name)
}

func (f *FaultyFS) Remove(name string) error {
	if err := f.check("Remove", name); err != nil {
		return &fs.PathError{Op: "remove", Path: name, Err: err}
	}
	return f.FS.Remove(name)
}

func (f *FaultyFS) RemoveAll(path string) error {
	if err := f.check("RemoveAll", path); err != nil {
		return &fs.PathError{Op: "removeall", Path: path, Err: err}
	}
	return f.FS.RemoveAll(path)
}

func (f *FaultyFS) OpenFile(name string, flag int, perm fs.FileMode) (io.WriteCloser, error) {
	if err := f.check("OpenFile", name); err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	return f.FS.OpenFile(name, flag, perm)
}

func (f *FaultyFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	if err := f.check("WriteFile", name); err != nil {
		return &fs.PathError{Op: "write", Path: name, Err: err}
	}
	return f.FS.WriteFile(name, data, perm)
}

func (f *FaultyFS) Rename(oldpath, newpath string) error {
	if err := f.check("Rename", newpath); err != nil {
		return &fs.PathError{Op: "rename", Path: newpath, Err: err}
	}
	return f.FS.Rename(oldpath, newpath)
}

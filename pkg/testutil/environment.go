// pkg/testutil/environment.go
// DEPENDENCIES: None (base test utilities)
// PURPOSE: Orchestrate sandbox roots with proper dependencies

package testutil

import (
	"path/filepath"
	"testing"

	"github.com/arthur-debert/bulge/pkg/datastore"
	"github.com/arthur-debert/bulge/pkg/filesystem"
	"github.com/arthur-debert/bulge/pkg/paths"
	"github.com/arthur-debert/bulge/pkg/types"
)

// EnvType defines the type of test environment
type EnvType int

const (
	EnvMemoryOnly EnvType = iota // Pure in-memory, no real filesystem
	EnvIsolated                  // Real filesystem in temp directory
)

// TestEnvironment provides a sandbox installation root with all dependencies
type TestEnvironment struct {
	Root string

	DataStore datastore.DataStore
	FS        types.FS
	Paths     paths.Paths

	Type EnvType

	t *testing.T
}

// NewTestEnvironment creates a new test environment
func NewTestEnvironment(t *testing.T, envType EnvType) *TestEnvironment {
	t.Helper()

	env := &TestEnvironment{t: t, Type: envType}

	switch envType {
	case EnvMemoryOnly:
		env.Root = "/sandbox"
		env.FS = filesystem.NewMemoryFS()
	case EnvIsolated:
		env.Root = filepath.Join(t.TempDir(), "root")
		env.FS = filesystem.NewOS()
	}

	if err := env.FS.MkdirAll(env.Root, 0755); err != nil {
		t.Fatalf("Failed to create root: %v", err)
	}

	p, err := paths.New(env.Root)
	if err != nil {
		t.Fatalf("Failed to create paths: %v", err)
	}
	env.Paths = p
	env.DataStore = datastore.New(env.FS, p)

	return env
}

// WithFileTree creates a file tree below the sandbox root
func (env *TestEnvironment) WithFileTree(tree FileTree) {
	env.t.Helper()
	createFileTree(env.t, env.FS, env.Root, tree)
}

// Exists reports whether a package path exists below the root
func (env *TestEnvironment) Exists(pkgPath string) bool {
	_, err := env.FS.Lstat(env.Paths.Resolve(pkgPath))
	return err == nil
}

// ReadFile reads a package path below the root, failing the test on error
func (env *TestEnvironment) ReadFile(pkgPath string) string {
	env.t.Helper()
	data, err := env.FS.ReadFile(env.Paths.Resolve(pkgPath))
	if err != nil {
		env.t.Fatalf("Failed to read %s: %v", pkgPath, err)
	}
	return string(data)
}

// FileTree represents a directory structure for testing
type FileTree map[string]interface{}

// createFileTree recursively creates a file tree
func createFileTree(t *testing.T, fs types.FS, basePath string, tree FileTree) {
	t.Helper()

	for name, content := range tree {
		fullPath := filepath.Join(basePath, name)

		switch v := content.(type) {
		case string:
			if err := fs.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
				t.Fatalf("Failed to create directory for %s: %v", fullPath, err)
			}
			if err := fs.WriteFile(fullPath, []byte(v), 0644); err != nil {
				t.Fatalf("Failed to write file %s: %v", fullPath, err)
			}
		case FileTree:
			if err := fs.MkdirAll(fullPath, 0755); err != nil {
				t.Fatalf("Failed to create directory %s: %v", fullPath, err)
			}
			createFileTree(t, fs, fullPath, v)
		default:
			t.Fatalf("Invalid file tree content type for %s: %T", name, content)
		}
	}
}

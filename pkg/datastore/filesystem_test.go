// TEST TYPE: Unit Tests
// DEPENDENCIES: In-memory filesystem
// PURPOSE: Verify record lifecycle and the single-owner invariant

package datastore

import (
	"testing"

	"github.com/arthur-debert/bulge/pkg/errors"
	"github.com/arthur-debert/bulge/pkg/filesystem"
	"github.com/arthur-debert/bulge/pkg/paths"
	"github.com/arthur-debert/bulge/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (DataStore, types.FS, paths.Paths) {
	t.Helper()
	p, err := paths.New("/sandbox")
	require.NoError(t, err)
	fsys := filesystem.NewMemoryFS()
	return New(fsys, p), fsys, p
}

func record(name string, files ...string) types.InstalledPackage {
	return types.InstalledPackage{
		Name:           name,
		Version:        "1.0.0",
		InstalledFiles: files,
		Source:         "core",
	}
}

func TestPutGetCommit(t *testing.T) {
	store, _, _ := newStore(t)

	require.NoError(t, store.Put(record("bar", "/opt/bar/bin")))
	assert.True(t, store.Exists("bar"))

	rec, err := store.Get("bar")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", rec.Version)
	assert.Equal(t, []string{"/opt/bar/bin"}, rec.InstalledFiles)
	assert.True(t, rec.Pending())
	assert.False(t, rec.InstalledAt.IsZero())

	require.NoError(t, store.Commit("bar"))
	rec, err = store.Get("bar")
	require.NoError(t, err)
	assert.Equal(t, types.RecordCommitted, rec.State)
}

func TestPutOverwrites(t *testing.T) {
	store, _, _ := newStore(t)
	require.NoError(t, store.Put(record("bar", "/a")))
	require.NoError(t, store.Commit("bar"))

	next := record("bar", "/a", "/b")
	next.Version = "2.0.0"
	require.NoError(t, store.Put(next))

	rec, err := store.Get("bar")
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", rec.Version)
	assert.True(t, rec.Pending())
	assert.Equal(t, []string{"/a", "/b"}, rec.InstalledFiles)
}

func TestGetMissing(t *testing.T) {
	store, _, _ := newStore(t)
	_, err := store.Get("ghost")
	assert.True(t, errors.IsErrorCode(err, errors.ErrPackageNotInstalled))
	assert.True(t, errors.IsErrorCode(store.Delete("ghost"), errors.ErrPackageNotInstalled))
	assert.True(t, errors.IsErrorCode(store.Commit("ghost"), errors.ErrPackageNotInstalled))
}

func TestCorruptRecord(t *testing.T) {
	store, fsys, p := newStore(t)
	require.NoError(t, fsys.MkdirAll(p.InstalledDir(), 0755))
	require.NoError(t, fsys.WriteFile(p.InstalledPath("bad"), []byte("{"), 0644))

	_, err := store.Get("bad")
	assert.True(t, errors.IsErrorCode(err, errors.ErrDatabase))
}

func TestListAndDelete(t *testing.T) {
	store, _, _ := newStore(t)

	list, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, store.Put(record("zsh", "/bin/zsh")))
	require.NoError(t, store.Put(record("bash", "/bin/bash")))

	list, err = store.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "bash", list[0].Name)
	assert.Equal(t, "zsh", list[1].Name)

	require.NoError(t, store.Delete("zsh"))
	assert.False(t, store.Exists("zsh"))

	files, err := store.OwnedFiles("bash")
	require.NoError(t, err)
	assert.Equal(t, []string{"/bin/bash"}, files)
}

func TestOwnership(t *testing.T) {
	store, _, _ := newStore(t)
	require.NoError(t, store.Put(record("foo", "/usr/bin/foo", "/usr/share/shared")))
	require.NoError(t, store.Put(record("bar", "/usr/bin/bar")))

	owner, ok, err := store.OwnerOf("/usr/share/shared")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "foo", owner)

	_, ok, err = store.OwnerOf("/nowhere")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Disown([]string{"/usr/share/shared", "/usr/bin/bar"}, "bar"))

	files, err := store.OwnedFiles("foo")
	require.NoError(t, err)
	assert.Equal(t, []string{"/usr/bin/foo"}, files)

	files, err = store.OwnedFiles("bar")
	require.NoError(t, err)
	assert.Equal(t, []string{"/usr/bin/bar"}, files, "kept package is untouched")

	_, ok, err = store.OwnerOf("/usr/share/shared")
	require.NoError(t, err)
	assert.False(t, ok)
}

package executor_test

import (
	"bytes"
	"context"
	"fmt"
	"syscall"
	"testing"

	"github.com/arthur-debert/bulge/pkg/datastore"
	"github.com/arthur-debert/bulge/pkg/errors"
	"github.com/arthur-debert/bulge/pkg/executor"
	"github.com/arthur-debert/bulge/pkg/lock"
	"github.com/arthur-debert/bulge/pkg/testutil"
	"github.com/arthur-debert/bulge/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	env    *testutil.TestEnvironment
	dialog *testutil.ScriptedDialog
	out    *bytes.Buffer
	exec   *executor.Executor
	lock   *lock.Manager
}

func newFixture(t *testing.T, envType testutil.EnvType, dialog *testutil.ScriptedDialog) *fixture {
	t.Helper()
	env := testutil.NewTestEnvironment(t, envType)
	return newFixtureWith(env, env.FS, env.DataStore, dialog, nil)
}

func newFixtureWith(env *testutil.TestEnvironment, fsys types.FS, store datastore.DataStore, dialog *testutil.ScriptedDialog, resolver executor.DependencyResolver) *fixture {
	out := &bytes.Buffer{}
	lk := lock.New(fsys, env.Paths.LockPath())
	return &fixture{
		env:    env,
		dialog: dialog,
		out:    out,
		lock:   lk,
		exec: executor.New(executor.Options{
			DataStore: store,
			Paths:     env.Paths,
			Lock:      lk,
			Dialog:    dialog,
			Resolver:  resolver,
			Output:    out,
			FS:        fsys,
		}),
	}
}

func (f *fixture) scratchEntries(t *testing.T) int {
	t.Helper()
	entries, err := f.env.FS.ReadDir(f.env.Paths.ScratchRoot())
	if err != nil {
		return 0
	}
	return len(entries)
}

func TestInstallEndToEnd(t *testing.T) {
	for name, envType := range map[string]testutil.EnvType{
		"memory":   testutil.EnvMemoryOnly,
		"isolated": testutil.EnvIsolated,
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, envType, testutil.AlwaysYes())
			pkg := testutil.NewPackage("bar", "1.0.0").
				WithFileMode("/opt/bar/bin", "#!/bin/sh\n", 0755).
				Build(t)

			rec, err := f.exec.Install(context.Background(), pkg, types.Source{Name: "core"})
			require.NoError(t, err)
			assert.Equal(t, "bar", rec.Name)
			assert.Equal(t, types.RecordCommitted, rec.State)

			stored, err := f.env.DataStore.Get("bar")
			require.NoError(t, err)
			assert.Equal(t, "1.0.0", stored.Version)
			assert.Equal(t, []string{"/opt/bar/bin"}, stored.InstalledFiles)
			assert.Equal(t, "core", stored.Source)
			assert.False(t, stored.Pending())

			assert.Equal(t, "#!/bin/sh\n", f.env.ReadFile("/opt/bar/bin"))
			info, err := f.env.FS.Stat(f.env.Paths.Resolve("/opt/bar/bin"))
			require.NoError(t, err)
			assert.Equal(t, 0755, int(info.Mode().Perm()))

			assert.Zero(t, f.scratchEntries(t), "scratch directory removed")
			assert.False(t, f.lock.Exists())
			assert.Equal(t, []string{"install:bar"}, f.dialog.IDs())
			assert.Contains(t, f.out.String(), "Installing package bar v1.0.0 from core.")
			assert.Contains(t, f.out.String(), "Installed bar v1.0.0!")
		})
	}
}

func TestInstallRecordsDescriptorFields(t *testing.T) {
	f := newFixture(t, testutil.EnvMemoryOnly, testutil.AlwaysYes())
	pkg := testutil.NewPackage("foo", "2.0.0").
		WithEpoch(1).
		WithGroups("base", "devel").
		WithProvides("libfoo, foo-bin").
		WithConflicts("oldfoo").
		WithFile("/usr/bin/foo", "foo").
		WithFile("/usr/lib/libfoo.so", "lib").
		Build(t)

	_, err := f.exec.Install(context.Background(), pkg, types.LocalSource)
	require.NoError(t, err)

	rec, err := f.env.DataStore.Get("foo")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Epoch)
	assert.Equal(t, []string{"base", "devel"}, rec.Groups)
	assert.Equal(t, []string{"libfoo", "foo-bin"}, rec.Provides)
	assert.Equal(t, []string{"oldfoo"}, rec.Conflicts)
	assert.Equal(t, []string{"/usr/bin/foo", "/usr/lib/libfoo.so"}, rec.InstalledFiles)
	assert.Equal(t, "local", rec.Source)
}

func TestInstallFile(t *testing.T) {
	f := newFixture(t, testutil.EnvMemoryOnly, testutil.AlwaysYes())
	pkg := testutil.NewPackage("bar", "1.0.0").WithFile("/opt/bar/bin", "x").Build(t)
	require.NoError(t, f.env.FS.WriteFile("/bar.pkg", pkg, 0644))

	rec, err := f.exec.InstallFile(context.Background(), "/bar.pkg")
	require.NoError(t, err)
	assert.Equal(t, "local", rec.Source)

	_, err = f.exec.InstallFile(context.Background(), "/missing.pkg")
	assert.True(t, errors.IsErrorCode(err, errors.ErrFileAccess))
}

func TestInstallDeclined(t *testing.T) {
	f := newFixture(t, testutil.EnvMemoryOnly, testutil.NewScriptedDialog(false))
	pkg := testutil.NewPackage("bar", "1.0.0").WithFile("/opt/bar/bin", "x").Build(t)

	_, err := f.exec.Install(context.Background(), pkg, types.LocalSource)
	assert.True(t, errors.IsErrorCode(err, errors.ErrUserDeclined))

	assert.False(t, f.env.DataStore.Exists("bar"))
	assert.False(t, f.env.Exists("/opt/bar/bin"))
	assert.False(t, f.lock.Exists())
}

func TestInstallRejectsInvalidArchives(t *testing.T) {
	tests := []struct {
		name string
		pkg  *testutil.PackageBuilder
		code errors.ErrorCode
	}{
		{"no descriptor", testutil.NewPackage("bar", "1").WithoutDescriptor().WithFile("/a", "a"), errors.ErrPackageInvalid},
		{"malformed descriptor", testutil.NewPackage("bar", "1").WithRawDescriptor("{name"), errors.ErrDescriptorInvalid},
		{"no version", testutil.NewPackage("bar", "").WithFile("/a", "a"), errors.ErrDescriptorInvalid},
		{"no payload", testutil.NewPackage("bar", "1").WithoutPayload(), errors.ErrPackageInvalid},
		{"escaping payload", testutil.NewPackage("bar", "1").WithFile("../../etc/passwd", "x"), errors.ErrPackageInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, testutil.EnvMemoryOnly, testutil.AlwaysYes())
			_, err := f.exec.Install(context.Background(), tt.pkg.Build(t), types.LocalSource)
			assert.True(t, errors.IsErrorCode(err, tt.code), "got %v", err)
			assert.False(t, f.env.DataStore.Exists("bar"))
			assert.False(t, f.lock.Exists())
			assert.Zero(t, f.scratchEntries(t))
		})
	}
}

func TestInstallDependencyVeto(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	var seen []string
	resolver := executor.ResolverFunc(func(_ context.Context, pkg types.Descriptor, installed []types.InstalledPackage) error {
		seen = append(seen, pkg.Name)
		return fmt.Errorf("%s conflicts with an installed package", pkg.Name)
	})
	f := newFixtureWith(env, env.FS, env.DataStore, testutil.NewScriptedDialog(), resolver)

	pkg := testutil.NewPackage("bar", "1.0.0").WithFile("/opt/bar/bin", "x").Build(t)
	_, err := f.exec.Install(context.Background(), pkg, types.LocalSource)
	assert.True(t, errors.IsErrorCode(err, errors.ErrDependencyVeto))
	assert.Equal(t, []string{"bar"}, seen)
	assert.Empty(t, f.dialog.IDs(), "veto happens before the user is asked")
	assert.False(t, env.DataStore.Exists("bar"))
}

func TestInstallDowngrade(t *testing.T) {
	newer := testutil.NewPackage("bar", "1.3.0").WithFile("/opt/bar/bin", "new").Build(t)
	older := testutil.NewPackage("bar", "1.2.0").WithFile("/opt/bar/bin", "old").Build(t)

	t.Run("declined", func(t *testing.T) {
		dialog := testutil.NewScriptedDialog().On("install:", true).On("install:downgrade:", false)
		f := newFixture(t, testutil.EnvMemoryOnly, dialog)
		_, err := f.exec.Install(context.Background(), newer, types.LocalSource)
		require.NoError(t, err)

		_, err = f.exec.Install(context.Background(), older, types.LocalSource)
		assert.True(t, errors.IsErrorCode(err, errors.ErrUserDeclined))

		rec, err := f.env.DataStore.Get("bar")
		require.NoError(t, err)
		assert.Equal(t, "1.3.0", rec.Version)
		assert.Equal(t, "new", f.env.ReadFile("/opt/bar/bin"))
		assert.False(t, f.lock.Exists())
	})

	t.Run("confirmed", func(t *testing.T) {
		f := newFixture(t, testutil.EnvMemoryOnly, testutil.AlwaysYes())
		_, err := f.exec.Install(context.Background(), newer, types.LocalSource)
		require.NoError(t, err)

		_, err = f.exec.Install(context.Background(), older, types.LocalSource)
		require.NoError(t, err)
		assert.Contains(t, f.dialog.IDs(), "install:downgrade:bar")
		assert.Contains(t, f.out.String(), "This will result in a downgrade as bar v1.3.0 is already installed!")

		rec, err := f.env.DataStore.Get("bar")
		require.NoError(t, err)
		assert.Equal(t, "1.2.0", rec.Version)
		assert.Equal(t, "old", f.env.ReadFile("/opt/bar/bin"))
	})

	t.Run("higher epoch wins", func(t *testing.T) {
		f := newFixture(t, testutil.EnvMemoryOnly, testutil.AlwaysYes())
		epoch := testutil.NewPackage("bar", "1.0.0").WithEpoch(1).WithFile("/opt/bar/bin", "e1").Build(t)
		_, err := f.exec.Install(context.Background(), epoch, types.LocalSource)
		require.NoError(t, err)

		_, err = f.exec.Install(context.Background(), newer, types.LocalSource)
		require.NoError(t, err)
		assert.Contains(t, f.dialog.IDs(), "install:downgrade:bar")
	})
}

func TestReinstallOwnedFilesWithoutConflict(t *testing.T) {
	f := newFixture(t, testutil.EnvMemoryOnly, testutil.AlwaysYes())
	v1 := testutil.NewPackage("foo", "1.0.0").WithFile("/usr/bin/foo", "v1").Build(t)
	v2 := testutil.NewPackage("foo", "1.1.0").WithFile("/usr/bin/foo", "v2").Build(t)

	_, err := f.exec.Install(context.Background(), v1, types.LocalSource)
	require.NoError(t, err)
	_, err = f.exec.Install(context.Background(), v2, types.LocalSource)
	require.NoError(t, err)

	assert.Equal(t, []string{"install:foo", "install:foo"}, f.dialog.IDs(), "no downgrade or conflict prompt")
	assert.Contains(t, f.out.String(), "Warning: foo is already installed, reinstalling...")
	assert.Equal(t, "v2", f.env.ReadFile("/usr/bin/foo"))

	rec, err := f.env.DataStore.Get("foo")
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", rec.Version)
}

func TestInstallConflicts(t *testing.T) {
	t.Run("declined leaves files and database untouched", func(t *testing.T) {
		dialog := testutil.NewScriptedDialog().On("install:", true).On("install:conflicts:", false)
		f := newFixture(t, testutil.EnvMemoryOnly, dialog)
		f.env.WithFileTree(testutil.FileTree{"usr": testutil.FileTree{"bin": testutil.FileTree{"foo": "unmanaged"}}})

		pkg := testutil.NewPackage("foo", "1.0.0").WithFile("/usr/bin/foo", "packaged").Build(t)
		_, err := f.exec.Install(context.Background(), pkg, types.LocalSource)
		assert.True(t, errors.IsErrorCode(err, errors.ErrUserDeclined))

		assert.Equal(t, "unmanaged", f.env.ReadFile("/usr/bin/foo"))
		assert.False(t, f.env.DataStore.Exists("foo"))
		assert.False(t, f.lock.Exists())

		reqs := f.dialog.Requests()
		require.Len(t, reqs, 2)
		assert.Equal(t, []string{"/usr/bin/foo"}, reqs[1].Items)
	})

	t.Run("confirmed deletes and disowns", func(t *testing.T) {
		f := newFixture(t, testutil.EnvMemoryOnly, testutil.AlwaysYes())
		other := testutil.NewPackage("other", "1.0.0").
			WithFile("/usr/bin/foo", "other").
			WithFile("/usr/bin/other", "other").
			Build(t)
		_, err := f.exec.Install(context.Background(), other, types.LocalSource)
		require.NoError(t, err)

		pkg := testutil.NewPackage("foo", "1.0.0").WithFile("/usr/bin/foo", "foo").Build(t)
		_, err = f.exec.Install(context.Background(), pkg, types.LocalSource)
		require.NoError(t, err)
		assert.Contains(t, f.dialog.IDs(), "install:conflicts:foo")
		assert.Contains(t, f.out.String(), "Removing /usr/bin/foo")

		assert.Equal(t, "foo", f.env.ReadFile("/usr/bin/foo"))

		owner, ok, err := f.env.DataStore.OwnerOf("/usr/bin/foo")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "foo", owner)

		rec, err := f.env.DataStore.Get("other")
		require.NoError(t, err)
		assert.Equal(t, []string{"/usr/bin/other"}, rec.InstalledFiles)
	})
}

func TestInstallConflictDeletionFailureIsFatal(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	env.WithFileTree(testutil.FileTree{"etc": testutil.FileTree{"foo.conf": "mine"}})
	faulty := testutil.NewFaultyFS(env.FS).FailOn("Remove", env.Paths.Resolve("/etc/foo.conf"), syscall.EACCES)
	f := newFixtureWith(env, faulty, datastore.New(faulty, env.Paths), testutil.AlwaysYes(), nil)

	pkg := testutil.NewPackage("foo", "1.0.0").
		WithFile("/etc/foo.conf", "packaged").
		WithFile("/usr/bin/foo", "bin").
		Build(t)
	_, err := f.exec.Install(context.Background(), pkg, types.LocalSource)
	assert.True(t, errors.IsErrorCode(err, errors.ErrFileRemove))

	assert.False(t, env.DataStore.Exists("foo"))
	assert.False(t, env.Exists("/usr/bin/foo"))
	assert.Equal(t, "mine", env.ReadFile("/etc/foo.conf"))
	assert.False(t, f.lock.Exists())
}

func TestInstallExtractionFailureLeavesPendingRecord(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	faulty := testutil.NewFaultyFS(env.FS).FailOn("OpenFile", env.Paths.Resolve("/usr/bin/b"), syscall.ENOSPC)
	f := newFixtureWith(env, faulty, datastore.New(faulty, env.Paths), testutil.AlwaysYes(), nil)

	pkg := testutil.NewPackage("foo", "1.0.0").
		WithFile("/usr/bin/a", "a").
		WithFile("/usr/bin/b", "b").
		Build(t)
	_, err := f.exec.Install(context.Background(), pkg, types.LocalSource)
	assert.True(t, errors.IsErrorCode(err, errors.ErrFileWrite))

	rec, err := env.DataStore.Get("foo")
	require.NoError(t, err)
	assert.True(t, rec.Pending())
	assert.Equal(t, []string{"/usr/bin/a", "/usr/bin/b"}, rec.InstalledFiles)
	assert.False(t, f.lock.Exists())
}

func TestInstallWhileLocked(t *testing.T) {
	f := newFixture(t, testutil.EnvMemoryOnly, testutil.AlwaysYes())
	require.NoError(t, f.lock.Acquire())

	pkg := testutil.NewPackage("bar", "1.0.0").WithFile("/opt/bar/bin", "x").Build(t)
	_, err := f.exec.Install(context.Background(), pkg, types.LocalSource)
	assert.True(t, errors.IsErrorCode(err, errors.ErrLockHeld))
	assert.Empty(t, f.dialog.IDs())
	assert.True(t, f.lock.Exists())
}

func TestRemove(t *testing.T) {
	f := newFixture(t, testutil.EnvMemoryOnly, testutil.AlwaysYes())
	f.env.WithFileTree(testutil.FileTree{"a": "a", "keep": "keep"})
	require.NoError(t, f.env.DataStore.Put(types.InstalledPackage{
		Name:           "foo",
		Version:        "1.0.0",
		InstalledFiles: []string{"/a", "/b"},
	}))

	require.NoError(t, f.exec.Remove(context.Background(), "foo"))

	assert.False(t, f.env.Exists("/a"))
	assert.True(t, f.env.Exists("/keep"))
	assert.False(t, f.env.DataStore.Exists("foo"))
	assert.False(t, f.lock.Exists())
	assert.Contains(t, f.out.String(), "Removed foo v1.0.0.")
}

func TestRemoveInstalledPackage(t *testing.T) {
	f := newFixture(t, testutil.EnvIsolated, testutil.AlwaysYes())
	pkg := testutil.NewPackage("bar", "1.0.0").
		WithFile("/opt/bar/bin", "x").
		WithSymlink("/opt/bar/current", "bin").
		Build(t)
	_, err := f.exec.Install(context.Background(), pkg, types.LocalSource)
	require.NoError(t, err)
	require.True(t, f.env.Exists("/opt/bar/current"))

	require.NoError(t, f.exec.Remove(context.Background(), "bar"))
	assert.False(t, f.env.Exists("/opt/bar/bin"))
	assert.False(t, f.env.Exists("/opt/bar/current"))
	assert.False(t, f.env.DataStore.Exists("bar"))
}

func TestRemoveNotInstalled(t *testing.T) {
	f := newFixture(t, testutil.EnvMemoryOnly, testutil.AlwaysYes())
	err := f.exec.Remove(context.Background(), "ghost")
	assert.True(t, errors.IsErrorCode(err, errors.ErrPackageNotInstalled))
	assert.False(t, f.lock.Exists())
}

func TestRemoveDeletionFailureKeepsRecord(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	env.WithFileTree(testutil.FileTree{"a": "a", "b": "b", "c": "c"})
	require.NoError(t, env.DataStore.Put(types.InstalledPackage{
		Name:           "foo",
		Version:        "1.0.0",
		InstalledFiles: []string{"/a", "/b", "/c"},
	}))

	faulty := testutil.NewFaultyFS(env.FS).FailOn("Remove", env.Paths.Resolve("/b"), syscall.EBUSY)
	f := newFixtureWith(env, faulty, datastore.New(faulty, env.Paths), testutil.AlwaysYes(), nil)

	err := f.exec.Remove(context.Background(), "foo")
	assert.True(t, errors.IsErrorCode(err, errors.ErrFileRemove))

	assert.False(t, env.Exists("/a"))
	assert.True(t, env.Exists("/b"))
	assert.True(t, env.Exists("/c"), "remove stops at the first failure")
	assert.True(t, env.DataStore.Exists("foo"))
	assert.False(t, f.lock.Exists())
}

func TestRemoveUninspectableFileKeepsRecord(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	env.WithFileTree(testutil.FileTree{"a": "a", "b": "b"})
	require.NoError(t, env.DataStore.Put(types.InstalledPackage{
		Name:           "foo",
		Version:        "1.0.0",
		InstalledFiles: []string{"/a", "/b"},
	}))

	faulty := testutil.NewFaultyFS(env.FS).FailOn("Lstat", env.Paths.Resolve("/b"), syscall.EIO)
	f := newFixtureWith(env, faulty, datastore.New(faulty, env.Paths), testutil.AlwaysYes(), nil)

	err := f.exec.Remove(context.Background(), "foo")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrFileRemove))

	assert.False(t, env.Exists("/a"))
	assert.True(t, env.Exists("/b"))
	assert.True(t, env.DataStore.Exists("foo"))
	assert.False(t, f.lock.Exists())
}

// TEST TYPE: Unit Tests
// DEPENDENCIES: None (pure path computation)
// PURPOSE: Verify root discovery and the derived layout

package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootSelection(t *testing.T) {
	t.Run("explicit root wins", func(t *testing.T) {
		t.Setenv(EnvRoot, "/from/env")
		p, err := New("/explicit")
		require.NoError(t, err)
		assert.Equal(t, "/explicit", p.Root())
	})

	t.Run("env root", func(t *testing.T) {
		t.Setenv(EnvRoot, "/from/env")
		p, err := New("")
		require.NoError(t, err)
		assert.Equal(t, "/from/env", p.Root())
	})

	t.Run("default root", func(t *testing.T) {
		t.Setenv(EnvRoot, "")
		p, err := New("")
		require.NoError(t, err)
		assert.Equal(t, "/", p.Root())
		assert.True(t, p.IsSystemRoot())
	})

	t.Run("relative root is made absolute", func(t *testing.T) {
		p, err := New("sandbox")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(p.Root()))
		assert.False(t, p.IsSystemRoot())
	})
}

func TestLayout(t *testing.T) {
	p, err := New("/mnt/image")
	require.NoError(t, err)

	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"lock", p.LockPath(), "/mnt/image/var/lock/bulge.lock"},
		{"config", p.ConfigPath(), "/mnt/image/etc/bulge/config.json"},
		{"mirrors", p.MirrorsPath(), "/mnt/image/etc/bulge/mirrors"},
		{"keyring", p.KeyringPath(), "/mnt/image/etc/bulge/keyring.asc"},
		{"repo cache", p.RepoCachePath("core"), "/mnt/image/etc/bulge/databases/cache/core.db"},
		{"manifest", p.ManifestPath(), "/mnt/image/etc/bulge/databases/cache.json"},
		{"installed", p.InstalledPath("bar"), "/mnt/image/etc/bulge/databases/installed/bar.json"},
		{"scratch", p.ScratchDir("abc"), "/mnt/image/tmp/bulge/abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.got)
		})
	}
}

func TestResolve(t *testing.T) {
	p, err := New("/mnt/image")
	require.NoError(t, err)

	assert.Equal(t, "/mnt/image/usr/bin/bar", p.Resolve("/usr/bin/bar"))
	assert.Equal(t, "/mnt/image/usr/bin/bar", p.Resolve("usr/bin/bar"))
	assert.Equal(t, "/mnt/image/etc/passwd", p.Resolve("/../../etc/passwd"))
}

func TestExpandHome(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"~", homeDir},
		{"~/root", filepath.Join(homeDir, "root")},
		{"~other/root", "~other/root"},
		{"/absolute", "/absolute"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExpandHome(tt.input))
		})
	}
}

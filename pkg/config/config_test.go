// TEST TYPE: Unit Tests
// DEPENDENCIES: In-memory filesystem
// PURPOSE: Verify layered config loading, schema validation and source selection

package config

import (
	"testing"
	"time"

	"github.com/arthur-debert/bulge/pkg/errors"
	"github.com/arthur-debert/bulge/pkg/filesystem"
	"github.com/arthur-debert/bulge/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const configPath = "/etc/bulge/config.json"

func writeConfig(t *testing.T, content string) types.FS {
	t.Helper()
	fsys := filesystem.NewMemoryFS()
	require.NoError(t, fsys.MkdirAll("/etc/bulge", 0755))
	require.NoError(t, fsys.WriteFile(configPath, []byte(content), 0644))
	return fsys
}

func TestLoad(t *testing.T) {
	fsys := writeConfig(t, `{
		"architecture": "aarch64",
		"colour": false,
		"progressbar": true,
		"repos": [
			{"name": "core", "active": true, "url": null},
			{"name": "extra", "active": false},
			{"name": "local", "active": true, "url": "https://pkg.example.org/local"}
		]
	}`)

	cfg, err := Load(fsys, configPath)
	require.NoError(t, err)

	assert.Equal(t, "aarch64", cfg.Architecture)
	assert.False(t, cfg.Colour)
	assert.True(t, cfg.Progressbar)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
	require.Len(t, cfg.Repos, 3)
	assert.Nil(t, cfg.Repos[0].URL)

	sources := cfg.ActiveSources()
	require.Len(t, sources, 2)
	assert.Equal(t, "core", sources[0].Name)
	assert.False(t, sources[0].HasFixedURL())
	assert.Equal(t, "local", sources[1].Name)
	require.NotNil(t, sources[1].URL)
	assert.Equal(t, "https://pkg.example.org/local", *sources[1].URL)

	_, ok := cfg.Repo("extra")
	assert.True(t, ok)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("BULGE_ARCHITECTURE", "riscv64")
	t.Setenv("BULGE_TIMEOUT", "5s")
	t.Setenv("BULGE_ROOT", "/not/a/config/key")

	fsys := writeConfig(t, `{"architecture": "x86_64", "colour": true, "progressbar": false, "repos": []}`)

	cfg, err := Load(fsys, configPath)
	require.NoError(t, err)
	assert.Equal(t, "riscv64", cfg.Architecture)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		code    errors.ErrorCode
	}{
		{
			name:    "not json",
			content: `architecture = "x86_64"`,
			code:    errors.ErrConfigParse,
		},
		{
			name:    "missing repos",
			content: `{"architecture": "x86_64", "colour": true, "progressbar": true}`,
			code:    errors.ErrConfigInvalid,
		},
		{
			name:    "wrong type",
			content: `{"architecture": "x86_64", "colour": "yes", "progressbar": true, "repos": []}`,
			code:    errors.ErrConfigInvalid,
		},
		{
			name:    "repo without active flag",
			content: `{"architecture": "x86_64", "colour": true, "progressbar": true, "repos": [{"name": "core"}]}`,
			code:    errors.ErrConfigInvalid,
		},
		{
			name: "duplicate repo",
			content: `{"architecture": "x86_64", "colour": true, "progressbar": true,
				"repos": [{"name": "core", "active": true}, {"name": "core", "active": false}]}`,
			code: errors.ErrConfigInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := writeConfig(t, tt.content)
			_, err := Load(fsys, configPath)
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, tt.code), "got %v", err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filesystem.NewMemoryFS(), configPath)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigLoad))
}

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, Validate(DefaultConfigContent()))
}

func TestParseMirrors(t *testing.T) {
	templates, err := ParseMirrors([]byte(`
# primary
https://m1.example.org/$repo

https://m2.example.org/pub/$repo/os
`))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://m1.example.org/$repo",
		"https://m2.example.org/pub/$repo/os",
	}, templates)

	assert.Equal(t, "https://m2.example.org/pub/core/os", Expand(templates[1], "core"))
}

func TestParseMirrorsRejectsMissingToken(t *testing.T) {
	_, err := ParseMirrors([]byte("https://m1.example.org/$repo\nhttps://m2.example.org/core\n"))
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrMirrorsInvalid))
	assert.Equal(t, 2, errors.GetErrorDetails(err)["line"])
}

func TestLoadMirrors(t *testing.T) {
	fsys := filesystem.NewMemoryFS()
	require.NoError(t, fsys.MkdirAll("/etc/bulge", 0755))
	require.NoError(t, fsys.WriteFile("/etc/bulge/mirrors", DefaultMirrorsContent(), 0644))

	templates, err := LoadMirrors(fsys, "/etc/bulge/mirrors")
	require.NoError(t, err)
	require.Len(t, templates, 1)

	_, err = LoadMirrors(fsys, "/etc/bulge/missing")
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigLoad))
}

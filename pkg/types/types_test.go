package types_test

import (
	"testing"

	"github.com/arthur-debert/bulge/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		joined string
		want   []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{"a,b", []string{"a", "b"}},
		{" a , ,b, ", []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.joined, func(t *testing.T) {
			assert.Equal(t, tt.want, types.SplitList(tt.joined))
		})
	}

	assert.Equal(t, "a,b", types.JoinList([]string{"a", "b"}))
}

func TestDescriptorLists(t *testing.T) {
	d := types.Descriptor{Name: "bar", Version: "1.0.0", Provides: "rg,ripgrep", Conflicts: ""}

	assert.Equal(t, []string{"rg", "ripgrep"}, d.ProvidesList())
	assert.Nil(t, d.ConflictsList())
}

func TestSourceFixedURL(t *testing.T) {
	blank := "  "
	fixed := "https://example.org/core"

	assert.False(t, types.Source{Name: "core"}.HasFixedURL())
	assert.False(t, types.Source{Name: "core", URL: &blank}.HasFixedURL())
	assert.True(t, types.Source{Name: "core", URL: &fixed}.HasFixedURL())
	assert.False(t, types.LocalSource.HasFixedURL())
}

func TestInstalledPackage(t *testing.T) {
	rec := types.InstalledPackage{
		Name:           "bar",
		InstalledFiles: []string{"/usr/bin/bar", "/usr/share/bar"},
		State:          types.RecordPending,
	}

	assert.True(t, rec.Pending())
	assert.True(t, rec.Owns("/usr/bin/bar"))
	assert.False(t, rec.Owns("/usr/bin/foo"))

	rec.State = types.RecordCommitted
	assert.False(t, rec.Pending())
}

func TestAlwaysConfirm(t *testing.T) {
	ok, err := types.AlwaysConfirm.Confirm(types.ConfirmationRequest{ID: "install:bar"})
	assert.NoError(t, err)
	assert.True(t, ok)

	var asked []string
	dialog := types.ConfirmationFunc(func(req types.ConfirmationRequest) (bool, error) {
		asked = append(asked, req.ID)
		return false, nil
	})
	ok, err = dialog.Confirm(types.ConfirmationRequest{ID: "lock:stale"})
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{"lock:stale"}, asked)
}

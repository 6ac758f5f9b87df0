package versionguard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsDowngrade(t *testing.T) {
	tests := []struct {
		newVersion string
		installed  string
		expected   bool
	}{
		{"1.2.0", "1.3.0", true},
		{"2.0.0", "1.9.9", false},
		{"1.0.0", "1.0.0", false},
		{"1.0.0", "1.0.1", true},
		{"1.10.0", "1.9.0", false},
		{"v1.2.0", "1.2.0", false},
		{"1.0.0-rc1", "1.0.0", true},
		{"1.0.0+build5", "1.0.0+build9", false},
		{"1.2", "1.2.1", true},
		{"1.2.3.4", "1.2.3.10", true},
		{"20240101", "20231231", false},
		{"1.0a", "1.0", false},
	}

	for _, tt := range tests {
		t.Run(tt.newVersion+"_over_"+tt.installed, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsDowngrade(tt.newVersion, tt.installed))
		})
	}
}

func TestCompare(t *testing.T) {
	assert.Equal(t, 0, Compare("1.0.0", "v1.0.0"))
	assert.Equal(t, -1, Compare("0.9.9", "1.0.0"))
	assert.Equal(t, 1, Compare("1.0.0", "1.0.0-beta"))
	assert.Equal(t, 1, Compare("2.0", "1.99.99"))
}

func TestCompareEpoch(t *testing.T) {
	assert.Equal(t, 1, CompareEpoch(1, "1.0.0", 0, "9.0.0"))
	assert.Equal(t, -1, CompareEpoch(0, "9.0.0", 1, "1.0.0"))
	assert.Equal(t, -1, CompareEpoch(1, "1.0.0", 1, "1.0.1"))

	assert.True(t, IsDowngradeEpoch(0, "2.0.0", 1, "1.0.0"))
	assert.False(t, IsDowngradeEpoch(2, "1.0.0", 1, "2.0.0"))
}

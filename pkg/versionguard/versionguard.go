// Package versionguard orders package versions and detects downgrades.
//
// Versions are compared as semantic versions (major.minor.patch, with
// pre-release ordering and build metadata ignored) using
// golang.org/x/mod/semver. Versions that are not valid semver fall back to
// a component-wise comparison of their numeric and textual parts, so
// "1.2.3.4" and "20240101" still order sensibly.
package versionguard

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/mod/semver"
)

// Compare returns -1, 0 or 1 as a is lower than, equal to or higher than b.
func Compare(a, b string) int {
	ca, cb := canonical(a), canonical(b)
	if semver.IsValid(ca) && semver.IsValid(cb) {
		return semver.Compare(ca, cb)
	}
	return compareComponents(strings.TrimSpace(a), strings.TrimSpace(b))
}

// CompareEpoch orders two versions epoch first.
func CompareEpoch(epochA int, a string, epochB int, b string) int {
	switch {
	case epochA < epochB:
		return -1
	case epochA > epochB:
		return 1
	}
	return Compare(a, b)
}

// IsDowngrade reports whether installing newVersion over installedVersion
// would move to a strictly lower version.
func IsDowngrade(newVersion, installedVersion string) bool {
	return Compare(newVersion, installedVersion) < 0
}

// IsDowngradeEpoch is IsDowngrade with epochs taking precedence
func IsDowngradeEpoch(newEpoch int, newVersion string, installedEpoch int, installedVersion string) bool {
	return CompareEpoch(newEpoch, newVersion, installedEpoch, installedVersion) < 0
}

func canonical(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return v
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// compareComponents splits both versions into runs of digits and runs of
// letters and compares them pairwise. Numeric runs compare numerically and
// sort after textual runs; a version with extra components is higher.
func compareComponents(a, b string) int {
	pa, pb := split(a), split(b)
	for i := 0; i < len(pa) && i < len(pb); i++ {
		if c := compareComponent(pa[i], pb[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(pa) < len(pb):
		return -1
	case len(pa) > len(pb):
		return 1
	}
	return 0
}

func compareComponent(a, b string) int {
	na, errA := strconv.ParseUint(a, 10, 64)
	nb, errB := strconv.ParseUint(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		}
		return 0
	case errA == nil:
		return 1
	case errB == nil:
		return -1
	}
	return strings.Compare(a, b)
}

func split(v string) []string {
	var parts []string
	var current strings.Builder
	var digits bool
	flush := func() {
		if current.Len() > 0 {
			parts = append(parts, current.String())
			current.Reset()
		}
	}
	for _, r := range strings.TrimPrefix(v, "v") {
		switch {
		case unicode.IsDigit(r):
			if !digits {
				flush()
			}
			digits = true
			current.WriteRune(r)
		case unicode.IsLetter(r):
			if digits {
				flush()
			}
			digits = false
			current.WriteRune(r)
		default:
			flush()
		}
	}
	flush()
	return parts
}

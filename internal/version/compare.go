// Package version compares application version strings. The scheme is
// semver-shaped but deliberately forgiving: unparsable numeric segments count
// as zero, build metadata is ignored, and pre-release tags break ties with a
// plain lexicographic compare rather than full semver precedence.
package version

import (
	"strconv"
	"strings"
)

// Compare returns -1, 0, or 1 as a orders before, equal to, or after b.
func Compare(a, b string) int {
	aCore, aPre := split(a)
	bCore, bPre := split(b)
	maxLen := max(len(aCore), len(bCore))
	for i := range maxLen {
		av := segmentAt(aCore, i)
		bv := segmentAt(bCore, i)
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	// Numeric parts equal; a pre-release orders before the bare release.
	switch {
	case aPre == bPre:
		return 0
	case aPre == "":
		return 1
	case bPre == "":
		return -1
	case aPre < bPre:
		return -1
	default:
		return 1
	}
}

// HasUpdate reports whether candidate is strictly newer than current.
func HasUpdate(current, candidate string) bool {
	return Compare(current, candidate) < 0
}

// split normalizes a version string into its numeric segments and optional
// pre-release tag: strips one leading v/V, drops build metadata from the
// first '+', and cuts the pre-release tag at the first '-'.
func split(v string) ([]int64, string) {
	if len(v) > 0 && (v[0] == 'v' || v[0] == 'V') {
		v = v[1:]
	}
	if idx := strings.IndexByte(v, '+'); idx >= 0 {
		v = v[:idx]
	}
	core, pre, _ := strings.Cut(v, "-")
	parts := strings.Split(core, ".")
	segments := make([]int64, len(parts))
	for i, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil || n < 0 {
			n = 0
		}
		segments[i] = n
	}
	return segments, pre
}

func segmentAt(segments []int64, i int) int64 {
	if i < len(segments) {
		return segments[i]
	}
	return 0
}

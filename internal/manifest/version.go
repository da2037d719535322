package manifest

import (
	"fmt"
	"strconv"
	"strings"
)

// SemanticVersion is a MAJOR.MINOR.PATCH version as stored in a
// manifest (spec §6.1, `"version": "MAJOR.MINOR.PATCH"`).
type SemanticVersion struct {
	Major int
	Minor int
	Patch int
}

// String renders the version the way it appears on disk.
func (v SemanticVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// ParseSemanticVersion parses a "MAJOR.MINOR.PATCH" string.
func ParseSemanticVersion(s string) (SemanticVersion, error) {
	parts := strings.SplitN(s, ".", 3)
	if len(parts) != 3 {
		return SemanticVersion{}, fmt.Errorf("manifest: malformed version %q", s)
	}

	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return SemanticVersion{}, fmt.Errorf("manifest: malformed version %q: %w", s, err)
		}
		nums[i] = n
	}

	return SemanticVersion{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// Less reports whether v is older than other.
func (v SemanticVersion) Less(other SemanticVersion) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}
	if v.Minor != other.Minor {
		return v.Minor < other.Minor
	}
	return v.Patch < other.Patch
}

// AtLeast reports whether v >= other.
func (v SemanticVersion) AtLeast(other SemanticVersion) bool {
	return !v.Less(other)
}

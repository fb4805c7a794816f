package domain

import (
	"github.com/Masterminds/semver/v3"
)

// DefaultServerVersion is assumed when the host does not report its version.
const DefaultServerVersion = "0.0.0"

// Version wraps semver.Version for comparisons against host versions.
type Version struct {
	*semver.Version
}

// NewVersion creates a new Version from a string.
func NewVersion(s string) (*Version, error) {
	v, err := semver.NewVersion(s)
	if err != nil {
		return nil, err
	}
	return &Version{v}, nil
}

// MustVersion is NewVersion for constants known to parse.
func MustVersion(s string) *Version {
	return &Version{semver.MustParse(s)}
}

// Compare compares two versions.
func (v *Version) Compare(other *Version) int {
	return v.Version.Compare(other.Version)
}

// Before reports whether v is strictly lower than other.
func (v *Version) Before(other *Version) bool {
	return v.Compare(other) < 0
}

// String returns the version string without prefix.
func (v *Version) String() string {
	return v.Version.String()
}

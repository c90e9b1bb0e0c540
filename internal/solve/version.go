package solve

import (
	"strconv"
	"strings"

	"github.com/Masterminds/semver"
	"github.com/pkg/errors"
)

// Version is a dotted-decimal version string, optionally preceded by a
// caller-supplied prefix such as "v". It parses and compares like a
// semantic version, but tolerates the shorter major or major.minor forms a
// manifest author might write.
type Version struct {
	prefix string
	sv     semver.Version
}

// ErrInvalidVersion is returned when a version string cannot be parsed.
type ErrInvalidVersion struct {
	Input string
}

func (e ErrInvalidVersion) Error() string {
	return "invalid version: " + strconv.Quote(e.Input)
}

// ParseVersion parses s into a Version. A leading run of non-digit
// characters is treated as the prefix and stripped before handing the rest
// to the semver parser.
func ParseVersion(s string) (Version, error) {
	i := 0
	for i < len(s) && (s[i] < '0' || s[i] > '9') {
		i++
	}
	prefix, rest := s[:i], s[i:]
	if rest == "" {
		return Version{}, ErrInvalidVersion{Input: s}
	}

	sv, err := semver.NewVersion(rest)
	if err != nil {
		return Version{}, ErrInvalidVersion{Input: s}
	}

	return Version{prefix: prefix, sv: *sv}, nil
}

// String renders the version back to its dotted-decimal form, prefix
// included.
func (v Version) String() string {
	if v.sv == (semver.Version{}) {
		return ""
	}
	return v.prefix + v.sv.String()
}

// Compare returns -1, 0, or 1 as v is less than, equal to, or greater than
// o. The prefix does not participate in ordering.
func (v Version) Compare(o Version) int {
	return v.sv.Compare(&o.sv)
}

// LessThan reports whether v orders before o.
func (v Version) LessThan(o Version) bool {
	return v.sv.LessThan(&o.sv)
}

// Equal reports whether v and o denote the same version, ignoring prefix.
func (v Version) Equal(o Version) bool {
	return v.sv.Equal(&o.sv)
}

// Compatible reports whether every version in vs satisfies the caret range
// anchored at the minimum of vs: all versions must share the minimum's
// leading nonzero component. An empty or single-element vs is trivially
// compatible.
func Compatible(vs ...Version) (bool, error) {
	if len(vs) < 2 {
		return true, nil
	}

	min := vs[0]
	for _, v := range vs[1:] {
		if v.LessThan(min) {
			min = v
		}
	}

	c, err := semver.NewConstraint("^" + min.sv.String())
	if err != nil {
		return false, errors.Wrapf(err, "cannot build caret range for %s", min)
	}

	for _, v := range vs {
		if !c.Check(&v.sv) {
			return false, nil
		}
	}
	return true, nil
}

// normalizeVersion replaces every dot in a version string with an
// underscore for use as a path segment, per the cache's directory layout.
func normalizeVersion(s string) string {
	return strings.ReplaceAll(s, ".", "_")
}

package solve

import (
	"fmt"
	"strings"
)

// Dep identifies a single library at a single version. It is comparable and
// safe to use as a map key: Version embeds only comparable value fields, so
// two Deps are the same key when their names match and their versions were
// parsed from the same string.
type Dep struct {
	Name    string
	Version Version
}

// NormalizeName lowercases name and replaces spaces with underscores, the
// form used for cache directory segments and output directory basenames.
func NormalizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

// String renders the Dep in the textual "(name, X.Y.Z)" form used as the
// cache index key. The version appears as Version.String renders it: with
// its parsed prefix if it had one; no "v" is added otherwise.
func (d Dep) String() string {
	return fmt.Sprintf("(%s, %s)", d.Name, d.Version)
}

// pathSegments returns the normalized name/version pair used to build the
// dependency's path under the clones directory.
func (d Dep) pathSegments() (name, version string) {
	return NormalizeName(d.Name), normalizeVersion(d.Version.String())
}

// destring parses the "(name, X.Y.Z)" textual form produced by Dep.String
// back into a Dep. It exists solely to let the cache index's insertion
// order be walked back to concrete Deps for eviction.
func destring(s string) (Dep, error) {
	s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	name, version, ok := strings.Cut(s, ", ")
	if !ok {
		return Dep{}, fmt.Errorf("malformed dep key %q", s)
	}

	v, err := ParseVersion(version)
	if err != nil {
		return Dep{}, err
	}
	return Dep{Name: name, Version: v}, nil
}

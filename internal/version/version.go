// Package version orders scaffolding version identifiers and describes the
// half-open ranges codemods apply to.
//
// Identifiers are semantic versions parsed leniently ("1.2", "v1.2.3" and
// "3.2.0-beta.1" are all accepted). Ordering follows semver precedence, so
// prereleases sort before their release.
package version

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ErrInvalid is returned for identifiers that are not semantic versions.
var ErrInvalid = errors.New("invalid version")

// Version is a single point in the ordered version space.
type Version = semver.Version

// Parse parses a version identifier.
func Parse(s string) (*Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty identifier", ErrInvalid)
	}
	v, err := semver.NewVersion(s)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalid, s, err)
	}
	return v, nil
}

// MustParse is like Parse but panics on error. Intended for static
// declarations such as bundled codemod ranges.
func MustParse(s string) *Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Compare returns -1, 0 or 1 when a sorts before, equal to or after b.
func Compare(a, b *Version) int {
	return a.Compare(b)
}

// Sort orders versions ascending in place.
func Sort(vs []*Version) {
	sort.SliceStable(vs, func(i, j int) bool {
		return vs[i].LessThan(vs[j])
	})
}

// Latest returns the highest version. Prereleases are only considered when
// includePrerelease is set or no stable version exists.
func Latest(vs []*Version, includePrerelease bool) *Version {
	var best, bestPre *Version
	for _, v := range vs {
		if v.Prerelease() != "" {
			if bestPre == nil || v.GreaterThan(bestPre) {
				bestPre = v
			}
			continue
		}
		if best == nil || v.GreaterThan(best) {
			best = v
		}
	}
	if includePrerelease && bestPre != nil && (best == nil || bestPre.GreaterThan(best)) {
		return bestPre
	}
	if best == nil {
		return bestPre
	}
	return best
}

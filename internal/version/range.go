package version

import (
	"fmt"
	"strings"
)

// Range is a half-open interval [Lower, Upper) over the version space.
// A nil bound is unbounded on that side.
type Range struct {
	Lower *Version // inclusive
	Upper *Version // exclusive
}

// ParseRange builds a range from textual bounds. Empty strings mean unbounded.
func ParseRange(lower, upper string) (Range, error) {
	var r Range
	if strings.TrimSpace(lower) != "" {
		v, err := Parse(lower)
		if err != nil {
			return Range{}, fmt.Errorf("lower bound: %w", err)
		}
		r.Lower = v
	}
	if strings.TrimSpace(upper) != "" {
		v, err := Parse(upper)
		if err != nil {
			return Range{}, fmt.Errorf("upper bound: %w", err)
		}
		r.Upper = v
	}
	if r.Lower != nil && r.Upper != nil && !r.Lower.LessThan(r.Upper) {
		return Range{}, fmt.Errorf("%w: empty range %s", ErrInvalid, r)
	}
	return r, nil
}

// MustRange is like ParseRange but panics on error.
func MustRange(lower, upper string) Range {
	r, err := ParseRange(lower, upper)
	if err != nil {
		panic(err)
	}
	return r
}

// Contains reports whether v lies inside the range.
func (r Range) Contains(v *Version) bool {
	if r.Lower != nil && v.LessThan(r.Lower) {
		return false
	}
	if r.Upper != nil && !v.LessThan(r.Upper) {
		return false
	}
	return true
}

// Crosses reports whether the range intersects the update interval (from, to].
//
// The version space is treated as dense: [L, U) meets (F, T] exactly when
// L <= T and U > F.
func (r Range) Crosses(from, to *Version) bool {
	if !from.LessThan(to) {
		return false
	}
	if r.Lower != nil && r.Lower.GreaterThan(to) {
		return false
	}
	if r.Upper != nil && !r.Upper.GreaterThan(from) {
		return false
	}
	return true
}

// CompareLower orders ranges by lower bound; an unbounded lower bound sorts first.
func (r Range) CompareLower(o Range) int {
	switch {
	case r.Lower == nil && o.Lower == nil:
		return 0
	case r.Lower == nil:
		return -1
	case o.Lower == nil:
		return 1
	}
	return r.Lower.Compare(o.Lower)
}

func (r Range) String() string {
	lower, upper := "*", "*"
	if r.Lower != nil {
		lower = r.Lower.String()
	}
	if r.Upper != nil {
		upper = r.Upper.String()
	}
	return fmt.Sprintf("[%s, %s)", lower, upper)
}

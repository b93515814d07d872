package merge

import (
	"fmt"
	"strings"
)

// Policy decides how a conflict between local edits and an incoming change
// is resolved.
type Policy int

const (
	// Manual leaves conflict markers (or the local file) in place and flags
	// the path as conflicted.
	Manual Policy = iota
	// PreferTarget takes the incoming scaffolding, discarding the local edit.
	PreferTarget
	// PreferWorking keeps the local edit, discarding the incoming change.
	PreferWorking
)

func (p Policy) String() string {
	switch p {
	case Manual:
		return "manual"
	case PreferTarget:
		return "preferTarget"
	case PreferWorking:
		return "preferWorking"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy accepts the policy names as printed by String, case-insensitively,
// plus the dashed forms prefer-target and prefer-working. Empty means Manual.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "-", "")) {
	case "", "manual":
		return Manual, nil
	case "prefertarget", "theirs":
		return PreferTarget, nil
	case "preferworking", "ours":
		return PreferWorking, nil
	default:
		return Manual, fmt.Errorf("unknown resolution policy %q (want manual, preferTarget or preferWorking)", s)
	}
}

// side maps an automatic policy to the side it keeps.
func (p Policy) side() Side {
	if p == PreferWorking {
		return Working
	}
	return Target
}

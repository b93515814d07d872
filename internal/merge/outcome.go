package merge

import (
	"sort"

	"github.com/simonhull/firebird-suite/molt/internal/patch"
)

// Status classifies how a path came out of reconciliation.
type Status int

const (
	Clean Status = iota
	AutoResolved
	Conflicted
)

func (s Status) String() string {
	switch s {
	case Clean:
		return "clean"
	case AutoResolved:
		return "auto-resolved"
	case Conflicted:
		return "conflicted"
	default:
		return "unknown"
	}
}

// Conflict reasons.
const (
	ReasonOverlappingEdit    = "overlapping edit"
	ReasonUnexpectedFile     = "added upstream, different local file exists"
	ReasonModifiedLocally    = "deleted upstream, modified locally"
	ReasonDeletedLocally     = "modified upstream, deleted locally"
	ReasonRenamedDeleted     = "renamed upstream, deleted locally"
	ReasonDestinationExists  = "renamed upstream, destination exists locally"
	ReasonBinaryBothModified = "binary file modified on both sides"
	ReasonPathBlocked        = "path blocked by a local directory or file"
)

// Outcome is the reconciliation result for one path.
type Outcome struct {
	Status Status
	// Strategy is the policy that settled an AutoResolved path.
	Strategy Policy
	// Reason names the conflict class for AutoResolved and Conflicted paths.
	Reason string
	// Kind is the change op that produced the outcome.
	Kind patch.Kind
	// Changed reports whether the working tree was written at this path.
	Changed bool
}

func clean(kind patch.Kind, changed bool) Outcome {
	return Outcome{Status: Clean, Kind: kind, Changed: changed}
}

// Outcomes maps every path touched by a change op to its outcome.
type Outcomes map[string]Outcome

// record stores o for path, keeping the more severe status when the path
// already has one (a rename source reused by an add, for instance).
func (oc Outcomes) record(path string, o Outcome) {
	if prev, ok := oc[path]; ok {
		o.Changed = o.Changed || prev.Changed
		if prev.Status > o.Status {
			prev.Changed = o.Changed
			oc[path] = prev
			return
		}
	}
	oc[path] = o
}

// Paths returns all paths, sorted.
func (oc Outcomes) Paths() []string {
	paths := make([]string, 0, len(oc))
	for p := range oc {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Changed returns the paths whose working-tree state was written, sorted.
func (oc Outcomes) Changed() []string {
	var paths []string
	for _, p := range oc.Paths() {
		if oc[p].Changed {
			paths = append(paths, p)
		}
	}
	return paths
}

// Conflicts maps each Conflicted path to its reason.
func (oc Outcomes) Conflicts() map[string]string {
	conflicts := make(map[string]string)
	for p, o := range oc {
		if o.Status == Conflicted {
			conflicts[p] = o.Reason
		}
	}
	return conflicts
}

// Count returns the number of paths with the given status.
func (oc Outcomes) Count(s Status) int {
	n := 0
	for _, o := range oc {
		if o.Status == s {
			n++
		}
	}
	return n
}

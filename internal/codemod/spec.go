// Package codemod sequences source-transforming migrations over the version
// range an update crosses.
//
// Specs are selected by range, offered in ascending range order, confirmed
// through an injected Confirmer and applied one at a time. A failing codemod
// is recorded and the run continues; every transform must be idempotent.
package codemod

import (
	"context"
	"fmt"
	"sort"

	"github.com/simonhull/firebird-suite/molt/internal/fstree"
	"github.com/simonhull/firebird-suite/molt/internal/version"
	"github.com/simonhull/firebird-suite/molt/internal/workspace"
)

// Spec is one codemod.
type Spec struct {
	ID          string
	Description string
	// Range is the scaffolding versions the codemod migrates across.
	Range version.Range
	// Confirm asks the user before applying.
	Confirm   bool
	Transform Transform
}

func (s Spec) String() string {
	return fmt.Sprintf("%s %s", s.ID, s.Range)
}

// Step is the version interval of the running update.
type Step struct {
	From *version.Version
	To   *version.Version
}

// Workspace is the working tree a codemod transforms.
type Workspace interface {
	Root() string
	Load(opts fstree.LoadOptions) (*fstree.Tree, error)
	Apply(ctx context.Context, ops []workspace.Operation) error
}

// Transform applies a codemod to a workspace and returns the touched paths.
type Transform interface {
	Apply(ctx context.Context, ws Workspace, step Step) ([]string, error)
}

// Select returns the specs whose range intersects (from, to], in ascending
// range order. Specs with equal lower bounds keep the narrower range first,
// then their input order.
func Select(specs []Spec, from, to *version.Version) []Spec {
	var eligible []Spec
	for _, s := range specs {
		if s.Range.Crosses(from, to) {
			eligible = append(eligible, s)
		}
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		ri, rj := eligible[i].Range, eligible[j].Range
		if c := ri.CompareLower(rj); c != 0 {
			return c < 0
		}
		return compareUpper(ri, rj) < 0
	})
	return eligible
}

// compareUpper orders ranges by upper bound; an unbounded upper bound sorts last.
func compareUpper(a, b version.Range) int {
	switch {
	case a.Upper == nil && b.Upper == nil:
		return 0
	case a.Upper == nil:
		return 1
	case b.Upper == nil:
		return -1
	}
	return a.Upper.Compare(b.Upper)
}

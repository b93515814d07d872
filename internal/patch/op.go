package patch

import (
	"fmt"

	"github.com/simonhull/firebird-suite/molt/internal/fstree"
)

// Kind is the type of a file-level change.
type Kind int

const (
	Add Kind = iota
	Delete
	Modify
	Rename
)

func (k Kind) String() string {
	switch k {
	case Add:
		return "add"
	case Delete:
		return "delete"
	case Modify:
		return "modify"
	case Rename:
		return "rename"
	default:
		return "unknown"
	}
}

// rank orders kinds sharing a sort key; renames go first so that a path
// vacated by a rename is free before anything else touches it.
func (k Kind) rank() int {
	switch k {
	case Rename:
		return 0
	case Delete:
		return 1
	case Modify:
		return 2
	default:
		return 3
	}
}

// ChangeOp is one file-level change between the base and target trees.
//
//   - Add: Path, Target
//   - Delete: Path, Base
//   - Modify: Path, Base, Target, Patch
//   - Rename: OldPath, Path (new), Base, Target, Patch (nil when content is unchanged)
type ChangeOp struct {
	Kind       Kind
	Path       string
	OldPath    string
	Base       *fstree.File
	Target     *fstree.File
	Patch      *Patch
	Similarity float64
}

// SortKey is the path the op is ordered by: OldPath for renames, Path otherwise.
func (op ChangeOp) SortKey() string {
	if op.Kind == Rename {
		return op.OldPath
	}
	return op.Path
}

// Paths returns every path the op touches.
func (op ChangeOp) Paths() []string {
	if op.Kind == Rename {
		return []string{op.OldPath, op.Path}
	}
	return []string{op.Path}
}

func (op ChangeOp) String() string {
	switch op.Kind {
	case Rename:
		return fmt.Sprintf("rename %s => %s (%.0f%%)", op.OldPath, op.Path, op.Similarity*100)
	case Modify:
		added, removed := op.Patch.Stats()
		if op.Patch != nil && op.Patch.Binary {
			return fmt.Sprintf("modify %s (binary)", op.Path)
		}
		return fmt.Sprintf("modify %s (+%d -%d)", op.Path, added, removed)
	default:
		return fmt.Sprintf("%s %s", op.Kind, op.Path)
	}
}

package patch

import "github.com/simonhull/firebird-suite/molt/internal/fstree"

// Schedule orders ops so that paths are vacated before anything is written
// into their place: deletes, then renames, then modifies, then adds. A rename
// whose destination lies on another rename's source waits for it. Order
// within each group is kept.
func Schedule(ops []ChangeOp) []ChangeOp {
	phases := []Kind{Delete, Rename, Modify, Add}
	out := make([]ChangeOp, 0, len(ops))
	for _, kind := range phases {
		var group []ChangeOp
		for _, op := range ops {
			if op.Kind == kind {
				group = append(group, op)
			}
		}
		if kind == Rename {
			group = orderRenames(group)
		}
		out = append(out, group...)
	}

	// Unknown kinds go last and fail there
	for _, op := range ops {
		switch op.Kind {
		case Delete, Rename, Modify, Add:
		default:
			out = append(out, op)
		}
	}
	return out
}

func orderRenames(pending []ChangeOp) []ChangeOp {
	out := make([]ChangeOp, 0, len(pending))
	for len(pending) > 0 {
		var waiting []ChangeOp
		for _, op := range pending {
			if waitsOn(op, pending) {
				waiting = append(waiting, op)
			} else {
				out = append(out, op)
			}
		}
		if len(waiting) == len(pending) {
			// A cycle; the working tree reports whatever stays blocked
			return append(out, waiting...)
		}
		pending = waiting
	}
	return out
}

func waitsOn(op ChangeOp, pending []ChangeOp) bool {
	for _, other := range pending {
		if other.OldPath == op.OldPath {
			continue
		}
		if other.OldPath == op.Path || fstree.Nested(other.OldPath, op.Path) {
			return true
		}
	}
	return false
}

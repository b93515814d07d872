// Package patch computes the structural difference between two file trees as
// an ordered sequence of file-level change operations.
//
// Text modifications carry line edits computed with the Myers algorithm;
// binary content and symbolic links carry a full-replacement marker. A
// deleted and an added file whose content is similar enough are collapsed
// into a single Rename so the move can later be merged as one unit.
package patch

import (
	"sort"

	"github.com/simonhull/firebird-suite/molt/internal/fstree"
)

// DefaultRenameThreshold is the minimum line similarity for rename detection.
const DefaultRenameThreshold = 0.9

// Options configures Diff.
type Options struct {
	// RenameThreshold is the similarity (0, 1] a delete/add pair needs to be
	// collapsed into a rename. Default: DefaultRenameThreshold.
	RenameThreshold float64

	// DisableRenames reports renames as independent delete + add.
	DisableRenames bool
}

// Diff computes the change operations turning base into target.
//
// The result is deterministic: ops are ordered lexicographically by path,
// renames by their old path, and a rename sorts before any other op sharing
// its key.
func Diff(base, target *fstree.Tree, opts Options) []ChangeOp {
	if opts.RenameThreshold <= 0 || opts.RenameThreshold > 1 {
		opts.RenameThreshold = DefaultRenameThreshold
	}

	dg := newDiffer()

	var ops []ChangeOp
	var deleted, added []string

	for _, p := range base.Paths() {
		bf, _ := base.Get(p)
		tf, ok := target.Get(p)
		if !ok {
			deleted = append(deleted, p)
			continue
		}
		if bf.Equal(tf) {
			continue
		}
		ops = append(ops, ChangeOp{
			Kind:   Modify,
			Path:   p,
			Base:   bf,
			Target: tf,
			Patch:  dg.filePatch(bf, tf),
		})
	}

	for _, p := range target.Paths() {
		if !base.Has(p) {
			added = append(added, p)
		}
	}

	if !opts.DisableRenames {
		renames := detectRenames(dg, base, target, deleted, added, opts.RenameThreshold)
		for _, r := range renames {
			bf, _ := base.Get(r.oldPath)
			tf, _ := target.Get(r.newPath)
			var p *Patch
			if !bf.Equal(tf) {
				p = dg.filePatch(bf, tf)
			}
			ops = append(ops, ChangeOp{
				Kind:       Rename,
				OldPath:    r.oldPath,
				Path:       r.newPath,
				Base:       bf,
				Target:     tf,
				Patch:      p,
				Similarity: r.score,
			})
		}
		deleted = without(deleted, renames, func(r renamePair) string { return r.oldPath })
		added = without(added, renames, func(r renamePair) string { return r.newPath })
	}

	for _, p := range deleted {
		bf, _ := base.Get(p)
		ops = append(ops, ChangeOp{Kind: Delete, Path: p, Base: bf})
	}
	for _, p := range added {
		tf, _ := target.Get(p)
		ops = append(ops, ChangeOp{Kind: Add, Path: p, Target: tf})
	}

	SortOps(ops)
	return ops
}

// SortOps orders ops deterministically (see Diff).
func SortOps(ops []ChangeOp) {
	sort.SliceStable(ops, func(i, j int) bool {
		ki, kj := ops[i].SortKey(), ops[j].SortKey()
		if ki != kj {
			return ki < kj
		}
		if ops[i].Kind.rank() != ops[j].Kind.rank() {
			return ops[i].Kind.rank() < ops[j].Kind.rank()
		}
		return ops[i].Path < ops[j].Path
	})
}

// FilePatch computes the patch between two versions of a file.
func FilePatch(old, newer *fstree.File) *Patch {
	return newDiffer().filePatch(old, newer)
}

func (dg *differ) filePatch(old, newer *fstree.File) *Patch {
	p := &Patch{ModeChanged: old.Executable != newer.Executable}
	if old.SameContent(newer) {
		return p
	}
	if old.IsBinary() || newer.IsBinary() {
		p.Binary = true
		return p
	}
	p.old = SplitLines(old.Data)
	p.Edits = dg.edits(p.old, SplitLines(newer.Data))
	return p
}

func without(paths []string, renames []renamePair, key func(renamePair) string) []string {
	used := make(map[string]bool, len(renames))
	for _, r := range renames {
		used[key(r)] = true
	}
	out := paths[:0:0]
	for _, p := range paths {
		if !used[p] {
			out = append(out, p)
		}
	}
	return out
}

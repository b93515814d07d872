package patch

import (
	"sort"

	"github.com/simonhull/firebird-suite/molt/internal/fstree"
)

type renamePair struct {
	oldPath string
	newPath string
	score   float64
}

// Similarity scores how much of two files' content is shared, as the Dice
// coefficient over lines: 2*common / (len(a)+len(b)). Binary content and
// symbolic links only match when identical. Empty files never match.
func Similarity(a, b *fstree.File) float64 {
	return newDiffer().similarity(a, b)
}

func (dg *differ) similarity(a, b *fstree.File) float64 {
	if a.IsBinary() || b.IsBinary() {
		if len(a.Data) > 0 && a.SameContent(b) {
			return 1
		}
		if a.Symlink != "" && a.SameContent(b) {
			return 1
		}
		return 0
	}

	la, lb := SplitLines(a.Data), SplitLines(b.Data)
	if len(la) == 0 || len(lb) == 0 {
		return 0
	}
	common := dg.commonLines(la, lb)
	return float64(2*common) / float64(len(la)+len(lb))
}

// detectRenames pairs deleted and added paths one-to-one, best score first.
func detectRenames(dg *differ, base, target *fstree.Tree, deleted, added []string, threshold float64) []renamePair {
	if len(deleted) == 0 || len(added) == 0 {
		return nil
	}

	var candidates []renamePair
	for _, d := range deleted {
		bf, _ := base.Get(d)
		bl := lineCount(bf)
		for _, a := range added {
			tf, _ := target.Get(a)

			// Upper bound of the score from line counts alone
			tl := lineCount(tf)
			if bl+tl > 0 && float64(2*min(bl, tl))/float64(bl+tl) < threshold {
				continue
			}

			score := dg.similarity(bf, tf)
			if score >= threshold {
				candidates = append(candidates, renamePair{oldPath: d, newPath: a, score: score})
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		ci, cj := candidates[i], candidates[j]
		if ci.score != cj.score {
			return ci.score > cj.score
		}
		if ci.oldPath != cj.oldPath {
			return ci.oldPath < cj.oldPath
		}
		return ci.newPath < cj.newPath
	})

	usedOld := make(map[string]bool)
	usedNew := make(map[string]bool)
	var pairs []renamePair
	for _, c := range candidates {
		if usedOld[c.oldPath] || usedNew[c.newPath] {
			continue
		}
		usedOld[c.oldPath] = true
		usedNew[c.newPath] = true
		pairs = append(pairs, c)
	}

	return pairs
}

func lineCount(f *fstree.File) int {
	if f.IsBinary() {
		return 0
	}
	return len(SplitLines(f.Data))
}

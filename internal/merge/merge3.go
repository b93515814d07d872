package merge

import (
	"bytes"
	"strings"

	"github.com/simonhull/firebird-suite/molt/internal/patch"
)

// Conflict marker lines. The working side is listed first.
const (
	MarkerWorking   = "<<<<<<< working"
	MarkerSeparator = "======="
	MarkerTarget    = ">>>>>>> target"
)

// Side is one of the two descendants in a three-way merge.
type Side int

const (
	Working Side = iota
	Target
)

// Region is a run of the merged file. Stable regions carry the agreed lines
// in Lines; conflicted regions carry both variants and the base they replace.
type Region struct {
	Conflict bool
	Lines    []string

	Base    []string
	Working []string
	Target  []string
}

// Result is the outcome of a line-level three-way merge.
type Result struct {
	Regions   []Region
	Conflicts int
}

// Clean reports whether every region merged without conflict.
func (r Result) Clean() bool {
	return r.Conflicts == 0
}

// Markers renders the merge, bracketing each conflicted region with
// conflict markers.
func (r Result) Markers() []byte {
	var buf bytes.Buffer
	for _, reg := range r.Regions {
		if !reg.Conflict {
			writeLines(&buf, reg.Lines)
			continue
		}
		buf.WriteString(MarkerWorking + "\n")
		writeTerminated(&buf, reg.Working)
		buf.WriteString(MarkerSeparator + "\n")
		writeTerminated(&buf, reg.Target)
		buf.WriteString(MarkerTarget + "\n")
	}
	return buf.Bytes()
}

// Prefer renders the merge taking the given side for every conflicted region.
func (r Result) Prefer(side Side) []byte {
	var buf bytes.Buffer
	for _, reg := range r.Regions {
		switch {
		case !reg.Conflict:
			writeLines(&buf, reg.Lines)
		case side == Working:
			writeLines(&buf, reg.Working)
		default:
			writeLines(&buf, reg.Target)
		}
	}
	return buf.Bytes()
}

func writeLines(buf *bytes.Buffer, lines []string) {
	for _, l := range lines {
		buf.WriteString(l)
	}
}

// writeTerminated writes lines so that a following marker starts on its own line.
func writeTerminated(buf *bytes.Buffer, lines []string) {
	writeLines(buf, lines)
	if n := len(lines); n > 0 && !strings.HasSuffix(lines[n-1], "\n") {
		buf.WriteByte('\n')
	}
}

// sideEdit is an edit against base tagged with the side that made it.
type sideEdit struct {
	patch.Edit
	side Side
}

// Merge3 merges the changes base→local and base→target line by line.
//
// Changes from both sides that overlap or touch on base are one region;
// such a region conflicts unless both sides produced identical lines.
func Merge3(base, local, target []byte) Result {
	baseLines := patch.SplitLines(base)
	localEdits := patch.Edits(baseLines, patch.SplitLines(local))
	targetEdits := patch.Edits(baseLines, patch.SplitLines(target))

	var res Result
	pos := 0
	li, ti := 0, 0

	stable := func(end int) {
		if end > pos {
			res.Regions = append(res.Regions, Region{Lines: baseLines[pos:end]})
		}
	}

	for li < len(localEdits) || ti < len(targetEdits) {
		// Seed the cluster with the edit starting first
		var cluster []sideEdit
		take := func() sideEdit {
			if ti >= len(targetEdits) || (li < len(localEdits) && localEdits[li].OldStart <= targetEdits[ti].OldStart) {
				li++
				return sideEdit{localEdits[li-1], Working}
			}
			ti++
			return sideEdit{targetEdits[ti-1], Target}
		}

		first := take()
		cluster = append(cluster, first)
		start, end := first.OldStart, first.OldEnd

		for {
			if li < len(localEdits) && localEdits[li].OldStart <= end {
				e := localEdits[li]
				li++
				cluster = append(cluster, sideEdit{e, Working})
				end = max(end, e.OldEnd)
				continue
			}
			if ti < len(targetEdits) && targetEdits[ti].OldStart <= end {
				e := targetEdits[ti]
				ti++
				cluster = append(cluster, sideEdit{e, Target})
				end = max(end, e.OldEnd)
				continue
			}
			break
		}

		stable(start)
		pos = end

		working, wok := sideLines(baseLines, start, end, cluster, Working)
		incoming, tok := sideLines(baseLines, start, end, cluster, Target)

		switch {
		case !wok:
			res.Regions = append(res.Regions, Region{Lines: incoming})
		case !tok:
			res.Regions = append(res.Regions, Region{Lines: working})
		case equalLines(working, incoming):
			res.Regions = append(res.Regions, Region{Lines: working})
		default:
			res.Regions = append(res.Regions, Region{
				Conflict: true,
				Base:     baseLines[start:end],
				Working:  working,
				Target:   incoming,
			})
			res.Conflicts++
		}
	}
	stable(len(baseLines))

	return res
}

// sideLines rebuilds what one side made of base[start:end). It reports false
// when that side has no edit in the cluster.
func sideLines(base []string, start, end int, cluster []sideEdit, side Side) ([]string, bool) {
	var edits []patch.Edit
	for _, e := range cluster {
		if e.side == side {
			edits = append(edits, e.Edit)
		}
	}
	if len(edits) == 0 {
		return nil, false
	}

	lines := []string{}
	pos := start
	for _, e := range edits {
		lines = append(lines, base[pos:e.OldStart]...)
		lines = append(lines, e.Lines...)
		pos = e.OldEnd
	}
	lines = append(lines, base[pos:end]...)
	return lines, true
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

package patch

import (
	"fmt"
	"strings"
)

// Edit replaces the old lines [OldStart, OldEnd) with Lines.
// Indices are 0-based; OldStart == OldEnd is a pure insertion.
type Edit struct {
	OldStart int
	OldEnd   int
	Lines    []string
}

// Patch is the textual difference between two versions of one file.
//
// Text patches carry line edits against the old content. Binary patches
// (either side binary or a symbolic link) carry a full replacement marker and
// no edits.
type Patch struct {
	Edits  []Edit
	Binary bool

	// ModeChanged records an executable-bit change.
	ModeChanged bool

	old []string
}

// SplitLines splits content into lines, each keeping its "\n" terminator.
// A final line without terminator is kept as is, so joining the result
// reproduces the input byte for byte.
func SplitLines(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	s := string(data)
	lines := make([]string, 0, strings.Count(s, "\n")+1)
	for len(s) > 0 {
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			lines = append(lines, s)
			break
		}
		lines = append(lines, s[:i+1])
		s = s[i+1:]
	}
	return lines
}

// JoinLines is the inverse of SplitLines.
func JoinLines(lines []string) []byte {
	return []byte(strings.Join(lines, ""))
}

// NewTextPatch computes a line patch from old to newer.
func NewTextPatch(old, newer []byte) *Patch {
	oldLines := SplitLines(old)
	return &Patch{
		Edits: Edits(oldLines, SplitLines(newer)),
		old:   oldLines,
	}
}

// Empty reports whether the patch changes nothing.
func (p *Patch) Empty() bool {
	return p == nil || (!p.Binary && !p.ModeChanged && len(p.Edits) == 0)
}

// Stats returns the number of added and removed lines.
func (p *Patch) Stats() (added, removed int) {
	if p == nil {
		return 0, 0
	}
	for _, e := range p.Edits {
		added += len(e.Lines)
		removed += e.OldEnd - e.OldStart
	}
	return added, removed
}

// ApplyLines applies the edits to old lines.
func ApplyLines(old []string, edits []Edit) ([]string, error) {
	result := make([]string, 0, len(old))
	pos := 0
	for i, e := range edits {
		if e.OldStart < pos || e.OldEnd < e.OldStart || e.OldEnd > len(old) {
			return nil, fmt.Errorf("edit %d [%d,%d) does not fit %d lines", i, e.OldStart, e.OldEnd, len(old))
		}
		result = append(result, old[pos:e.OldStart]...)
		result = append(result, e.Lines...)
		pos = e.OldEnd
	}
	result = append(result, old[pos:]...)
	return result, nil
}

// Apply applies a text patch to old content. Binary patches cannot be applied
// line-wise and return an error.
func (p *Patch) Apply(old []byte) ([]byte, error) {
	if p.Binary {
		return nil, fmt.Errorf("cannot apply binary patch line-wise")
	}
	lines, err := ApplyLines(SplitLines(old), p.Edits)
	if err != nil {
		return nil, err
	}
	return JoinLines(lines), nil
}

// HunkLine is one line of a unified hunk; Op is ' ', '-' or '+'.
type HunkLine struct {
	Op   byte
	Text string
}

// Hunk is a contiguous block of changes with surrounding context.
// Starts are 1-based as in unified diffs.
type Hunk struct {
	OldStart int
	OldLines int
	NewStart int
	NewLines int
	Lines    []HunkLine
}

// Header formats the "@@ -a,b +c,d @@" line.
func (h Hunk) Header() string {
	oldStart, newStart := h.OldStart, h.NewStart
	if h.OldLines == 0 {
		oldStart--
	}
	if h.NewLines == 0 {
		newStart--
	}
	return fmt.Sprintf("@@ -%d,%d +%d,%d @@", oldStart, h.OldLines, newStart, h.NewLines)
}

// Hunks groups the edits into unified hunks with the given context lines.
func (p *Patch) Hunks(context int) []Hunk {
	if p == nil || p.Binary || len(p.Edits) == 0 {
		return nil
	}
	if context < 0 {
		context = 0
	}

	// Group edits whose context windows touch
	var groups [][]Edit
	for _, e := range p.Edits {
		n := len(groups)
		if n > 0 {
			last := groups[n-1][len(groups[n-1])-1]
			if e.OldStart-last.OldEnd <= 2*context {
				groups[n-1] = append(groups[n-1], e)
				continue
			}
		}
		groups = append(groups, []Edit{e})
	}

	var hunks []Hunk
	delta := 0 // new index minus old index before the current group

	for _, g := range groups {
		start := g[0].OldStart - context
		if start < 0 {
			start = 0
		}
		end := g[len(g)-1].OldEnd + context
		if end > len(p.old) {
			end = len(p.old)
		}

		h := Hunk{OldStart: start + 1, NewStart: start + delta + 1}
		pos := start
		for _, e := range g {
			for ; pos < e.OldStart; pos++ {
				h.Lines = append(h.Lines, HunkLine{Op: ' ', Text: p.old[pos]})
			}
			for ; pos < e.OldEnd; pos++ {
				h.Lines = append(h.Lines, HunkLine{Op: '-', Text: p.old[pos]})
			}
			for _, l := range e.Lines {
				h.Lines = append(h.Lines, HunkLine{Op: '+', Text: l})
			}
			delta += len(e.Lines) - (e.OldEnd - e.OldStart)
		}
		for ; pos < end; pos++ {
			h.Lines = append(h.Lines, HunkLine{Op: ' ', Text: p.old[pos]})
		}

		for _, l := range h.Lines {
			if l.Op != '+' {
				h.OldLines++
			}
			if l.Op != '-' {
				h.NewLines++
			}
		}
		hunks = append(hunks, h)
	}

	return hunks
}

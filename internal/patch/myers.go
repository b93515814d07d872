package patch

// operation is the kind of a single line in an edit script.
type operation int

const (
	opUnchanged operation = iota
	opAdded
	opRemoved
)

// diffLine is one line of an edit script with its position on each side.
type diffLine struct {
	oldIndex int // 0-based index in old (-1 if added)
	newIndex int // 0-based index in new (-1 if removed)
	op       operation
}

// maxEditCost bounds the edit distance searched before a pair of line
// sequences is treated as a whole replacement. The backtracking trace grows
// with its square.
const maxEditCost = 1000

// differ computes shortest edit scripts, reusing its buffers across calls.
type differ struct {
	v []int
	// trace holds the window of v saved before each step d, diagonals
	// -d-1..d+1, starting at trace[marks[d]].
	trace []int
	marks []int
}

func newDiffer() *differ {
	return &differ{}
}

// editScript implements the Myers diff algorithm ("An O(ND) Difference
// Algorithm and Its Variations", 1986) over lines. It reports false when the
// edit distance exceeds maxEditCost.
func (dg *differ) editScript(old, newer []string) ([]diffLine, bool) {
	n := len(old)
	m := len(newer)
	maxD := n + m
	if maxD > maxEditCost {
		maxD = maxEditCost
	}
	offset := maxD + 1

	size := 2*maxD + 3
	if cap(dg.v) < size {
		dg.v = make([]int, size)
	}
	dg.v = dg.v[:size]
	for i := range dg.v {
		dg.v[i] = 0
	}
	dg.trace = dg.trace[:0]
	dg.marks = dg.marks[:0]

	// Forward pass: find shortest edit script
	found := false
	for d := 0; d <= maxD && !found; d++ {
		dg.marks = append(dg.marks, len(dg.trace))
		dg.trace = append(dg.trace, dg.v[offset-d-1:offset+d+2]...)

		for k := -d; k <= d; k += 2 {
			var x int

			// Move down (insertion) from k+1 or right (deletion) from k-1
			if k == -d || (k != d && dg.v[offset+k-1] < dg.v[offset+k+1]) {
				x = dg.v[offset+k+1]
			} else {
				x = dg.v[offset+k-1] + 1
			}

			y := x - k

			// Follow diagonal as far as possible (matching lines)
			for x < n && y < m && old[x] == newer[y] {
				x++
				y++
			}

			dg.v[offset+k] = x

			if x >= n && y >= m {
				found = true
				break
			}
		}
	}
	if !found {
		return nil, false
	}

	// Backtrack to build the edit script (collected in reverse)
	var result []diffLine
	x, y := n, m

	for d := len(dg.marks) - 1; d >= 0; d-- {
		saved := dg.trace[dg.marks[d] : dg.marks[d]+2*d+3]
		v := func(k int) int { return saved[k+d+1] }
		k := x - y

		var prevK int
		if k == -d || (k != d && v(k-1) < v(k+1)) {
			prevK = k + 1
		} else {
			prevK = k - 1
		}

		prevX := v(prevK)
		prevY := prevX - prevK

		for x > prevX && y > prevY {
			x--
			y--
			result = append(result, diffLine{oldIndex: x, newIndex: y, op: opUnchanged})
		}

		if d > 0 {
			if x == prevX {
				y--
				result = append(result, diffLine{oldIndex: -1, newIndex: y, op: opAdded})
			} else {
				x--
				result = append(result, diffLine{oldIndex: x, newIndex: -1, op: opRemoved})
			}
		}
	}

	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}

	return result, true
}

// Edits computes the minimal line edits turning old into newer.
func Edits(old, newer []string) []Edit {
	return newDiffer().edits(old, newer)
}

func (dg *differ) edits(old, newer []string) []Edit {
	// Trim common prefix and suffix; Myers only sees the changed middle.
	prefix := 0
	for prefix < len(old) && prefix < len(newer) && old[prefix] == newer[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(old)-prefix && suffix < len(newer)-prefix &&
		old[len(old)-1-suffix] == newer[len(newer)-1-suffix] {
		suffix++
	}

	oldMid := old[prefix : len(old)-suffix]
	newMid := newer[prefix : len(newer)-suffix]
	if len(oldMid) == 0 && len(newMid) == 0 {
		return nil
	}

	script, ok := dg.editScript(oldMid, newMid)
	if !ok {
		// Too far apart: replace the whole changed middle
		return []Edit{{
			OldStart: prefix,
			OldEnd:   prefix + len(oldMid),
			Lines:    append([]string(nil), newMid...),
		}}
	}

	var edits []Edit
	var cur *Edit
	oldPos := prefix

	for _, line := range script {
		switch line.op {
		case opUnchanged:
			if cur != nil {
				edits = append(edits, *cur)
				cur = nil
			}
			oldPos++
		case opRemoved:
			if cur == nil {
				cur = &Edit{OldStart: oldPos, OldEnd: oldPos}
			}
			cur.OldEnd++
			oldPos++
		case opAdded:
			if cur == nil {
				cur = &Edit{OldStart: oldPos, OldEnd: oldPos}
			}
			cur.Lines = append(cur.Lines, newMid[line.newIndex])
		}
	}
	if cur != nil {
		edits = append(edits, *cur)
	}

	return edits
}

// commonLines counts lines shared by an optimal alignment of a and b.
func (dg *differ) commonLines(a, b []string) int {
	removed := 0
	for _, e := range dg.edits(a, b) {
		removed += e.OldEnd - e.OldStart
	}
	return len(a) - removed
}

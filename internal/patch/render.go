package patch

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/simonhull/firebird-suite/molt/internal/fstree"
	"golang.org/x/term"
)

// RenderOptions configures how change ops are displayed.
// All fields are optional with sensible defaults.
type RenderOptions struct {
	// ContextLines is the number of unchanged lines to show around changes.
	// Default: 3
	ContextLines int

	// Color styles the output for a terminal. Plain output is a valid
	// unified diff; colored output expands tabs and truncates long lines.
	Color bool

	// TabWidth is the number of spaces each tab expands to when Color is set.
	// Default: 4
	TabWidth int

	// Width is the terminal width used for truncation. Default: detected, or 80.
	Width int
}

// Lipgloss styles for terminal output
var (
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	hunkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan")).Bold(true)
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("22"))
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("52"))
)

// Render formats ops as a unified diff.
func Render(ops []ChangeOp, opts RenderOptions) string {
	if opts.ContextLines == 0 {
		opts.ContextLines = 3
	}
	if opts.TabWidth == 0 {
		opts.TabWidth = 4
	}
	if opts.Color && opts.Width == 0 {
		opts.Width = terminalWidth()
	}

	var buf strings.Builder
	for _, op := range ops {
		renderOp(&buf, op, opts)
	}
	return buf.String()
}

func renderOp(buf *strings.Builder, op ChangeOp, opts RenderOptions) {
	header := func(s string) {
		if opts.Color {
			s = headerStyle.Render(s)
		}
		buf.WriteString(s + "\n")
	}

	oldPath, newPath := op.Path, op.Path
	if op.Kind == Rename {
		oldPath = op.OldPath
	}
	header(fmt.Sprintf("diff --molt a/%s b/%s", oldPath, newPath))

	var p *Patch
	switch op.Kind {
	case Add:
		header(fmt.Sprintf("new file mode %o", op.Target.Mode()|0100000))
		p = FilePatch(&emptyFile, op.Target)
		oldPath = ""
	case Delete:
		header(fmt.Sprintf("deleted file mode %o", op.Base.Mode()|0100000))
		p = FilePatch(op.Base, &emptyFile)
		newPath = ""
	case Rename:
		header(fmt.Sprintf("similarity index %d%%", int(op.Similarity*100)))
		header("rename from " + op.OldPath)
		header("rename to " + op.Path)
		p = op.Patch
	case Modify:
		p = op.Patch
	}

	if p == nil {
		return
	}
	if p.ModeChanged && op.Base != nil && op.Target != nil {
		header(fmt.Sprintf("old mode %o", op.Base.Mode()|0100000))
		header(fmt.Sprintf("new mode %o", op.Target.Mode()|0100000))
	}
	if p.Binary {
		buf.WriteString("Binary files differ\n")
		return
	}
	if len(p.Edits) == 0 {
		return
	}

	a, b := "a/"+oldPath, "b/"+newPath
	if oldPath == "" {
		a = "/dev/null"
	}
	if newPath == "" {
		b = "/dev/null"
	}
	header("--- " + a)
	header("+++ " + b)

	for _, h := range p.Hunks(opts.ContextLines) {
		buf.WriteString(formatHunk(h, opts))
	}
}

var emptyFile fstree.File

// formatHunk formats a hunk as a unified diff string, styled when requested.
func formatHunk(h Hunk, opts RenderOptions) string {
	var buf strings.Builder

	header := h.Header()
	if opts.Color {
		header = hunkStyle.Render(header)
	}
	buf.WriteString(header + "\n")

	for _, line := range h.Lines {
		text := line.Text
		noEOL := !strings.HasSuffix(text, "\n")
		text = strings.TrimSuffix(text, "\n")

		if opts.Color {
			text = expandTabs(text, opts.TabWidth)
			text = truncateLine(text, opts.Width-10)
		}

		formatted := string(line.Op) + text
		if opts.Color {
			switch line.Op {
			case '+':
				formatted = addedStyle.Render(formatted)
			case '-':
				formatted = removedStyle.Render(formatted)
			}
		}
		buf.WriteString(formatted + "\n")

		if noEOL {
			buf.WriteString("\\ No newline at end of file\n")
		}
	}

	return buf.String()
}

// expandTabs replaces tabs with spaces
func expandTabs(s string, tabWidth int) string {
	var buf strings.Builder
	col := 0

	for _, r := range s {
		if r == '\t' {
			spaces := tabWidth - (col % tabWidth)
			buf.WriteString(strings.Repeat(" ", spaces))
			col += spaces
		} else {
			buf.WriteRune(r)
			col++
		}
	}

	return buf.String()
}

// truncateLine truncates a line if it's too long, adding "..." indicator
func truncateLine(s string, maxWidth int) string {
	if maxWidth <= 0 {
		maxWidth = 80
	}

	if utf8.RuneCountInString(s) <= maxWidth {
		return s
	}

	runes := []rune(s)
	if maxWidth < 3 {
		return "..."[:maxWidth]
	}

	return string(runes[:maxWidth-3]) + "..."
}

// terminalWidth returns the terminal width, defaulting to 80 if unable to detect
func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

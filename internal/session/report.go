package session

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/simonhull/firebird-suite/molt/internal/codemod"
	"github.com/simonhull/firebird-suite/molt/internal/merge"
	"github.com/simonhull/firebird-suite/molt/internal/output"
	"github.com/simonhull/firebird-suite/molt/internal/patch"
	"github.com/simonhull/firebird-suite/molt/internal/version"
)

// Status is the overall result of a session.
type Status int

const (
	StatusClean Status = iota
	StatusAppliedWithConflicts
	StatusPartiallyFailed
	StatusAborted
)

func (s Status) String() string {
	switch s {
	case StatusClean:
		return "applied cleanly"
	case StatusAppliedWithConflicts:
		return "applied with conflicts"
	case StatusPartiallyFailed:
		return "partially applied"
	case StatusAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Report describes what a session did.
type Report struct {
	ID       string
	From, To *version.Version
	Status   Status
	DryRun   bool
	Policy   merge.Policy

	Ops      []patch.ChangeOp
	Outcomes merge.Outcomes
	// Touched lists every path the session wrote, the marker included.
	Touched []string

	Codemods          []codemod.Result
	CodemodsCancelled bool
	CodemodsErr       error

	// Residue lists unstaged project changes left after staging.
	Residue []string
	// Err is the error that halted the session.
	Err error
}

// Conflicts maps each conflicted path to its reason.
func (r *Report) Conflicts() map[string]string {
	return r.Outcomes.Conflicts()
}

// FailedCodemods counts codemods whose transform failed.
func (r *Report) FailedCodemods() int {
	n := 0
	for _, c := range r.Codemods {
		if c.Err != nil {
			n++
		}
	}
	return n
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	pathStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("white"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Render writes a human-readable summary. Clean paths are listed only when
// verbose is set.
func (r *Report) Render(w io.Writer, verbose bool) {
	p := output.NewPrinter(w)
	p.SetVerbose(verbose)

	title := "Update"
	if r.DryRun {
		title = "Dry run"
	}
	if r.From != nil && r.To != nil {
		title += fmt.Sprintf(" %s → %s", r.From, r.To)
	}
	fmt.Fprintln(w, headerStyle.Render(title)+" "+mutedStyle.Render("(session "+shortID(r.ID)+")"))

	r.renderFiles(p)
	r.renderCodemods(p)

	if len(r.Residue) > 0 {
		p.Warn(fmt.Sprintf("%d unstaged change(s) outside this update:", len(r.Residue)))
		for _, path := range r.Residue {
			p.Step(path)
		}
	}

	switch r.Status {
	case StatusClean:
		p.Success("Status: " + r.Status.String())
	case StatusAppliedWithConflicts:
		p.Warn(fmt.Sprintf("Status: %s (%d file(s) need manual attention)", r.Status, len(r.Conflicts())))
	default:
		p.Error("Status: " + r.Status.String())
	}
	if r.Err != nil {
		p.Error(r.Err.Error())
	}
}

func (r *Report) renderFiles(p *output.Printer) {
	if len(r.Outcomes) == 0 {
		return
	}
	p.Info(fmt.Sprintf("Files: %d clean, %d auto-resolved, %d conflicted",
		r.Outcomes.Count(merge.Clean), r.Outcomes.Count(merge.AutoResolved), r.Outcomes.Count(merge.Conflicted)))

	for _, path := range r.Outcomes.Paths() {
		o := r.Outcomes[path]
		line := fmt.Sprintf("%-8s %s", o.Kind, pathStyle.Render(path))
		switch o.Status {
		case merge.Conflicted:
			p.Step("✗ " + line + "  " + o.Reason)
		case merge.AutoResolved:
			p.Step(fmt.Sprintf("≈ %s  %s (%s)", line, o.Reason, o.Strategy))
		default:
			p.Verbose(line)
		}
	}
}

func (r *Report) renderCodemods(p *output.Printer) {
	if len(r.Codemods) == 0 && !r.CodemodsCancelled {
		return
	}
	p.Info("Codemods:")
	for _, c := range r.Codemods {
		switch {
		case c.Err != nil:
			p.Step(fmt.Sprintf("✗ %s did not complete, inspect tree: %v", c.ID, c.Err))
		case c.Declined:
			p.Step("– " + c.ID + " declined")
		case c.Ran:
			p.Step(fmt.Sprintf("✔ %s (%d file(s))", c.ID, len(c.Touched)))
		default:
			p.Step("· " + c.ID + " would be offered")
		}
	}
	if r.CodemodsCancelled {
		p.Step("remaining codemods cancelled")
	}
	if r.CodemodsErr != nil {
		p.Step("codemods stopped: " + r.CodemodsErr.Error())
	}
}

func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

// ConflictPaths returns the conflicted paths, sorted.
func (r *Report) ConflictPaths() []string {
	conflicts := r.Conflicts()
	paths := make([]string, 0, len(conflicts))
	for p := range conflicts {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

package session

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/simonhull/firebird-suite/molt/internal/codemod"
	"github.com/simonhull/firebird-suite/molt/internal/merge"
	"github.com/simonhull/firebird-suite/molt/internal/patch"
	"github.com/simonhull/firebird-suite/molt/internal/version"
)

func sampleReport() *Report {
	return &Report{
		ID:     "6f1c2a9e-0000-4000-8000-000000000000",
		From:   version.MustParse("1.0.0"),
		To:     version.MustParse("1.1.0"),
		Status: StatusAppliedWithConflicts,
		Outcomes: merge.Outcomes{
			"README.md":  {Status: merge.Conflicted, Reason: merge.ReasonOverlappingEdit, Kind: patch.Modify, Changed: true},
			"legacy.go":  {Status: merge.AutoResolved, Strategy: merge.PreferWorking, Reason: merge.ReasonModifiedLocally, Kind: patch.Delete},
			"config.yml": {Status: merge.Clean, Kind: patch.Modify, Changed: true},
		},
		Codemods: []codemod.Result{
			{ID: "air-toml-rename", Ran: true, Touched: []string{".air.conf", ".air.toml"}},
			{ID: "interface-to-any", Declined: true},
			{ID: "regen", Err: errors.New("exit status 1")},
		},
		Residue: []string{"notes.txt"},
	}
}

func TestReport_Render(t *testing.T) {
	var buf bytes.Buffer
	sampleReport().Render(&buf, false)
	out := buf.String()

	assert.Contains(t, out, "Update 1.0.0 → 1.1.0")
	assert.Contains(t, out, "(session 6f1c2a9e)")
	assert.Contains(t, out, "Files: 1 clean, 1 auto-resolved, 1 conflicted")
	assert.Contains(t, out, "README.md")
	assert.Contains(t, out, "overlapping edit")
	assert.Contains(t, out, "deleted upstream, modified locally (preferWorking)")
	assert.NotContains(t, out, "config.yml", "clean paths only in verbose mode")
	assert.Contains(t, out, "✔ air-toml-rename (2 file(s))")
	assert.Contains(t, out, "– interface-to-any declined")
	assert.Contains(t, out, "✗ regen did not complete, inspect tree: exit status 1")
	assert.Contains(t, out, "1 unstaged change(s) outside this update:")
	assert.Contains(t, out, "notes.txt")
	assert.Contains(t, out, "Status: applied with conflicts (1 file(s) need manual attention)")

	buf.Reset()
	sampleReport().Render(&buf, true)
	assert.Contains(t, buf.String(), "config.yml")
}

func TestReport_Helpers(t *testing.T) {
	r := sampleReport()
	assert.Equal(t, 1, r.FailedCodemods())
	assert.Equal(t, []string{"README.md"}, r.ConflictPaths())
	assert.Equal(t, "partially applied", StatusPartiallyFailed.String())
	assert.Equal(t, "codemods-run", StateCodemodsRun.String())
}

func TestReport_DryRunTitle(t *testing.T) {
	var buf bytes.Buffer
	(&Report{ID: "abc", DryRun: true, From: version.MustParse("1.0.0"), To: version.MustParse("2.0.0")}).Render(&buf, false)
	assert.Contains(t, buf.String(), "Dry run 1.0.0 → 2.0.0")
	assert.Contains(t, buf.String(), "Status: applied cleanly")
}

package codemod

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/simonhull/firebird-suite/molt/internal/exec"
	"github.com/simonhull/firebird-suite/molt/internal/fstree"
	"github.com/simonhull/firebird-suite/molt/internal/patch"
	"github.com/simonhull/firebird-suite/molt/internal/version"
	"github.com/simonhull/firebird-suite/molt/internal/workspace"
)

// TreeFunc edits an in-memory copy of the working tree.
type TreeFunc func(tree *fstree.Tree, step Step) error

// TreeTransform runs a TreeFunc against the loaded working tree and writes
// back the difference as one transaction.
type TreeTransform struct {
	Fn     TreeFunc
	Ignore []string
}

func (t TreeTransform) Apply(ctx context.Context, ws Workspace, step Step) ([]string, error) {
	before, err := ws.Load(fstree.LoadOptions{Ignore: t.Ignore})
	if err != nil {
		return nil, err
	}

	after := before.Clone()
	if err := t.Fn(after, step); err != nil {
		return nil, err
	}

	ops := workspace.Plan(before, after)
	if len(ops) == 0 {
		return nil, nil
	}
	if err := ws.Apply(ctx, ops); err != nil {
		return nil, err
	}
	return opPaths(ops), nil
}

func opPaths(ops []workspace.Operation) []string {
	seen := make(map[string]bool)
	var paths []string
	for _, op := range ops {
		for _, p := range op.Paths() {
			if !seen[p] {
				seen[p] = true
				paths = append(paths, p)
			}
		}
	}
	sort.Strings(paths)
	return paths
}

// CommandTransform runs a shell command in the workspace root. The command
// sees MOLT_FROM and MOLT_TO; touched paths are found by comparing the tree
// before and after the run. Output lines are tagged with Prefix.
type CommandTransform struct {
	Command string
	Prefix  string
	Spinner bool
}

func (t CommandTransform) Apply(ctx context.Context, ws Workspace, step Step) ([]string, error) {
	if strings.TrimSpace(t.Command) == "" {
		return nil, fmt.Errorf("empty command")
	}

	before, err := ws.Load(fstree.LoadOptions{})
	if err != nil {
		return nil, err
	}

	var out io.Writer = os.Stderr
	if t.Prefix != "" {
		pw := exec.NewPrefixWriter(os.Stderr, "["+t.Prefix+"] ")
		defer pw.Flush()
		out = pw
	}
	e := exec.NewExecutor(exec.Options{
		Dir:     ws.Root(),
		Stdout:  out,
		Stderr:  out,
		Env:     []string{"MOLT_FROM=" + step.From.String(), "MOLT_TO=" + step.To.String()},
		Spinner: t.Spinner,
	})
	runErr := e.Shell(ctx, t.Command)

	after, err := ws.Load(fstree.LoadOptions{})
	if err != nil {
		return nil, err
	}
	var touched []string
	for _, c := range patch.Diff(before, after, patch.Options{DisableRenames: true}) {
		touched = append(touched, c.Path)
	}
	sort.Strings(touched)
	return touched, runErr
}

// Command builds a spec that runs a shell command over [from, until).
// Either bound may be empty for an open range.
func Command(id, description, from, until, command string, confirm bool) (Spec, error) {
	if id == "" {
		return Spec{}, fmt.Errorf("codemod without id")
	}
	if strings.TrimSpace(command) == "" {
		return Spec{}, fmt.Errorf("codemod '%s' has no command", id)
	}
	r, err := version.ParseRange(from, until)
	if err != nil {
		return Spec{}, fmt.Errorf("codemod '%s': %w", id, err)
	}
	return Spec{
		ID:          id,
		Description: description,
		Range:       r,
		Confirm:     confirm,
		Transform:   CommandTransform{Command: command, Prefix: id, Spinner: true},
	}, nil
}

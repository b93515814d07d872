package workspace

import (
	"context"
	"errors"
	"fmt"

	"github.com/simonhull/firebird-suite/molt/internal/fstree"
)

// Transaction applies operations to a Dir while remembering the prior state
// of every path it touches, so the batch can be undone.
type Transaction struct {
	dir       *Dir
	saved     []savedFile
	seen      map[string]bool
	committed bool
}

// savedFile is the state of a path before the transaction first touched it.
type savedFile struct {
	path   string
	file   *fstree.File
	exists bool
}

// NewTransaction starts a transaction on d.
func NewTransaction(d *Dir) *Transaction {
	return &Transaction{dir: d, seen: make(map[string]bool)}
}

// Apply records the prior state of op's paths and executes op.
func (t *Transaction) Apply(ctx context.Context, op Operation) error {
	if t.committed {
		return fmt.Errorf("transaction already committed")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, p := range op.Paths() {
		if t.seen[p] {
			continue
		}
		f, ok, err := t.dir.ReadFile(p)
		if errors.Is(err, fstree.ErrBlocked) {
			// Nothing to restore; the operation itself reports the clash
			f, ok, err = nil, false, nil
		}
		if err != nil {
			return fmt.Errorf("snapshot %s: %w", p, err)
		}
		t.seen[p] = true
		t.saved = append(t.saved, savedFile{path: p, file: f, exists: ok})
	}

	return op.Execute(ctx, t.dir)
}

// Touched returns the paths the transaction has touched, in first-touch order.
func (t *Transaction) Touched() []string {
	paths := make([]string, len(t.saved))
	for i, s := range t.saved {
		paths[i] = s.path
	}
	return paths
}

// Commit keeps every applied change. Rollback becomes a no-op.
func (t *Transaction) Commit() {
	t.committed = true
}

// Rollback restores every touched path to its prior state, newest first.
// It is a no-op after Commit, so it is safe to defer.
func (t *Transaction) Rollback() error {
	if t.committed {
		return nil
	}

	var errs []error
	for i := len(t.saved) - 1; i >= 0; i-- {
		s := t.saved[i]
		var err error
		if s.exists {
			err = t.dir.WriteFile(s.path, s.file)
		} else {
			err = t.dir.RemoveFile(s.path)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("restore %s: %w", s.path, err))
		}
	}
	t.committed = true

	return errors.Join(errs...)
}

package workspace

import (
	"context"
	"fmt"

	"github.com/simonhull/firebird-suite/molt/internal/fstree"
	"github.com/simonhull/firebird-suite/molt/internal/patch"
)

// Operation is a single working-tree mutation that can be validated and
// executed.
//
// Validate checks that the operation can succeed without changing anything.
// Execute performs it. Description returns a human-readable line for output
// (e.g., "Write app/main.go (234 bytes)").
type Operation interface {
	Validate(ctx context.Context, d *Dir) error
	Execute(ctx context.Context, d *Dir) error
	Description() string
	Paths() []string
}

// WriteOp writes a file, replacing existing content.
type WriteOp struct {
	Path string
	File *fstree.File
}

func (op *WriteOp) Validate(ctx context.Context, d *Dir) error {
	if _, err := d.Abs(op.Path); err != nil {
		return err
	}
	if op.File == nil {
		return fmt.Errorf("no content for file: %s", op.Path)
	}
	return nil
}

func (op *WriteOp) Execute(ctx context.Context, d *Dir) error {
	return d.WriteFile(op.Path, op.File)
}

func (op *WriteOp) Description() string {
	if op.File != nil && op.File.Symlink != "" {
		return fmt.Sprintf("Link %s -> %s", op.Path, op.File.Symlink)
	}
	return fmt.Sprintf("Write %s (%d bytes)", op.Path, len(op.File.Data))
}

func (op *WriteOp) Paths() []string { return []string{op.Path} }

// DeleteOp removes a file.
type DeleteOp struct {
	Path string
}

func (op *DeleteOp) Validate(ctx context.Context, d *Dir) error {
	_, err := d.Abs(op.Path)
	return err
}

func (op *DeleteOp) Execute(ctx context.Context, d *Dir) error {
	return d.RemoveFile(op.Path)
}

func (op *DeleteOp) Description() string {
	return fmt.Sprintf("Delete %s", op.Path)
}

func (op *DeleteOp) Paths() []string { return []string{op.Path} }

// RenameOp moves a file.
type RenameOp struct {
	From string
	To   string
}

func (op *RenameOp) Validate(ctx context.Context, d *Dir) error {
	if _, err := d.Abs(op.To); err != nil {
		return err
	}
	_, ok, err := d.ReadFile(op.From)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("cannot rename missing file: %s", op.From)
	}
	return nil
}

func (op *RenameOp) Execute(ctx context.Context, d *Dir) error {
	return d.RenameFile(op.From, op.To)
}

func (op *RenameOp) Description() string {
	return fmt.Sprintf("Rename %s -> %s", op.From, op.To)
}

func (op *RenameOp) Paths() []string { return []string{op.From, op.To} }

// Plan returns the operations that turn the before tree into the after tree,
// in the order patch.Schedule gives their changes. Moved files become a RenameOp, followed by a WriteOp when
// the content changed on the way.
func Plan(before, after *fstree.Tree) []Operation {
	var ops []Operation
	for _, c := range patch.Schedule(patch.Diff(before, after, patch.Options{})) {
		switch c.Kind {
		case patch.Add, patch.Modify:
			ops = append(ops, &WriteOp{Path: c.Path, File: c.Target})
		case patch.Delete:
			ops = append(ops, &DeleteOp{Path: c.Path})
		case patch.Rename:
			ops = append(ops, &RenameOp{From: c.OldPath, To: c.Path})
			if !c.Base.Equal(c.Target) {
				ops = append(ops, &WriteOp{Path: c.Path, File: c.Target})
			}
		}
	}
	return ops
}

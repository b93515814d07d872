// Package merge reconciles Patch Engine output with a developer's working
// tree using three-way merge semantics.
//
// Every path named by a change op ends with exactly one Outcome. Conflicts
// are recorded, never returned as errors; Reconcile only fails when the
// working tree cannot be read or written.
package merge

import (
	"context"
	"errors"
	"fmt"

	"github.com/simonhull/firebird-suite/molt/internal/fstree"
	"github.com/simonhull/firebird-suite/molt/internal/logger"
	"github.com/simonhull/firebird-suite/molt/internal/patch"
)

// WorkingTree is read/write access to project-relative paths.
// Both *fstree.Tree (in memory) and *workspace.Dir (on disk) implement it.
// A path held by a directory, or below a file, fails with fstree.ErrBlocked.
type WorkingTree interface {
	ReadFile(path string) (*fstree.File, bool, error)
	WriteFile(path string, f *fstree.File) error
	RemoveFile(path string) error
	RenameFile(oldPath, newPath string) error
}

// IOError is a working-tree failure that stops reconciliation.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Reconciler applies change ops to a working tree under a policy.
type Reconciler struct {
	policy Policy
	log    logger.Logger
}

// NewReconciler creates a reconciler. A nil logger is silent.
func NewReconciler(policy Policy, log logger.Logger) *Reconciler {
	if log == nil {
		log = logger.NewSilent()
	}
	return &Reconciler{policy: policy, log: log}
}

// Policy returns the resolution policy in effect.
func (r *Reconciler) Policy() Policy {
	return r.policy
}

// Reconcile applies ops in the order given by patch.Schedule. On error the outcomes
// recorded so far are returned alongside it; files already written stay
// written.
func (r *Reconciler) Reconcile(ctx context.Context, ops []patch.ChangeOp, wt WorkingTree) (Outcomes, error) {
	outcomes := make(Outcomes, len(ops))

	for _, op := range patch.Schedule(ops) {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}

		var (
			o   Outcome
			err error
		)
		switch op.Kind {
		case patch.Add:
			o, err = r.add(op, wt)
		case patch.Delete:
			o, err = r.delete(op, wt)
		case patch.Modify:
			o, err = r.modify(op, wt)
		case patch.Rename:
			o, err = r.rename(op, wt)
		default:
			err = fmt.Errorf("unknown change op %v for %s", op.Kind, op.Path)
		}
		if err != nil {
			return outcomes, err
		}

		for _, p := range op.Paths() {
			outcomes.record(p, o)
		}
		r.logOutcome(op, o)
	}

	return outcomes, nil
}

func (r *Reconciler) logOutcome(op patch.ChangeOp, o Outcome) {
	fields := []logger.Field{logger.F("op", op.Kind), logger.F("path", op.Path), logger.F("outcome", o.Status)}
	if op.Kind == patch.Rename {
		fields = append(fields, logger.F("from", op.OldPath))
	}
	switch o.Status {
	case Conflicted:
		r.log.Warn("conflict", append(fields, logger.F("reason", o.Reason))...)
	case AutoResolved:
		r.log.Debug("auto-resolved", append(fields, logger.F("strategy", o.Strategy), logger.F("reason", o.Reason))...)
	default:
		r.log.Debug("applied", fields...)
	}
}

// blocked is the outcome for a path held by a local directory or sitting
// below a local file. Nothing is written; only preferWorking settles it.
func (r *Reconciler) blocked(kind patch.Kind) Outcome {
	if r.policy == PreferWorking {
		return r.resolve(kind, ReasonPathBlocked, false)
	}
	return Outcome{Status: Conflicted, Reason: ReasonPathBlocked, Kind: kind}
}

// resolve builds the outcome of a conflict class under the policy.
func (r *Reconciler) resolve(kind patch.Kind, reason string, changed bool) Outcome {
	if r.policy == Manual {
		return Outcome{Status: Conflicted, Reason: reason, Kind: kind, Changed: changed}
	}
	return Outcome{Status: AutoResolved, Strategy: r.policy, Reason: reason, Kind: kind, Changed: changed}
}

func (r *Reconciler) add(op patch.ChangeOp, wt WorkingTree) (Outcome, error) {
	local, ok, err := read(wt, op.Path)
	if isBlocked(err) {
		return r.blocked(patch.Add), nil
	}
	if err != nil {
		return Outcome{}, err
	}
	if !ok {
		return clean(patch.Add, true), write(wt, op.Path, op.Target)
	}
	if local.Equal(op.Target) {
		return clean(patch.Add, false), nil
	}
	if local.SameContent(op.Target) {
		// Only the executable bit differs
		return clean(patch.Add, true), write(wt, op.Path, op.Target)
	}

	// A file that did not exist in base cannot carry local edits, so only
	// preferTarget settles this automatically.
	conflicted := Outcome{Status: Conflicted, Reason: ReasonUnexpectedFile, Kind: patch.Add}
	switch {
	case r.policy == PreferTarget:
		return r.resolve(patch.Add, ReasonUnexpectedFile, true), write(wt, op.Path, op.Target)
	case r.policy == PreferWorking, local.IsBinary(), op.Target.IsBinary():
		return conflicted, nil
	}

	merged := Merge3(nil, local.Data, op.Target.Data)
	if merged.Clean() {
		return clean(patch.Add, true), write(wt, op.Path, &fstree.File{Data: merged.Prefer(Working), Executable: local.Executable})
	}
	conflicted.Changed = true
	return conflicted, write(wt, op.Path, &fstree.File{Data: merged.Markers(), Executable: local.Executable})
}

func (r *Reconciler) delete(op patch.ChangeOp, wt WorkingTree) (Outcome, error) {
	local, ok, err := read(wt, op.Path)
	if err != nil && !isBlocked(err) {
		return Outcome{}, err
	}
	if !ok {
		return clean(patch.Delete, false), nil
	}
	if local.SameContent(op.Base) {
		return clean(patch.Delete, true), remove(wt, op.Path)
	}

	if r.policy == PreferTarget {
		return r.resolve(patch.Delete, ReasonModifiedLocally, true), remove(wt, op.Path)
	}
	return r.resolve(patch.Delete, ReasonModifiedLocally, false), nil
}

func (r *Reconciler) modify(op patch.ChangeOp, wt WorkingTree) (Outcome, error) {
	local, ok, err := read(wt, op.Path)
	if isBlocked(err) {
		return r.blocked(patch.Modify), nil
	}
	if err != nil {
		return Outcome{}, err
	}
	if !ok {
		if r.policy == PreferTarget {
			return r.resolve(patch.Modify, ReasonDeletedLocally, true), write(wt, op.Path, op.Target)
		}
		return r.resolve(patch.Modify, ReasonDeletedLocally, false), nil
	}

	return r.mergeInto(patch.Modify, op.Path, op.Base, local, op.Target, wt)
}

func (r *Reconciler) rename(op patch.ChangeOp, wt WorkingTree) (Outcome, error) {
	local, ok, err := read(wt, op.OldPath)
	if err != nil && !isBlocked(err) {
		return Outcome{}, err
	}
	dest, destOK, err := read(wt, op.Path)
	switch {
	case isBlocked(err) && ok && fstree.Nested(op.OldPath, op.Path):
		// The file itself is in the way; RenameFile moves it out first
	case isBlocked(err):
		return r.blocked(patch.Rename), nil
	case err != nil:
		return Outcome{}, err
	}

	if !ok {
		if destOK && dest.Equal(op.Target) {
			return clean(patch.Rename, false), nil
		}
		if r.policy == PreferTarget {
			return r.resolve(patch.Rename, ReasonRenamedDeleted, true), write(wt, op.Path, op.Target)
		}
		return r.resolve(patch.Rename, ReasonRenamedDeleted, false), nil
	}

	if destOK {
		if dest.Equal(op.Target) && local.SameContent(op.Base) {
			return clean(patch.Rename, true), remove(wt, op.OldPath)
		}
		if r.policy != PreferTarget {
			return r.resolve(patch.Rename, ReasonDestinationExists, false), nil
		}
		if err := remove(wt, op.Path); err != nil {
			return Outcome{}, err
		}
	}

	if err := wt.RenameFile(op.OldPath, op.Path); err != nil {
		if errors.Is(err, fstree.ErrBlocked) {
			return r.blocked(patch.Rename), nil
		}
		return Outcome{}, &IOError{Op: "rename", Path: op.OldPath, Err: err}
	}

	o, err := r.mergeInto(patch.Rename, op.Path, op.Base, local, op.Target, wt)
	o.Changed = true
	if destOK && o.Status == Clean {
		o = r.resolve(patch.Rename, ReasonDestinationExists, true)
	}
	return o, err
}

// mergeInto three-way merges base→target into the local file at path and
// writes the result when it differs from local.
func (r *Reconciler) mergeInto(kind patch.Kind, path string, base, local, target *fstree.File, wt WorkingTree) (Outcome, error) {
	merged, o := r.merge(kind, base, local, target)
	if merged.Equal(local) {
		return o, nil
	}
	o.Changed = true
	return o, write(wt, path, merged)
}

func (r *Reconciler) merge(kind patch.Kind, base, local, target *fstree.File) (*fstree.File, Outcome) {
	// A local mode change wins over an upstream one
	executable := local.Executable
	if local.Executable == base.Executable {
		executable = target.Executable
	}

	var merged *fstree.File
	o := clean(kind, false)

	switch {
	case base.SameContent(target):
		merged = local.Clone()
	case local.SameContent(base), local.SameContent(target):
		merged = target.Clone()
	case base.IsBinary() || local.IsBinary() || target.IsBinary():
		o = r.resolve(kind, ReasonBinaryBothModified, false)
		if r.policy == PreferTarget {
			merged = target.Clone()
		} else {
			merged = local.Clone()
		}
	default:
		res := Merge3(base.Data, local.Data, target.Data)
		switch {
		case res.Clean():
			merged = &fstree.File{Data: res.Prefer(Working)}
		case r.policy == Manual:
			merged = &fstree.File{Data: res.Markers()}
			o = r.resolve(kind, ReasonOverlappingEdit, false)
		default:
			merged = &fstree.File{Data: res.Prefer(r.policy.side())}
			o = r.resolve(kind, ReasonOverlappingEdit, false)
		}
	}

	merged.Executable = executable
	return merged, o
}

func isBlocked(err error) bool {
	return errors.Is(err, fstree.ErrBlocked)
}

func read(wt WorkingTree, path string) (*fstree.File, bool, error) {
	f, ok, err := wt.ReadFile(path)
	if err != nil {
		return nil, false, &IOError{Op: "read", Path: path, Err: err}
	}
	return f, ok, nil
}

func write(wt WorkingTree, path string, f *fstree.File) error {
	if err := wt.WriteFile(path, f); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}

func remove(wt WorkingTree, path string) error {
	if err := wt.RemoveFile(path); err != nil {
		return &IOError{Op: "remove", Path: path, Err: err}
	}
	return nil
}

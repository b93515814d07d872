// Package session drives one update of a scaffolded project from the version
// in its marker file to a newer blueprint version.
//
// A session walks Init → SnapshotFetched → Diffed → Reconciled →
// CodemodsRun → Finalized. Version-ordering and fatal I/O failures move it
// to Aborted; merge conflicts and codemod failures are recorded in the
// Report and never stop it.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/simonhull/firebird-suite/molt/internal/codemod"
	"github.com/simonhull/firebird-suite/molt/internal/fstree"
	"github.com/simonhull/firebird-suite/molt/internal/logger"
	"github.com/simonhull/firebird-suite/molt/internal/merge"
	"github.com/simonhull/firebird-suite/molt/internal/patch"
	"github.com/simonhull/firebird-suite/molt/internal/snapshot"
	"github.com/simonhull/firebird-suite/molt/internal/version"
	"github.com/simonhull/firebird-suite/molt/internal/workspace"
)

// State is a step of the session state machine.
type State int

const (
	StateInit State = iota
	StateSnapshotFetched
	StateDiffed
	StateReconciled
	StateCodemodsRun
	StateFinalized
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateSnapshotFetched:
		return "snapshot-fetched"
	case StateDiffed:
		return "diffed"
	case StateReconciled:
		return "reconciled"
	case StateCodemodsRun:
		return "codemods-run"
	case StateFinalized:
		return "finalized"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// VCS is the version-control boundary a session stages its work through.
type VCS interface {
	IsClean() (bool, error)
	Stage(paths []string) error
	Residue() ([]string, error)
}

// Options configures a session.
type Options struct {
	// Root is the project directory; all paths are relative to it.
	Root string
	// Marker names the version marker file (default .scaffold-version).
	Marker string
	// From overrides the marker version.
	From *version.Version
	// To is the target; nil means the newest stable blueprint version.
	To     *version.Version
	Policy merge.Policy

	RunCodemods    bool
	AllowDowngrade bool
	AllowDirty     bool
	// DryRun reconciles an in-memory copy of the working tree.
	DryRun bool

	RenameThreshold float64
	Ignore          []string
	// Codemods are offered alongside those shipped with the target blueprint.
	Codemods []codemod.Spec
}

// Deps are the collaborators of a session.
type Deps struct {
	Snapshots snapshot.Provider
	Confirm   codemod.Confirmer
	// VCS is optional; without it nothing is checked or staged.
	VCS    VCS
	Logger logger.Logger
}

// Session is one update run. It is not reusable.
type Session struct {
	opts  Options
	deps  Deps
	id    string
	state State
	log   logger.Logger
}

// New creates a session.
func New(opts Options, deps Deps) *Session {
	if opts.Marker == "" {
		opts.Marker = ".scaffold-version"
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewSilent()
	}
	if deps.Confirm == nil {
		deps.Confirm = codemod.AcceptAll
	}
	id := uuid.NewString()
	return &Session{
		opts: opts,
		deps: deps,
		id:   id,
		log:  deps.Logger.WithFields(logger.F("session", id)),
	}
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the current state.
func (s *Session) State() State {
	return s.state
}

func (s *Session) enter(st State) {
	s.state = st
	s.log.Info("session "+st.String(), logger.F("state", st))
}

// Run performs the update. The report is always returned, describing how far
// the session got; the error is non-nil only when the session halted.
func (s *Session) Run(ctx context.Context) (*Report, error) {
	rep := &Report{ID: s.id, DryRun: s.opts.DryRun, Policy: s.opts.Policy}

	dir, err := workspace.Open(s.opts.Root)
	if err != nil {
		return s.abort(rep, &FatalIOError{Op: "open", Path: s.opts.Root, Err: err})
	}

	// Init
	if err := s.resolveVersions(ctx, rep); err != nil {
		return s.abort(rep, err)
	}
	s.log = s.log.WithFields(logger.F("from", rep.From), logger.F("to", rep.To))
	if err := s.checkClean(); err != nil {
		return s.abort(rep, err)
	}

	base, err := s.deps.Snapshots.Fetch(ctx, rep.From)
	if err != nil {
		return s.abort(rep, &FatalIOError{Op: "fetch snapshot", Path: rep.From.String(), Err: err})
	}
	target, err := s.deps.Snapshots.Fetch(ctx, rep.To)
	if err != nil {
		return s.abort(rep, &FatalIOError{Op: "fetch snapshot", Path: rep.To.String(), Err: err})
	}
	s.enter(StateSnapshotFetched)

	ops := patch.Diff(base, target, patch.Options{RenameThreshold: s.opts.RenameThreshold})
	rep.Ops = ops
	s.enter(StateDiffed)

	var wt merge.WorkingTree = dir
	if s.opts.DryRun {
		tree, err := dir.Load(fstree.LoadOptions{Ignore: s.opts.Ignore})
		if err != nil {
			return s.abort(rep, &FatalIOError{Op: "load working tree", Path: s.opts.Root, Err: err})
		}
		wt = tree
	}

	outcomes, err := merge.NewReconciler(s.opts.Policy, s.log).Reconcile(ctx, ops, wt)
	rep.Outcomes = outcomes
	if err != nil {
		var ioErr *merge.IOError
		if errors.As(err, &ioErr) {
			err = &FatalIOError{Op: ioErr.Op, Path: ioErr.Path, Err: ioErr.Err}
		}
		return s.halt(rep, err)
	}
	s.enter(StateReconciled)

	if s.opts.RunCodemods {
		if err := s.runCodemods(ctx, rep, dir); err != nil {
			return s.halt(rep, err)
		}
		s.enter(StateCodemodsRun)
	}

	return s.finalize(rep)
}

func (s *Session) resolveVersions(ctx context.Context, rep *Report) error {
	from := s.opts.From
	if from == nil {
		v, err := ReadMarker(s.opts.Root, s.opts.Marker)
		if err != nil {
			return err
		}
		from = v
	}

	to := s.opts.To
	if to == nil {
		vs, err := s.deps.Snapshots.Versions(ctx)
		if err != nil {
			return &FatalIOError{Op: "list versions", Err: err}
		}
		if to = version.Latest(vs, false); to == nil {
			return &FatalIOError{Op: "list versions", Err: snapshot.ErrUnknownVersion}
		}
	}
	rep.From, rep.To = from, to

	switch c := from.Compare(to); {
	case c == 0:
		return fmt.Errorf("%w: already at %s", ErrVersionOrdering, from)
	case c > 0 && !s.opts.AllowDowngrade:
		return fmt.Errorf("%w: %s is older than %s", ErrVersionOrdering, to, from)
	}
	return nil
}

func (s *Session) checkClean() error {
	if s.deps.VCS == nil || s.opts.AllowDirty || s.opts.DryRun {
		return nil
	}
	clean, err := s.deps.VCS.IsClean()
	if err != nil {
		return &FatalIOError{Op: "status", Path: s.opts.Root, Err: err}
	}
	if !clean {
		return ErrDirtyWorkingTree
	}
	return nil
}

func (s *Session) codemodSpecs(ctx context.Context, to *version.Version) ([]codemod.Spec, error) {
	specs := append([]codemod.Spec(nil), s.opts.Codemods...)
	if src, ok := s.deps.Snapshots.(snapshot.CodemodSource); ok {
		shipped, err := src.Codemods(ctx, to)
		if err != nil {
			return nil, &FatalIOError{Op: "read codemods", Path: to.String(), Err: err}
		}
		specs = append(specs, shipped...)
	}
	return specs, nil
}

func (s *Session) runCodemods(ctx context.Context, rep *Report, ws codemod.Workspace) error {
	specs, err := s.codemodSpecs(ctx, rep.To)
	if err != nil {
		return err
	}

	if s.opts.DryRun {
		for _, spec := range codemod.Select(specs, rep.From, rep.To) {
			rep.Codemods = append(rep.Codemods, codemod.Result{ID: spec.ID})
		}
		return nil
	}

	results, err := codemod.Run(ctx, specs, rep.From, rep.To, ws, s.deps.Confirm, s.log)
	rep.Codemods = results
	switch {
	case err == nil:
	case errors.Is(err, codemod.ErrCancelled):
		rep.CodemodsCancelled = true
	case ctx.Err() != nil:
		return err
	default:
		// A broken confirmation channel ends the codemod phase only.
		s.log.Warn("codemods stopped", logger.Err(err))
		rep.CodemodsErr = err
	}
	return nil
}

func (s *Session) finalize(rep *Report) (*Report, error) {
	touched := touchedPaths(rep)
	if !s.opts.DryRun {
		if err := WriteMarker(s.opts.Root, s.opts.Marker, rep.To); err != nil {
			return s.halt(rep, err)
		}
		touched[s.opts.Marker] = true
	}
	rep.Touched = sortedKeys(touched)

	if !s.opts.DryRun && s.deps.VCS != nil {
		if err := s.deps.VCS.Stage(rep.Touched); err != nil {
			return s.halt(rep, &FatalIOError{Op: "stage", Err: err})
		}
		residue, err := s.deps.VCS.Residue()
		if err != nil {
			return s.halt(rep, &FatalIOError{Op: "status", Err: err})
		}
		rep.Residue = residue
	}

	rep.Status = StatusClean
	if rep.Outcomes.Count(merge.Conflicted) > 0 {
		rep.Status = StatusAppliedWithConflicts
	}
	if rep.CodemodsErr != nil || rep.FailedCodemods() > 0 {
		rep.Status = StatusPartiallyFailed
	}

	s.enter(StateFinalized)
	return rep, nil
}

// abort ends a session that has not touched the working tree.
func (s *Session) abort(rep *Report, err error) (*Report, error) {
	rep.Status = StatusAborted
	rep.Err = err
	s.state = StateAborted
	s.log.Error("session aborted", logger.Err(err))
	return rep, err
}

// halt ends a session after mutation may have started. The marker is left
// alone; with nothing changed on disk it is the same as abort.
func (s *Session) halt(rep *Report, err error) (*Report, error) {
	touched := touchedPaths(rep)
	if s.opts.DryRun || len(touched) == 0 {
		return s.abort(rep, err)
	}
	rep.Touched = sortedKeys(touched)
	rep.Status = StatusPartiallyFailed
	rep.Err = err
	s.state = StateAborted
	s.log.Error("session halted", logger.Err(err), logger.F("touched", len(rep.Touched)))
	return rep, err
}

// touchedPaths collects the paths written by reconciliation and codemods.
func touchedPaths(rep *Report) map[string]bool {
	touched := map[string]bool{}
	for _, p := range rep.Outcomes.Changed() {
		touched[p] = true
	}
	for _, p := range codemod.Touched(rep.Codemods) {
		touched[p] = true
	}
	return touched
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

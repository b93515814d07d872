package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simonhull/firebird-suite/molt/internal/session"
	"github.com/simonhull/firebird-suite/molt/internal/vcs"
)

type updateFlags struct {
	to             string
	from           string
	policy         string
	runCodemods    bool
	yes            bool
	allowDowngrade bool
	allowDirty     bool
	dryRun         bool
}

// UpdateCmd creates the update command
func UpdateCmd() *cobra.Command {
	var f updateFlags

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update the project to a newer blueprint version",
		Long: `Applies the changes between the project's blueprint version and the
target version to the working tree.

Files you never touched are updated in place. Where your edits overlap the
blueprint's, the --policy flag decides:
  manual         leave conflict markers for you to resolve (default)
  preferTarget   take the blueprint's side
  preferWorking  keep your side

Examples:
  molt update                         # Update to the latest stable version
  molt update --to 1.4.0              # Update to a specific version
  molt update --run-codemods          # Also offer codemods for the range
  molt update --dry-run -v            # Show what would happen`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd, f)
		},
	}

	cmd.Flags().StringVar(&f.to, "to", "", "Target version (default: latest stable)")
	cmd.Flags().StringVar(&f.from, "from", "", "Current version (default: read from the marker file)")
	cmd.Flags().StringVar(&f.policy, "policy", "", "Conflict policy: manual, preferTarget, preferWorking (default from molt.yml)")
	cmd.Flags().BoolVar(&f.runCodemods, "run-codemods", false, "Run codemods for the versions being crossed")
	cmd.Flags().BoolVarP(&f.yes, "yes", "y", false, "Run every codemod without asking")
	cmd.Flags().BoolVar(&f.allowDowngrade, "allow-downgrade", false, "Allow a target older than the current version")
	cmd.Flags().BoolVar(&f.allowDirty, "allow-dirty", false, "Update even when the working tree has uncommitted changes")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Report what would change without writing anything")

	return cmd
}

func runUpdate(cmd *cobra.Command, f updateFlags) error {
	ctx := cmd.Context()

	env, err := openProject(cmd)
	if err != nil {
		return err
	}
	if f.policy != "" {
		env.cfg.Policy = f.policy
	}
	if err := env.cfg.Validate(); err != nil {
		return err
	}
	policy, err := env.cfg.MergePolicy()
	if err != nil {
		return err
	}

	from, err := parseVersion("from", f.from)
	if err != nil {
		return err
	}
	to, err := parseVersion("to", f.to)
	if err != nil {
		return err
	}

	provider, err := env.provider(ctx)
	if err != nil {
		return err
	}

	specs, err := env.codemods()
	if err != nil {
		return err
	}

	deps := session.Deps{
		Snapshots: provider,
		Confirm:   announced{Confirmer: confirmer(cmd, f.yes), out: env.out},
		Logger:    env.log,
	}
	repo, err := vcs.Open(env.root)
	switch {
	case err == nil:
		deps.VCS = repo
	case errors.Is(err, vcs.ErrNotRepository):
		env.out.Verbose("Not a git repository; skipping clean check and staging")
	default:
		return err
	}

	s := session.New(session.Options{
		Root:            env.root,
		Marker:          env.cfg.Marker,
		From:            from,
		To:              to,
		Policy:          policy,
		RunCodemods:     f.runCodemods,
		AllowDowngrade:  f.allowDowngrade,
		AllowDirty:      f.allowDirty,
		DryRun:          f.dryRun,
		RenameThreshold: env.cfg.RenameThreshold,
		Ignore:          env.cfg.Ignore,
		Codemods:        specs,
	}, deps)
	env.out.Verbose(fmt.Sprintf("Session %s (policy %s)", s.ID(), policy))

	rep, err := s.Run(ctx)
	if rep != nil && rep.Status != session.StatusAborted {
		rep.Render(cmd.OutOrStdout(), flagVerbose)
	}
	if err != nil {
		return updateError(err)
	}
	return nil
}

// updateError adds a hint to the errors a user can act on.
func updateError(err error) error {
	switch {
	case errors.Is(err, session.ErrDirtyWorkingTree):
		return fmt.Errorf("%w\nCommit or stash your changes, or pass --allow-dirty", err)
	case errors.Is(err, session.ErrNoMarker):
		return fmt.Errorf("%w\nPass --from with the version the project was generated with", err)
	case errors.Is(err, session.ErrVersionOrdering):
		return fmt.Errorf("%w\nPass --allow-downgrade to move to an older version", err)
	}
	return err
}

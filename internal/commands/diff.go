package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simonhull/firebird-suite/molt/internal/patch"
	"github.com/simonhull/firebird-suite/molt/internal/prompt"
	"github.com/simonhull/firebird-suite/molt/internal/session"
	"github.com/simonhull/firebird-suite/molt/internal/version"
)

// DiffCmd creates the diff command
func DiffCmd() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Show what changed between two blueprint versions",
		Long: `Shows the blueprint changes an update would replay, as a unified diff.
Long output opens in a pager on a terminal.

Examples:
  molt diff                          # Marker version to latest stable
  molt diff --from 1.0.0 --to 1.2.0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			env, err := openProject(cmd)
			if err != nil {
				return err
			}
			provider, err := env.provider(ctx)
			if err != nil {
				return err
			}

			fromV, err := parseVersion("from", from)
			if err != nil {
				return err
			}
			if fromV == nil {
				if fromV, err = session.ReadMarker(env.root, env.cfg.Marker); err != nil {
					return err
				}
			}
			toV, err := parseVersion("to", to)
			if err != nil {
				return err
			}
			if toV == nil {
				if toV, err = latest(ctx, provider); err != nil {
					return err
				}
			}

			base, err := provider.Fetch(ctx, fromV)
			if err != nil {
				return err
			}
			target, err := provider.Fetch(ctx, toV)
			if err != nil {
				return err
			}

			ops := patch.Diff(base, target, patch.Options{RenameThreshold: env.cfg.RenameThreshold})
			if len(ops) == 0 {
				env.out.Info(fmt.Sprintf("No blueprint changes between %s and %s", fromV, toV))
				return nil
			}

			out := cmd.OutOrStdout()
			interactive := isTerminal(out)
			title := diffTitle(fromV, toV, ops)
			env.out.Info(title)
			content := patch.Render(ops, patch.RenderOptions{Color: interactive})
			return prompt.Show(out, title, content, interactive)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Base version (default: read from the marker file)")
	cmd.Flags().StringVar(&to, "to", "", "Target version (default: latest stable)")

	return cmd
}

func diffTitle(from, to *version.Version, ops []patch.ChangeOp) string {
	counts := map[patch.Kind]int{}
	for _, op := range ops {
		counts[op.Kind]++
	}
	return fmt.Sprintf("%s → %s: %d added, %d modified, %d renamed, %d deleted",
		from, to, counts[patch.Add], counts[patch.Modify], counts[patch.Rename], counts[patch.Delete])
}

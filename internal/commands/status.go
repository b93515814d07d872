package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simonhull/firebird-suite/molt/internal/session"
)

// StatusCmd creates the status command
func StatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the project's blueprint version and available updates",
		Args:  cobra.NoArgs,
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

			current, err := session.ReadMarker(env.root, env.cfg.Marker)
			if err != nil && !errors.Is(err, session.ErrNoMarker) {
				return err
			}
			newest, err := latest(ctx, provider)
			if err != nil {
				return err
			}

			if current == nil {
				env.out.Warn(fmt.Sprintf("No %s marker; the blueprint version is unknown", env.cfg.Marker))
				env.out.Info(fmt.Sprintf("Latest blueprint: %s", newest))
				return nil
			}

			env.out.Info(fmt.Sprintf("Blueprint version: %s", current))
			if current.Compare(newest) >= 0 {
				env.out.Success(fmt.Sprintf("Up to date (latest is %s)", newest))
				return nil
			}
			env.out.Info(fmt.Sprintf("Update available: %s → %s", current, newest))

			specs, err := env.offered(ctx, provider, current, newest)
			if err != nil {
				return err
			}
			if len(specs) == 0 {
				env.out.Step("No codemods apply to this update")
				return nil
			}
			listCodemods(env.out, specs)
			return nil
		},
	}
}

package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/simonhull/firebird-suite/molt/internal/config"
	"github.com/simonhull/firebird-suite/molt/internal/output"
	"github.com/simonhull/firebird-suite/molt/internal/project"
	"github.com/simonhull/firebird-suite/molt/internal/session"
)

// InitCmd creates the init command
func InitCmd() *cobra.Command {
	var (
		at     string
		force  bool
		policy string
		bp     config.Blueprints
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Start tracking an existing project's blueprint version",
		Long: `Writes molt.yml and the version marker for a project that was generated
from a blueprint before molt was set up.

Examples:
  molt init --version 1.2.0 --blueprints-dir ../blueprints
  molt init --version 1.2.0 --git https://github.com/acme/blueprints --subdir app`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := filepath.Abs(flagDir)
			if err != nil {
				return err
			}
			out := output.NewPrinter(cmd.OutOrStdout())

			if _, err := os.Stat(filepath.Join(root, project.ConfigName)); err == nil && !force {
				return fmt.Errorf("%s already exists (pass --force to overwrite)", project.ConfigName)
			}
			v, err := parseVersion("version", at)
			if err != nil {
				return err
			}
			if v == nil {
				return errors.New("--version is required")
			}

			cfg := config.Default()
			cfg.Blueprints = bp
			if policy != "" {
				cfg.Policy = policy
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if mod, err := project.DetectModule(root); err == nil {
				cfg.Project = config.Project{Name: mod.Name(), Module: mod.Path}
			}

			if err := cfg.Write(root); err != nil {
				return err
			}
			if err := session.WriteMarker(root, cfg.Marker, v); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Tracking blueprint version %s", v))
			out.Step(project.ConfigName)
			out.Step(cfg.Marker)
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "version", "", "Blueprint version the project was generated from")
	cmd.Flags().StringVar(&bp.Dir, "blueprints-dir", "", "Directory of version-named blueprint directories")
	cmd.Flags().StringVar(&bp.Git, "git", "", "Git repository with version-tagged blueprints")
	cmd.Flags().StringVar(&bp.Subdir, "subdir", "", "Blueprint directory inside the git repository")
	cmd.Flags().StringVar(&policy, "policy", "", "Default conflict policy")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing molt.yml")

	return cmd
}

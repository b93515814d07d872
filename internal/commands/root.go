// Package commands implements the molt command-line interface.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/simonhull/firebird-suite/molt/internal/output"
)

// Version is the molt release, set at build time.
var Version = "dev"

var (
	flagVerbose  bool
	flagDir      string
	flagLogLevel string
)

// RootCmd creates and returns the root command for the molt CLI
func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "molt",
		Short: "Keep scaffolded projects in step with their blueprints",
		Long: `Molt updates a project generated from a blueprint to a newer version
of that blueprint.

It replays the changes between the version you scaffolded from and the
target version onto your working tree, keeping your own edits:
• Three-way merges with conflict markers where edits overlap
• Rename-aware diffs between blueprint versions
• Codemods for the version range being crossed

Learn more: https://github.com/simonhull/firebird-suite`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			output.SetVerbose(flagVerbose)
		},
	}

	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose output for debugging")
	cmd.PersistentFlags().StringVarP(&flagDir, "dir", "C", ".", "Run as if started in this directory")
	cmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "error", "Log level (debug, info, warn, error, silent)")

	return cmd
}

// NewApp returns the root command with every subcommand attached.
func NewApp() *cobra.Command {
	root := RootCmd()
	root.AddCommand(UpdateCmd())
	root.AddCommand(DiffCmd())
	root.AddCommand(StatusCmd())
	root.AddCommand(CodemodsCmd())
	root.AddCommand(InitCmd())
	return root
}

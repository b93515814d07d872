package commands

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

// CodemodsCmd creates the codemods command
func CodemodsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "codemods",
		Short: "List the known codemods and the versions they apply across",
		Long: `Lists the codemods bundled with molt and those declared in molt.yml.
Codemods shipped with a blueprint version are shown by 'molt status'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openProject(cmd)
			if err != nil {
				return err
			}
			specs, err := env.codemods()
			if err != nil {
				return err
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
				Headers("ID", "RANGE", "CONFIRM", "DESCRIPTION")
			for _, s := range specs {
				confirm := "no"
				if s.Confirm {
					confirm = "yes"
				}
				t.Row(s.ID, s.Range.String(), confirm, s.Description)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return err
		},
	}
}

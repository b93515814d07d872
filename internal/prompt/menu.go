// Package prompt holds the terminal UIs used during an update: the codemod
// confirmation menu and a scrolling pager for long diffs.
package prompt

import (
	"context"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/simonhull/firebird-suite/molt/internal/codemod"
)

var (
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("yellow")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan")).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	borderStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("white")).Bold(true)
)

type choice struct {
	label  string
	answer codemod.Answer
}

var menuChoices = []choice{
	{"Yes, run it", codemod.Yes},
	{"No, skip it", codemod.No},
	{"All, run this and every remaining codemod", codemod.All},
	{"Cancel remaining codemods", codemod.Cancel},
}

// Menu asks about codemods with a keyboard-driven menu.
type Menu struct {
	In  io.Reader
	Out io.Writer
}

// Ask shows the menu for spec. Quitting the menu counts as Cancel.
func (m Menu) Ask(ctx context.Context, spec codemod.Spec) (codemod.Answer, error) {
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if m.In != nil {
		opts = append(opts, tea.WithInput(m.In))
	}
	if m.Out != nil {
		opts = append(opts, tea.WithOutput(m.Out))
	}

	final, err := tea.NewProgram(newMenuModel(spec), opts...).Run()
	if err != nil {
		return codemod.Cancel, fmt.Errorf("failed to show menu: %w", err)
	}

	result := final.(menuModel)
	if result.selected == nil {
		return codemod.Cancel, nil
	}
	return *result.selected, nil
}

type menuModel struct {
	spec     codemod.Spec
	cursor   int
	selected *codemod.Answer
}

func newMenuModel(spec codemod.Spec) menuModel {
	return menuModel{spec: spec}
}

func (m menuModel) Init() tea.Cmd {
	return nil
}

func (m menuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "q", "esc":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(menuChoices)-1 {
			m.cursor++
		}

	case "y", "n", "a":
		return m.choose(strings.Index("yna", key.String()))

	case "enter":
		return m.choose(m.cursor)
	}

	return m, nil
}

func (m menuModel) choose(i int) (tea.Model, tea.Cmd) {
	answer := menuChoices[i].answer
	m.cursor = i
	m.selected = &answer
	return m, tea.Quit
}

func (m menuModel) View() string {
	var b strings.Builder

	b.WriteString(warningStyle.Render("⚙  Codemod: ") + titleStyle.Render(m.spec.ID) + "\n")
	if m.spec.Description != "" {
		b.WriteString(mutedStyle.Render("    What: ") + m.spec.Description + "\n")
	}
	b.WriteString(mutedStyle.Render("    Versions: ") + m.spec.Range.String() + "\n\n")
	b.WriteString(mutedStyle.Render("    [↑/↓] Navigate    [Enter] Select    [y/n/a] Answer    [q] Cancel") + "\n\n")

	for i, c := range menuChoices {
		if m.cursor == i {
			b.WriteString("    " + selectedStyle.Render("> "+c.label) + "\n")
		} else {
			b.WriteString("      " + c.label + "\n")
		}
	}

	return b.String()
}

package prompt

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// PageThreshold is the line count above which Show uses the pager.
const PageThreshold = 20

// Show writes content to out, or opens a full-screen pager when interactive
// is set and content is longer than PageThreshold lines.
func Show(out io.Writer, title, content string, interactive bool) error {
	if !interactive || strings.Count(content, "\n") <= PageThreshold {
		_, err := io.WriteString(out, content)
		return err
	}

	p := tea.NewProgram(newPagerModel(title, content), tea.WithAltScreen(), tea.WithOutput(out))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to show %s: %w", title, err)
	}
	return nil
}

type pagerModel struct {
	title    string
	content  string
	viewport viewport.Model
	ready    bool
}

func newPagerModel(title, content string) pagerModel {
	return pagerModel{title: title, content: content}
}

func (m pagerModel) Init() tea.Cmd {
	return nil
}

func (m pagerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "up", "k":
			m.viewport.ScrollUp(1)
		case "down", "j":
			m.viewport.ScrollDown(1)
		case "pgup", "b":
			m.viewport.PageUp()
		case "pgdown", "f", "space":
			m.viewport.PageDown()
		case "g", "home":
			m.viewport.GotoTop()
		case "G", "end":
			m.viewport.GotoBottom()
		}

	case tea.WindowSizeMsg:
		const chrome = 4 // header and footer rows
		if !m.ready {
			m.viewport = viewport.New(msg.Width-4, msg.Height-chrome)
			m.viewport.SetContent(m.content)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 4
			m.viewport.Height = msg.Height - chrome
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m pagerModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	width := m.viewport.Width

	title := fmt.Sprintf("─ %s ", m.title)
	b.WriteString(borderStyle.Render("┌"+title+strings.Repeat("─", max(0, width-lipgloss.Width(title)+2))+"┐") + "\n")

	for _, line := range strings.Split(m.viewport.View(), "\n") {
		pad := strings.Repeat(" ", max(0, width-lipgloss.Width(line)))
		b.WriteString(borderStyle.Render("│") + " " + line + pad + " " + borderStyle.Render("│") + "\n")
	}

	footer := fmt.Sprintf(" %3.f%%  [↑/↓] Scroll  [q] Quit ", m.viewport.ScrollPercent()*100)
	b.WriteString(borderStyle.Render("└"+strings.Repeat("─", max(0, width-lipgloss.Width(footer)+2))+footer+"┘") + "\n")

	return b.String()
}

package prompt

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/firebird-suite/molt/internal/codemod"
	"github.com/simonhull/firebird-suite/molt/internal/version"
)

var testSpec = codemod.Spec{
	ID:          "ioutil-to-os",
	Description: "replace ioutil",
	Range:       version.MustRange("0.5.0", "1.0.0"),
}

func press(m tea.Model, keys ...tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		m, cmd = m.Update(k)
	}
	return m, cmd
}

var (
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyUp    = tea.KeyMsg{Type: tea.KeyUp}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestMenuModel_Navigation(t *testing.T) {
	tests := []struct {
		name string
		keys []tea.KeyMsg
		want codemod.Answer
	}{
		{"enter picks first", []tea.KeyMsg{keyEnter}, codemod.Yes},
		{"down once", []tea.KeyMsg{keyDown, keyEnter}, codemod.No},
		{"down twice", []tea.KeyMsg{keyDown, keyDown, keyEnter}, codemod.All},
		{"stops at bottom", []tea.KeyMsg{keyDown, keyDown, keyDown, keyDown, keyDown, keyEnter}, codemod.Cancel},
		{"stops at top", []tea.KeyMsg{keyUp, keyEnter}, codemod.Yes},
		{"shortcut n", []tea.KeyMsg{runes("n")}, codemod.No},
		{"shortcut a", []tea.KeyMsg{runes("a")}, codemod.All},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, cmd := press(newMenuModel(testSpec), tt.keys...)
			require.NotNil(t, cmd, "selection should quit")
			result := m.(menuModel)
			require.NotNil(t, result.selected)
			assert.Equal(t, tt.want, *result.selected)
		})
	}
}

func TestMenuModel_QuitLeavesNoSelection(t *testing.T) {
	for _, k := range []tea.KeyMsg{keyEsc, runes("q")} {
		m, cmd := press(newMenuModel(testSpec), k)
		assert.NotNil(t, cmd)
		assert.Nil(t, m.(menuModel).selected)
	}
}

func TestMenuModel_View(t *testing.T) {
	m, _ := press(newMenuModel(testSpec), keyDown)
	view := m.View()
	assert.Contains(t, view, "ioutil-to-os")
	assert.Contains(t, view, "replace ioutil")
	assert.Contains(t, view, "[0.5.0, 1.0.0)")
	assert.Contains(t, view, "> No, skip it")
}

func TestShow_ShortContentIsPrinted(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Show(&out, "diff", "a\nb\n", true))
	assert.Equal(t, "a\nb\n", out.String())
}

func TestShow_NotInteractive(t *testing.T) {
	var content strings.Builder
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&content, "line %d\n", i)
	}
	var out bytes.Buffer
	require.NoError(t, Show(&out, "diff", content.String(), false))
	assert.Equal(t, content.String(), out.String())
}

func TestPagerModel(t *testing.T) {
	var content strings.Builder
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&content, "line %d\n", i)
	}

	var m tea.Model = newPagerModel("Diff: README.md", content.String())
	assert.Equal(t, "Initializing...", m.View())

	m, _ = m.Update(tea.WindowSizeMsg{Width: 40, Height: 10})
	view := m.View()
	assert.Contains(t, view, "Diff: README.md")
	assert.Contains(t, view, "line 0")
	assert.NotContains(t, view, "line 20")

	m, _ = m.Update(runes("G"))
	assert.Contains(t, m.View(), "line 49")

	_, cmd := m.Update(runes("q"))
	assert.NotNil(t, cmd)
}

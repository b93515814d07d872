package input

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrompt(t *testing.T) {
	tests := []struct {
		name  string
		input string
		def   string
		want  string
	}{
		{"typed value", "myapp\n", "app", "myapp"},
		{"enter takes default", "\n", "app", "app"},
		{"eof takes default", "", "app", "app"},
		{"value without newline", "last", "", "last"},
		{"trimmed", "  spaced  \n", "", "spaced"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(strings.NewReader(tt.input), io.Discard)
			assert.Equal(t, tt.want, r.Prompt("Name", tt.def))
		})
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input      string
		defaultYes bool
		want       bool
	}{
		{"y\n", false, true},
		{"YES\n", false, true},
		{"n\n", true, false},
		{"\n", true, true},
		{"\n", false, false},
		{"maybe\n", true, false},
	}

	for _, tt := range tests {
		r := New(strings.NewReader(tt.input), io.Discard)
		assert.Equal(t, tt.want, r.Confirm("Continue?", tt.defaultYes), "input %q", tt.input)
	}
}

func TestChoose(t *testing.T) {
	options := []Option{{"y", "yes"}, {"n", "no"}, {"a", "all"}, {"q", "quit"}}

	t.Run("by key", func(t *testing.T) {
		r := New(strings.NewReader("a\n"), io.Discard)
		i, err := r.Choose("Apply?", options, 0)
		require.NoError(t, err)
		assert.Equal(t, 2, i)
	})

	t.Run("by label", func(t *testing.T) {
		r := New(strings.NewReader("Quit\n"), io.Discard)
		i, err := r.Choose("Apply?", options, 0)
		require.NoError(t, err)
		assert.Equal(t, 3, i)
	})

	t.Run("re-asks on unknown answer", func(t *testing.T) {
		var out bytes.Buffer
		r := New(strings.NewReader("what\nn\n"), &out)
		i, err := r.Choose("Apply?", options, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, i)
		assert.Contains(t, out.String(), "Please answer y=yes, n=no, a=all, q=quit")
		assert.Contains(t, out.String(), "[Y/n/a/q]")
	})

	t.Run("eof", func(t *testing.T) {
		r := New(strings.NewReader(""), io.Discard)
		_, err := r.Choose("Apply?", options, 1)
		assert.ErrorIs(t, err, io.EOF)
	})
}

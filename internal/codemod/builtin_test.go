package codemod

import (
	"context"
	"runtime"
	"testing"

	"github.com/simonhull/firebird-suite/molt/internal/fstree"
	"github.com/simonhull/firebird-suite/molt/internal/version"
	"github.com/simonhull/firebird-suite/molt/internal/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, files map[string]string) *workspace.Dir {
	t.Helper()
	d := newDir(t)
	for p, data := range files {
		require.NoError(t, d.WriteFile(p, fstree.NewFile(data)))
	}
	return d
}

func builtin(t *testing.T, id string) Spec {
	t.Helper()
	s, ok := DefaultRegistry().Get(id)
	require.True(t, ok, "builtin %s not registered", id)
	return s
}

var fixedStep = Step{From: version.MustParse("0.1.0"), To: version.MustParse("9.0.0")}

// applyTwice runs the codemod twice and checks the second run is a no-op.
func applyTwice(t *testing.T, s Spec, d *workspace.Dir) []string {
	t.Helper()
	ctx := context.Background()

	touched, err := s.Transform.Apply(ctx, d, fixedStep)
	require.NoError(t, err)
	after, err := d.Load(fstree.LoadOptions{})
	require.NoError(t, err)

	again, err := s.Transform.Apply(ctx, d, fixedStep)
	require.NoError(t, err)
	assert.Empty(t, again, "second run touched files")
	final, err := d.Load(fstree.LoadOptions{})
	require.NoError(t, err)
	assert.True(t, after.Equal(final), "second run changed the tree")

	return touched
}

func read(t *testing.T, d *workspace.Dir, p string) string {
	t.Helper()
	f, ok, err := d.ReadFile(p)
	require.NoError(t, err)
	require.True(t, ok, "%s missing", p)
	return string(f.Data)
}

func TestBuiltin_IoutilToOS(t *testing.T) {
	d := seed(t, map[string]string{
		"go.mod": "module example.com/app\n\ngo 1.21\n",
		"main.go": `package main

import "io/ioutil"

func main() {
	_, _ = ioutil.ReadFile("x")
}
`,
		"README.md": "ioutil.ReadFile stays in prose\n",
	})

	touched := applyTwice(t, builtin(t, "ioutil-to-os"), d)
	assert.Equal(t, []string{"main.go"}, touched)
	assert.Contains(t, read(t, d, "main.go"), `os.ReadFile("x")`)
	assert.Equal(t, "ioutil.ReadFile stays in prose\n", read(t, d, "README.md"))
}

func TestBuiltin_InterfaceToAny(t *testing.T) {
	src := "package app\n\nfunc Use(v interface{}) {}\n"

	t.Run("modern go", func(t *testing.T) {
		d := seed(t, map[string]string{"go.mod": "module example.com/app\n\ngo 1.21\n", "app.go": src})
		touched := applyTwice(t, builtin(t, "interface-to-any"), d)
		assert.Equal(t, []string{"app.go"}, touched)
		assert.Contains(t, read(t, d, "app.go"), "func Use(v any) {}")
	})

	t.Run("go too old", func(t *testing.T) {
		d := seed(t, map[string]string{"go.mod": "module example.com/app\n\ngo 1.17\n", "app.go": src})
		touched := applyTwice(t, builtin(t, "interface-to-any"), d)
		assert.Empty(t, touched)
		assert.Equal(t, src, read(t, d, "app.go"))
	})
}

func TestBuiltin_AirTomlRename(t *testing.T) {
	d := seed(t, map[string]string{".air.conf": "root = \".\"\n"})

	touched := applyTwice(t, builtin(t, "air-toml-rename"), d)
	assert.Equal(t, []string{".air.conf", ".air.toml"}, touched)
	assert.Equal(t, "root = \".\"\n", read(t, d, ".air.toml"))
	_, ok, err := d.ReadFile(".air.conf")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBuiltin_GitignoreEnv(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  string
	}{
		{"creates file", map[string]string{}, ".env\n"},
		{"appends", map[string]string{".gitignore": "bin/\n"}, "bin/\n.env\n"},
		{"adds missing newline", map[string]string{".gitignore": "bin/"}, "bin/\n.env\n"},
		{"already present", map[string]string{".gitignore": ".env\nbin/\n"}, ".env\nbin/\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := seed(t, tt.files)
			applyTwice(t, builtin(t, "gitignore-env"), d)
			assert.Equal(t, tt.want, read(t, d, ".gitignore"))
		})
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	s := Spec{ID: "x", Transform: TreeTransform{Fn: EnsureLine("a", "b")}}
	require.NoError(t, r.Register(s))
	assert.Error(t, r.Register(s))
	assert.Error(t, r.Register(Spec{ID: "y"}))
	assert.Error(t, r.Register(Spec{Transform: s.Transform}))
	assert.Equal(t, 1, r.Len())

	var ids []string
	for _, s := range DefaultRegistry().Specs() {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"air-toml-rename", "gitignore-env", "interface-to-any", "ioutil-to-os"}, ids)
}

func TestCommandTransform(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a POSIX shell")
	}
	d := seed(t, map[string]string{"keep.txt": "keep\n", "old.txt": "old\n"})
	step := Step{From: version.MustParse("1.0.0"), To: version.MustParse("1.1.0")}

	ct := CommandTransform{Command: `printf '%s->%s' "$MOLT_FROM" "$MOLT_TO" > version.txt && rm old.txt`}
	touched, err := ct.Apply(context.Background(), d, step)
	require.NoError(t, err)
	assert.Equal(t, []string{"old.txt", "version.txt"}, touched)
	assert.Equal(t, "1.0.0->1.1.0", read(t, d, "version.txt"))

	_, err = CommandTransform{Command: "exit 3"}.Apply(context.Background(), d, step)
	assert.Error(t, err)
}

func TestCommand(t *testing.T) {
	s, err := Command("fmt", "format sources", "1.0.0", "", "gofmt -w .", true)
	require.NoError(t, err)
	assert.Equal(t, "[1.0.0, *)", s.Range.String())
	assert.True(t, s.Confirm)
	ct := s.Transform.(CommandTransform)
	assert.Equal(t, "gofmt -w .", ct.Command)
	assert.Equal(t, "fmt", ct.Prefix)

	_, err = Command("", "", "", "", "true", false)
	assert.Error(t, err)
	_, err = Command("x", "", "", "", " ", false)
	assert.Error(t, err)
	_, err = Command("x", "", "2.0.0", "1.0.0", "true", false)
	assert.ErrorIs(t, err, version.ErrInvalid)
}

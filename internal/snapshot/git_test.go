package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/firebird-suite/molt/internal/version"
)

var sig = &object.Signature{Name: "Blueprint Bot", Email: "bot@example.com", When: time.Unix(1700000000, 0)}

func write(t *testing.T, dir, rel, data string, mode os.FileMode) {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(data), mode))
}

// blueprintRepo creates a repository with v1.0.0 (lightweight tag) and
// v1.1.0 (annotated tag) blueprints under blueprint/.
func blueprintRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	w, err := repo.Worktree()
	require.NoError(t, err)

	write(t, dir, "blueprint/README.md", "# app\n", 0644)
	write(t, dir, "blueprint/go.mod.tmpl", "module {{.Module}}\n", 0644)
	write(t, dir, "blueprint/bin/dev", "#!/bin/sh\n", 0755)
	write(t, dir, "tooling.txt", "outside the blueprint\n", 0644)
	_, err = w.Add(".")
	require.NoError(t, err)
	h1, err := w.Commit("blueprint 1.0.0", &gogit.CommitOptions{Author: sig})
	require.NoError(t, err)
	_, err = repo.CreateTag("v1.0.0", h1, nil)
	require.NoError(t, err)

	write(t, dir, "blueprint/README.md", "# app\n\nNow with docs.\n", 0644)
	write(t, dir, "blueprint/codemods.yml", "codemods:\n  - id: docs\n    from: 1.0.0\n    until: 1.1.0\n    command: touch docs.md\n", 0644)
	_, err = w.Add(".")
	require.NoError(t, err)
	h2, err := w.Commit("blueprint 1.1.0", &gogit.CommitOptions{Author: sig})
	require.NoError(t, err)
	_, err = repo.CreateTag("v1.1.0", h2, &gogit.CreateTagOptions{Tagger: sig, Message: "1.1.0"})
	require.NoError(t, err)
	_, err = repo.CreateTag("nightly", h2, nil)
	require.NoError(t, err)

	return dir
}

func TestGitProvider(t *testing.T) {
	dir := blueprintRepo(t)
	ctx := context.Background()

	p, err := OpenGit(ctx, dir, "blueprint/", projectData)
	require.NoError(t, err)

	vs, err := p.Versions(ctx)
	require.NoError(t, err)
	require.Len(t, vs, 2)
	assert.Equal(t, "1.0.0", vs[0].String())
	assert.Equal(t, "1.1.0", vs[1].String())

	v1, err := p.Fetch(ctx, version.MustParse("1.0.0"))
	require.NoError(t, err)
	assert.Equal(t, []string{"README.md", "bin/dev", "go.mod"}, v1.Paths())
	gomod, _ := v1.Get("go.mod")
	assert.Equal(t, "module github.com/acme/shop\n", string(gomod.Data))
	dev, _ := v1.Get("bin/dev")
	assert.True(t, dev.Executable)

	v11, err := p.Fetch(ctx, version.MustParse("1.1.0"))
	require.NoError(t, err)
	assert.Equal(t, []string{"README.md", "bin/dev", "go.mod"}, v11.Paths())
	readme, _ := v11.Get("README.md")
	assert.Equal(t, "# app\n\nNow with docs.\n", string(readme.Data))

	specs, err := p.Codemods(ctx, version.MustParse("1.1.0"))
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "docs", specs[0].ID)

	_, err = p.Fetch(ctx, version.MustParse("2.0.0"))
	assert.ErrorIs(t, err, ErrUnknownVersion)
}

func TestGitProvider_MissingSubdir(t *testing.T) {
	dir := blueprintRepo(t)
	p, err := OpenGit(context.Background(), dir, "nope", projectData)
	require.NoError(t, err)

	_, err = p.Fetch(context.Background(), version.MustParse("1.0.0"))
	assert.Error(t, err)
}

package vcs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, dir, rel, data string) {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(data), 0644))
}

// initRepo commits files to a fresh repository and returns its directory.
func initRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	w, err := repo.Worktree()
	require.NoError(t, err)

	for rel, data := range files {
		write(t, dir, rel, data)
		_, err := w.Add(rel)
		require.NoError(t, err)
	}
	_, err = w.Commit("initial", &gogit.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Unix(1700000000, 0)},
	})
	require.NoError(t, err)
	return dir
}

func TestOpen_NotRepository(t *testing.T) {
	_, err := Open(t.TempDir())
	assert.ErrorIs(t, err, ErrNotRepository)
}

func TestIsCleanAndResidue(t *testing.T) {
	dir := initRepo(t, map[string]string{"README.md": "# app\n", "main.go": "package main\n"})
	r, err := Open(dir)
	require.NoError(t, err)
	assert.Equal(t, "", r.Prefix())

	clean, err := r.IsClean()
	require.NoError(t, err)
	assert.True(t, clean)

	write(t, dir, "README.md", "# app\n\nchanged\n")
	write(t, dir, "notes.txt", "new\n")

	clean, err = r.IsClean()
	require.NoError(t, err)
	assert.False(t, clean)

	residue, err := r.Residue()
	require.NoError(t, err)
	assert.Equal(t, []string{"README.md", "notes.txt"}, residue)
}

func TestStage(t *testing.T) {
	dir := initRepo(t, map[string]string{"README.md": "# app\n", "old.txt": "old\n", "keep.txt": "keep\n"})
	r, err := Open(dir)
	require.NoError(t, err)

	write(t, dir, "README.md", "# app v2\n")
	write(t, dir, "new.txt", "new\n")
	write(t, dir, "keep.txt", "edited by hand\n")
	require.NoError(t, os.Remove(filepath.Join(dir, "old.txt")))

	require.NoError(t, r.Stage([]string{"README.md", "new.txt", "old.txt", "never-existed.txt"}))

	residue, err := r.Residue()
	require.NoError(t, err)
	assert.Equal(t, []string{"keep.txt"}, residue)

	changed, err := r.Changed()
	require.NoError(t, err)
	assert.Equal(t, []string{"README.md", "keep.txt", "new.txt", "old.txt"}, changed)
}

func TestSubdirectoryProject(t *testing.T) {
	dir := initRepo(t, map[string]string{
		"apps/shop/README.md": "# shop\n",
		"docs/guide.md":       "guide\n",
	})
	r, err := Open(filepath.Join(dir, "apps", "shop"))
	require.NoError(t, err)
	assert.Equal(t, "apps/shop", r.Prefix())

	write(t, dir, "docs/guide.md", "changed outside the project\n")
	clean, err := r.IsClean()
	require.NoError(t, err)
	assert.True(t, clean, "changes outside the project are ignored")

	write(t, dir, "apps/shop/README.md", "# shop v2\n")
	write(t, dir, "apps/shop/.scaffold-version", "1.1.0\n")
	require.NoError(t, r.Stage([]string{"README.md", ".scaffold-version"}))

	residue, err := r.Residue()
	require.NoError(t, err)
	assert.Empty(t, residue)

	changed, err := r.Changed()
	require.NoError(t, err)
	assert.Equal(t, []string{".scaffold-version", "README.md"}, changed)
}

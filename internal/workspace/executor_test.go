package workspace_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/simonhull/firebird-suite/molt/internal/fstree"
	"github.com/simonhull/firebird-suite/molt/internal/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecute_RealRun(t *testing.T) {
	d, err := workspace.Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, d.WriteFile("old.txt", fstree.NewFile("old")))

	ops := []workspace.Operation{
		&workspace.WriteOp{Path: "test.txt", File: fstree.NewFile("hello")},
		&workspace.RenameOp{From: "old.txt", To: "archive/old.txt"},
	}

	require.NoError(t, d.Apply(context.Background(), ops))

	f, ok, _ := d.ReadFile("test.txt")
	require.True(t, ok)
	assert.Equal(t, "hello", string(f.Data))
	_, ok, _ = d.ReadFile("archive/old.txt")
	assert.True(t, ok)
	assert.NoFileExists(t, filepath.Join(d.Root(), "old.txt"))
}

func TestExecute_ValidationFailureWritesNothing(t *testing.T) {
	d, err := workspace.Open(t.TempDir())
	require.NoError(t, err)

	ops := []workspace.Operation{
		&workspace.WriteOp{Path: "first.txt", File: fstree.NewFile("1")},
		&workspace.RenameOp{From: "missing.txt", To: "b.txt"},
	}

	err = workspace.Execute(context.Background(), d, ops)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")

	_, ok, _ := d.ReadFile("first.txt")
	assert.False(t, ok)
}

func TestExecute_FailureRollsBack(t *testing.T) {
	d, err := workspace.Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, d.WriteFile("keep.txt", fstree.NewFile("original")))
	require.NoError(t, d.WriteFile("blocker", fstree.NewFile("a file, not a dir")))

	ops := []workspace.Operation{
		&workspace.WriteOp{Path: "keep.txt", File: fstree.NewFile("changed")},
		&workspace.WriteOp{Path: "new.txt", File: fstree.NewFile("new")},
		&workspace.WriteOp{Path: "blocker/child.txt", File: fstree.NewFile("fails")},
	}

	err = workspace.Execute(context.Background(), d, ops)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "execution failed: Write blocker/child.txt")
	assert.ErrorIs(t, err, fstree.ErrBlocked)

	f, _, _ := d.ReadFile("keep.txt")
	assert.Equal(t, "original", string(f.Data))
	_, ok, _ := d.ReadFile("new.txt")
	assert.False(t, ok, "new.txt should have been rolled back")
	blocker, ok, _ := d.ReadFile("blocker")
	require.True(t, ok)
	assert.Equal(t, "a file, not a dir", string(blocker.Data))
}

func TestTransaction_CommitDisablesRollback(t *testing.T) {
	d, err := workspace.Open(t.TempDir())
	require.NoError(t, err)

	tx := workspace.NewTransaction(d)
	require.NoError(t, tx.Apply(context.Background(), &workspace.WriteOp{Path: "a.txt", File: fstree.NewFile("a")}))
	assert.Equal(t, []string{"a.txt"}, tx.Touched())

	tx.Commit()
	require.NoError(t, tx.Rollback())

	_, ok, _ := d.ReadFile("a.txt")
	assert.True(t, ok)

	err = tx.Apply(context.Background(), &workspace.DeleteOp{Path: "a.txt"})
	assert.Error(t, err)
}

func TestTransaction_RollbackRestoresFirstState(t *testing.T) {
	d, err := workspace.Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, d.WriteFile("a.txt", fstree.NewFile("v1")))

	tx := workspace.NewTransaction(d)
	ctx := context.Background()
	require.NoError(t, tx.Apply(ctx, &workspace.WriteOp{Path: "a.txt", File: fstree.NewFile("v2")}))
	require.NoError(t, tx.Apply(ctx, &workspace.WriteOp{Path: "a.txt", File: fstree.NewFile("v3")}))
	require.NoError(t, tx.Apply(ctx, &workspace.DeleteOp{Path: "a.txt"}))

	require.NoError(t, tx.Rollback())

	f, ok, _ := d.ReadFile("a.txt")
	require.True(t, ok)
	assert.Equal(t, "v1", string(f.Data))
}

func TestPlan(t *testing.T) {
	before := fstree.FromMap(map[string]string{
		".air.conf": "root = \".\"\ncmd = \"go build\"\nbin = \"tmp/main\"\n",
		"a.txt":     "a\n",
		"b.txt":     "b\n",
	})
	after := fstree.FromMap(map[string]string{
		".air.toml": "root = \".\"\ncmd = \"go build\"\nbin = \"tmp/main\"\n",
		"a.txt":     "A\n",
		"c.txt":     "c\n",
	})

	var descs []string
	for _, op := range workspace.Plan(before, after) {
		descs = append(descs, op.Description())
	}

	assert.Equal(t, []string{
		"Delete b.txt",
		"Rename .air.conf -> .air.toml",
		"Write a.txt (2 bytes)",
		"Write c.txt (2 bytes)",
	}, descs)
}

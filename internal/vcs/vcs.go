// Package vcs is the version-control boundary of an update: finding the
// repository around a project, checking it is clean, staging what the
// update touched and reporting what was left unstaged.
//
// Paths in and out of this package are project-relative slash paths; the
// project may sit in a sub-directory of the repository.
package vcs

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/format/index"
)

// ErrNotRepository is returned when no repository encloses the project.
var ErrNotRepository = errors.New("not a git repository")

// Repo is a git repository seen from a project directory inside it.
type Repo struct {
	repo   *gogit.Repository
	wt     *gogit.Worktree
	root   string
	prefix string
}

// Open finds the repository enclosing dir.
func Open(dir string) (*Repo, error) {
	abs, err := realPath(dir)
	if err != nil {
		return nil, err
	}

	repo, err := gogit.PlainOpenWithOptions(abs, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", ErrNotRepository, dir)
		}
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to open worktree: %w", err)
	}

	root, err := realPath(wt.Filesystem.Root())
	if err != nil {
		return nil, err
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return nil, err
	}
	prefix := filepath.ToSlash(rel)
	if prefix == "." {
		prefix = ""
	}

	return &Repo{repo: repo, wt: wt, root: root, prefix: prefix}, nil
}

func realPath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// Root returns the repository's working directory.
func (r *Repo) Root() string {
	return r.root
}

// Prefix returns the project's path inside the repository, "" at the top.
func (r *Repo) Prefix() string {
	return r.prefix
}

func (r *Repo) toRepo(p string) string {
	if r.prefix == "" {
		return p
	}
	return path.Join(r.prefix, p)
}

// toProject maps a repository path into the project, reporting false for
// paths outside it.
func (r *Repo) toProject(p string) (string, bool) {
	if r.prefix == "" {
		return p, true
	}
	rel, ok := strings.CutPrefix(p, r.prefix+"/")
	return rel, ok
}

// Changed lists project paths with staged or unstaged changes, untracked
// files included.
func (r *Repo) Changed() ([]string, error) {
	return r.collect(func(s *gogit.FileStatus) bool {
		return s.Staging != gogit.Unmodified || s.Worktree != gogit.Unmodified
	})
}

// IsClean reports whether the project has no changes of any kind.
func (r *Repo) IsClean() (bool, error) {
	changed, err := r.Changed()
	if err != nil {
		return false, err
	}
	return len(changed) == 0, nil
}

// Residue lists project paths whose working-tree state differs from the
// index: unstaged edits and untracked files.
func (r *Repo) Residue() ([]string, error) {
	return r.collect(func(s *gogit.FileStatus) bool {
		return s.Worktree != gogit.Unmodified
	})
}

func (r *Repo) collect(match func(*gogit.FileStatus) bool) ([]string, error) {
	status, err := r.wt.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to read status: %w", err)
	}

	var paths []string
	for p, s := range status {
		if !match(s) {
			continue
		}
		if rel, ok := r.toProject(p); ok {
			paths = append(paths, rel)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// Stage records the current state of paths in the index. Paths that no
// longer exist are removed from it; missing paths that were never tracked
// are ignored.
func (r *Repo) Stage(paths []string) error {
	for _, p := range paths {
		rp := r.toRepo(p)
		if _, err := os.Lstat(filepath.Join(r.root, filepath.FromSlash(rp))); err == nil {
			if _, err := r.wt.Add(rp); err != nil {
				return fmt.Errorf("failed to stage %s: %w", p, err)
			}
			continue
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}

		if _, err := r.wt.Remove(rp); err != nil && !errors.Is(err, index.ErrEntryNotFound) {
			return fmt.Errorf("failed to stage removal of %s: %w", p, err)
		}
	}
	return nil
}

package fstree

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gobwas/glob"
)

// DefaultIgnore are patterns skipped when loading a working tree.
var DefaultIgnore = []string{
	".git/**", ".svn/**", ".hg/**",
	"node_modules/**", "vendor/**", "tmp/**",
	".idea/**", ".vscode/**",
}

// LoadOptions configures tree loading.
type LoadOptions struct {
	Ignore []string // glob patterns over slash paths (default: DefaultIgnore)
}

// Matcher reports whether a relative path is ignored.
type Matcher struct {
	globs []glob.Glob
}

// NewMatcher compiles ignore patterns. "**" crosses directory separators,
// "*" does not.
func NewMatcher(patterns []string) (*Matcher, error) {
	m := &Matcher{}
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", p, err)
		}
		m.globs = append(m.globs, g)
	}
	return m, nil
}

// Match reports whether path is ignored.
func (m *Matcher) Match(p string) bool {
	for _, g := range m.globs {
		if g.Match(p) {
			return true
		}
	}
	return false
}

// MatchDir reports whether everything below directory dir is ignored.
func (m *Matcher) MatchDir(dir string) bool {
	return m.Match(dir + "/")
}

func (o LoadOptions) matcher() (*Matcher, error) {
	patterns := o.Ignore
	if patterns == nil {
		patterns = DefaultIgnore
	}
	return NewMatcher(patterns)
}

// Load reads every file below root into a tree. Symbolic links are recorded
// as links, not followed.
func Load(root string, opts LoadOptions) (*Tree, error) {
	m, err := opts.matcher()
	if err != nil {
		return nil, err
	}

	t := New()
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if m.MatchDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if m.Match(rel) {
			return nil
		}

		f, err := readFile(p, d)
		if err != nil {
			return err
		}
		t.Put(rel, f)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load tree %s: %w", root, err)
	}

	return t, nil
}

// ReadDiskFile reads a single file from disk with its metadata.
func ReadDiskFile(p string) (*File, error) {
	info, err := os.Lstat(p)
	if err != nil {
		return nil, err
	}
	return readFile(p, fs.FileInfoToDirEntry(info))
}

func readFile(p string, d fs.DirEntry) (*File, error) {
	info, err := d.Info()
	if err != nil {
		return nil, err
	}

	if info.Mode()&fs.ModeSymlink != 0 {
		target, err := os.Readlink(p)
		if err != nil {
			return nil, err
		}
		return &File{Symlink: filepath.ToSlash(target)}, nil
	}

	data, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	return &File{
		Data:       data,
		Executable: info.Mode().Perm()&0111 != 0,
	}, nil
}

// LoadFS reads every file of fsys below dir into a tree rooted at dir.
// Paths in the result are relative to dir. Symbolic links are recorded as
// links when fsys implements fs.ReadLinkFS and followed otherwise.
func LoadFS(fsys fs.FS, dir string, opts LoadOptions) (*Tree, error) {
	m, err := opts.matcher()
	if err != nil {
		return nil, err
	}
	if dir == "" {
		dir = "."
	}

	t := New()
	err = fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == dir {
			return nil
		}

		rel := p
		if dir != "." {
			rel = p[len(dir)+1:]
		}

		if d.IsDir() {
			if m.MatchDir(rel) {
				return fs.SkipDir
			}
			return nil
		}
		if m.Match(rel) {
			return nil
		}

		if rl, ok := fsys.(fs.ReadLinkFS); ok && d.Type()&fs.ModeSymlink != 0 {
			target, err := rl.ReadLink(p)
			if err != nil {
				return err
			}
			t.Put(rel, &File{Symlink: filepath.ToSlash(target)})
			return nil
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		t.Put(rel, &File{
			Data:       data,
			Executable: info.Mode().Perm()&0111 != 0,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load tree %s: %w", dir, err)
	}

	return t, nil
}

// Package workspace is read/write access to a project's working tree on disk.
//
// All paths are slash-separated and relative to the project root; paths that
// would escape the root are rejected.
package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"syscall"

	"github.com/simonhull/firebird-suite/molt/internal/fstree"
)

// Dir is a working tree rooted at a project directory.
type Dir struct {
	root string
}

// Open returns the working tree rooted at root, which must be a directory.
func Open(root string) (*Dir, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("open workspace: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open workspace: %s is not a directory", abs)
	}
	return &Dir{root: abs}, nil
}

// Root returns the absolute project directory.
func (d *Dir) Root() string {
	return d.root
}

// Abs resolves a project-relative path to an absolute one.
func (d *Dir) Abs(p string) (string, error) {
	clean := path.Clean(filepath.ToSlash(p))
	if err := fstree.ValidatePath(clean); err != nil {
		return "", err
	}
	return filepath.Join(d.root, filepath.FromSlash(clean)), nil
}

// Load reads the working tree into memory.
func (d *Dir) Load(opts fstree.LoadOptions) (*fstree.Tree, error) {
	return fstree.Load(d.root, opts)
}

// ReadFile returns the file at p. A missing path is reported through the
// boolean, never as an error. A directory at p, or a file above it, fails
// with fstree.ErrBlocked.
func (d *Dir) ReadFile(p string) (*fstree.File, bool, error) {
	abs, err := d.Abs(p)
	if err != nil {
		return nil, false, err
	}
	info, err := os.Lstat(abs)
	switch {
	case errors.Is(err, syscall.ENOTDIR):
		return nil, false, fmt.Errorf("%s: %w", p, fstree.ErrBlocked)
	case errors.Is(err, fs.ErrNotExist):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	case info.IsDir():
		return nil, false, fmt.Errorf("%s: %w", p, fstree.ErrBlocked)
	}

	f, err := fstree.ReadDiskFile(abs)
	if err != nil {
		return nil, false, err
	}
	return f, true, nil
}

// WriteFile writes f at p, creating parent directories and replacing whatever
// was there.
func (d *Dir) WriteFile(p string, f *fstree.File) error {
	abs, err := d.Abs(p)
	if err != nil {
		return err
	}
	if err := mkdirFor(abs, p); err != nil {
		return err
	}
	if info, err := os.Lstat(abs); err == nil && info.IsDir() {
		return fmt.Errorf("%s: %w", p, fstree.ErrBlocked)
	}

	// Never write through an existing symlink
	if info, err := os.Lstat(abs); err == nil && (info.Mode()&fs.ModeSymlink != 0 || f.Symlink != "") {
		if err := os.Remove(abs); err != nil {
			return err
		}
	}

	if f.Symlink != "" {
		return os.Symlink(f.Symlink, abs)
	}

	tmp, err := os.CreateTemp(filepath.Dir(abs), ".molt-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(f.Data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), f.Mode()); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), abs)
}

// RemoveFile deletes p and any parent directories left empty. Removing a
// missing path is not an error.
func (d *Dir) RemoveFile(p string) error {
	abs, err := d.Abs(p)
	if err != nil {
		return err
	}
	err = os.Remove(abs)
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENOTDIR):
		return nil
	case err != nil:
		return err
	}
	d.prune(filepath.Dir(abs))
	return nil
}

// RenameFile moves oldPath to newPath, replacing any file at newPath. A file
// may move into a directory at its own path, or out of one, as long as
// nothing else is in the way.
func (d *Dir) RenameFile(oldPath, newPath string) error {
	from, err := d.Abs(oldPath)
	if err != nil {
		return err
	}
	to, err := d.Abs(newPath)
	if err != nil {
		return err
	}
	if fstree.Nested(filepath.ToSlash(from), filepath.ToSlash(to)) {
		return d.renameNested(from, to, newPath)
	}

	if err := mkdirFor(to, newPath); err != nil {
		return err
	}
	if info, err := os.Lstat(to); err == nil && info.IsDir() {
		return fmt.Errorf("%s: %w", newPath, fstree.ErrBlocked)
	}
	if err := os.Rename(from, to); err != nil {
		return err
	}
	d.prune(filepath.Dir(from))
	return nil
}

// renameNested parks the file outside both paths while the directory between
// them is created or pruned, and puts it back when to stays blocked.
func (d *Dir) renameNested(from, to, newPath string) error {
	park, err := os.MkdirTemp(d.root, ".molt-rename-*")
	if err != nil {
		return err
	}
	defer os.Remove(park)

	parked := filepath.Join(park, filepath.Base(from))
	if err := os.Rename(from, parked); err != nil {
		return err
	}
	d.prune(filepath.Dir(from))

	if info, err := os.Lstat(to); err == nil && info.IsDir() {
		if err := os.MkdirAll(filepath.Dir(from), 0755); err != nil {
			return err
		}
		if err := os.Rename(parked, from); err != nil {
			return err
		}
		return fmt.Errorf("%s: %w", newPath, fstree.ErrBlocked)
	}
	if err := mkdirFor(to, newPath); err != nil {
		return err
	}
	return os.Rename(parked, to)
}

// mkdirFor creates the parent directories of abs. A file in the way is
// reported as fstree.ErrBlocked.
func mkdirFor(abs, p string) error {
	err := os.MkdirAll(filepath.Dir(abs), 0755)
	if errors.Is(err, syscall.ENOTDIR) || errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%s: %w", p, fstree.ErrBlocked)
	}
	if err != nil {
		return fmt.Errorf("cannot create directory for %s: %w", p, err)
	}
	return nil
}

// prune removes empty directories from dir up to, not including, the root.
func (d *Dir) prune(dir string) {
	for dir != d.root && len(dir) > len(d.root) {
		if info, err := os.Lstat(dir); err != nil || !info.IsDir() {
			return
		}
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

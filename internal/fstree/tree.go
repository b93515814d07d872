// Package fstree models a file tree as an ordered set of relative paths to
// content blobs plus per-path metadata.
//
// Trees are used for the scaffolding snapshots compared by the patch engine
// and, through Tree's file methods, as an in-memory stand-in for a working
// tree (dry runs and tests).
package fstree

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

var (
	// ErrInvalidPath is returned for paths that escape the tree root.
	ErrInvalidPath = errors.New("invalid tree path")
	// ErrBlocked is returned for a path held by a directory or sitting
	// below a file.
	ErrBlocked = errors.New("path blocked by a directory or a file")
)

// File is a single blob with its metadata.
type File struct {
	Data       []byte
	Executable bool
	Symlink    string // link target; Data is empty when set
}

// NewFile creates a regular, non-executable file.
func NewFile(data string) *File {
	return &File{Data: []byte(data)}
}

// Equal reports whether both files have identical content and metadata.
func (f *File) Equal(o *File) bool {
	if f == nil || o == nil {
		return f == o
	}
	return f.Executable == o.Executable &&
		f.Symlink == o.Symlink &&
		bytes.Equal(f.Data, o.Data)
}

// SameContent compares content only, ignoring the executable bit.
func (f *File) SameContent(o *File) bool {
	if f == nil || o == nil {
		return f == o
	}
	return f.Symlink == o.Symlink && bytes.Equal(f.Data, o.Data)
}

// IsBinary reports whether the content should be treated as opaque bytes.
// Symlinks are always opaque.
func (f *File) IsBinary() bool {
	return f.Symlink != "" || IsBinary(f.Data)
}

// Mode returns the permission bits a file should be written with.
func (f *File) Mode() fs.FileMode {
	if f.Executable {
		return 0755
	}
	return 0644
}

// Clone returns a deep copy.
func (f *File) Clone() *File {
	if f == nil {
		return nil
	}
	c := *f
	c.Data = append([]byte(nil), f.Data...)
	return &c
}

// IsBinary checks if content appears to be binary (contains null bytes in
// the first 8KiB).
func IsBinary(data []byte) bool {
	checkLen := len(data)
	if checkLen > 8192 {
		checkLen = 8192
	}
	return bytes.IndexByte(data[:checkLen], 0) != -1
}

// Tree is a set of files keyed by slash-separated relative path.
type Tree struct {
	files map[string]*File
}

// New creates an empty tree.
func New() *Tree {
	return &Tree{files: make(map[string]*File)}
}

// FromMap builds a tree of regular files, mostly for tests and fixtures.
func FromMap(m map[string]string) *Tree {
	t := New()
	for p, data := range m {
		t.files[CleanPath(p)] = NewFile(data)
	}
	return t
}

// CleanPath normalizes a relative path to slash form without a leading "./".
func CleanPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	return strings.TrimPrefix(path.Clean("/"+p), "/")
}

// ValidatePath rejects empty, absolute and parent-escaping paths.
func ValidatePath(p string) error {
	if p == "" || p == "." {
		return fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	if strings.HasPrefix(p, "/") || p == ".." || strings.HasPrefix(p, "../") {
		return fmt.Errorf("%w: %s", ErrInvalidPath, p)
	}
	if !fs.ValidPath(p) {
		return fmt.Errorf("%w: %s", ErrInvalidPath, p)
	}
	return nil
}

// Nested reports whether one of a and b is a directory containing the other.
func Nested(a, b string) bool {
	return strings.HasPrefix(b, a+"/") || strings.HasPrefix(a, b+"/")
}

// checkPath validates p before CleanPath would fold away a leading "../".
func checkPath(p string) (string, error) {
	clean := path.Clean(strings.ReplaceAll(p, "\\", "/"))
	if err := ValidatePath(clean); err != nil {
		return "", err
	}
	return clean, nil
}

// Put stores a file at path, replacing any previous entry.
func (t *Tree) Put(p string, f *File) {
	t.files[CleanPath(p)] = f
}

// Get returns the file at path.
func (t *Tree) Get(p string) (*File, bool) {
	f, ok := t.files[CleanPath(p)]
	return f, ok
}

// Has reports whether path exists.
func (t *Tree) Has(p string) bool {
	_, ok := t.files[CleanPath(p)]
	return ok
}

// Delete removes path if present.
func (t *Tree) Delete(p string) {
	delete(t.files, CleanPath(p))
}

// Len returns the number of files.
func (t *Tree) Len() int {
	return len(t.files)
}

// Paths returns all paths in lexicographic order.
func (t *Tree) Paths() []string {
	paths := make([]string, 0, len(t.files))
	for p := range t.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Clone returns a deep copy of the tree.
func (t *Tree) Clone() *Tree {
	c := New()
	for p, f := range t.files {
		c.files[p] = f.Clone()
	}
	return c
}

// Equal reports whether both trees hold the same paths with equal files.
func (t *Tree) Equal(o *Tree) bool {
	if t.Len() != o.Len() {
		return false
	}
	for p, f := range t.files {
		of, ok := o.files[p]
		if !ok || !f.Equal(of) {
			return false
		}
	}
	return true
}

// blocked reports whether p is a directory of the tree or sits below a file.
func (t *Tree) blocked(p string) bool {
	if _, ok := t.files[p]; ok {
		return false
	}
	for dir := path.Dir(p); dir != "."; dir = path.Dir(dir) {
		if _, ok := t.files[dir]; ok {
			return true
		}
	}
	prefix := p + "/"
	for q := range t.files {
		if strings.HasPrefix(q, prefix) {
			return true
		}
	}
	return false
}

// ReadFile returns the file at path. A missing path is reported through the
// boolean, never as an error; a blocked one fails with ErrBlocked.
func (t *Tree) ReadFile(p string) (*File, bool, error) {
	p = CleanPath(p)
	f, ok := t.files[p]
	if !ok {
		if t.blocked(p) {
			return nil, false, fmt.Errorf("%s: %w", p, ErrBlocked)
		}
		return nil, false, nil
	}
	return f.Clone(), true, nil
}

// WriteFile stores a copy of f at path.
func (t *Tree) WriteFile(p string, f *File) error {
	p, err := checkPath(p)
	if err != nil {
		return err
	}
	if t.blocked(p) {
		return fmt.Errorf("%s: %w", p, ErrBlocked)
	}
	t.files[p] = f.Clone()
	return nil
}

// RemoveFile deletes path. Removing a missing path is not an error.
func (t *Tree) RemoveFile(p string) error {
	t.Delete(p)
	return nil
}

// RenameFile moves oldPath to newPath, replacing any file at newPath.
func (t *Tree) RenameFile(oldPath, newPath string) error {
	oldPath = CleanPath(oldPath)
	f, ok := t.files[oldPath]
	if !ok {
		return fmt.Errorf("rename %s: %w", oldPath, fs.ErrNotExist)
	}
	newPath, err := checkPath(newPath)
	if err != nil {
		return err
	}

	delete(t.files, oldPath)
	if t.blocked(newPath) {
		t.files[oldPath] = f
		return fmt.Errorf("rename %s: %w", newPath, ErrBlocked)
	}
	t.files[newPath] = f
	return nil
}

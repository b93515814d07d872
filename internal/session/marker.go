package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/simonhull/firebird-suite/molt/internal/version"
)

// ReadMarker reads the version recorded in the marker file name under root.
func ReadMarker(root, name string) (*version.Version, error) {
	p := filepath.Join(root, name)
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s not found", ErrNoMarker, name)
		}
		return nil, &FatalIOError{Op: "read marker", Path: name, Err: err}
	}

	v, err := version.Parse(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("marker %s: %w", name, err)
	}
	return v, nil
}

// WriteMarker records v in the marker file. The file is replaced atomically.
func WriteMarker(root, name string, v *version.Version) error {
	p := filepath.Join(root, name)

	tmp, err := os.CreateTemp(filepath.Dir(p), ".molt-marker-*")
	if err != nil {
		return &FatalIOError{Op: "write marker", Path: name, Err: err}
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(v.String() + "\n"); err != nil {
		tmp.Close()
		return &FatalIOError{Op: "write marker", Path: name, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &FatalIOError{Op: "write marker", Path: name, Err: err}
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return &FatalIOError{Op: "write marker", Path: name, Err: err}
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return &FatalIOError{Op: "write marker", Path: name, Err: err}
	}
	return nil
}

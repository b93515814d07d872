// Package project locates the scaffolded project and reads the module data
// its blueprint templates were rendered with.
package project

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"golang.org/x/mod/modfile"
)

// ConfigName is the molt configuration file at the project root.
const ConfigName = "molt.yml"

// ErrNoProject is returned when no project root is found.
var ErrNoProject = errors.New("no scaffolded project found")

// FindRoot walks up from start to the first directory containing one of
// markers (default: molt.yml). It never climbs past a repository root.
func FindRoot(start string, markers ...string) (string, error) {
	if len(markers) == 0 {
		markers = []string{ConfigName}
	}
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}

	for {
		for _, m := range markers {
			if _, err := os.Stat(filepath.Join(dir, m)); err == nil {
				return dir, nil
			}
		}
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("%w above %s", ErrNoProject, start)
}

// ModuleInfo contains information from go.mod
type ModuleInfo struct {
	Path      string // Module path (e.g., "github.com/user/repo")
	GoVersion string // Go version requirement (e.g., "1.21")
}

// Name is the last element of the module path.
func (m *ModuleInfo) Name() string {
	return path.Base(m.Path)
}

// DetectModule reads go.mod at rootPath.
func DetectModule(rootPath string) (*ModuleInfo, error) {
	modPath := filepath.Join(rootPath, "go.mod")
	data, err := os.ReadFile(modPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("go.mod not found in %s", rootPath)
		}
		return nil, fmt.Errorf("failed to read go.mod: %w", err)
	}

	modFile, err := modfile.Parse(modPath, data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to parse go.mod: %w", err)
	}
	if modFile.Module == nil {
		return nil, fmt.Errorf("go.mod in %s has no module directive", rootPath)
	}

	info := &ModuleInfo{Path: modFile.Module.Mod.Path}
	if modFile.Go != nil {
		info.GoVersion = modFile.Go.Version
	}
	return info, nil
}

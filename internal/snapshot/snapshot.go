// Package snapshot produces the pristine scaffolding tree for a blueprint
// version.
//
// Blueprints are laid out one directory per version, either as directories
// of a file system (FSProvider) or as tagged commits of a git repository
// (GitProvider). Files ending in .tmpl are rendered with the project's Data
// and the suffix stripped. A codemods.yml at the root of a version declares
// the command codemods shipped with it; it is never part of the tree.
package snapshot

import (
	"context"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/simonhull/firebird-suite/molt/internal/codemod"
	"github.com/simonhull/firebird-suite/molt/internal/fstree"
	"github.com/simonhull/firebird-suite/molt/internal/version"
)

// ManifestName is the blueprint file declaring command codemods.
const ManifestName = "codemods.yml"

// ErrUnknownVersion is returned when a provider has no blueprint for a version.
var ErrUnknownVersion = errors.New("unknown blueprint version")

// Provider produces the scaffolding tree for a version. Fetch must be
// deterministic for a given version.
type Provider interface {
	Fetch(ctx context.Context, v *version.Version) (*fstree.Tree, error)
	Versions(ctx context.Context) ([]*version.Version, error)
}

// CodemodSource is implemented by providers whose blueprints ship codemods.
type CodemodSource interface {
	Codemods(ctx context.Context, v *version.Version) ([]codemod.Spec, error)
}

// Data is the project data blueprint templates are rendered with.
type Data struct {
	Name    string
	Module  string
	Version string
}

// Manifest is the parsed codemods.yml.
type Manifest struct {
	Codemods []ManifestEntry `yaml:"codemods"`
}

// ManifestEntry declares one command codemod.
type ManifestEntry struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description"`
	From        string `yaml:"from"`
	Until       string `yaml:"until"`
	Command     string `yaml:"command"`
	Confirm     bool   `yaml:"confirm"`
}

// ParseManifest decodes a codemods.yml document.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ManifestName, err)
	}
	return &m, nil
}

// Specs converts the manifest entries to codemod specs.
func (m *Manifest) Specs() ([]codemod.Spec, error) {
	specs := make([]codemod.Spec, 0, len(m.Codemods))
	for _, e := range m.Codemods {
		s, err := codemod.Command(e.ID, e.Description, e.From, e.Until, e.Command, e.Confirm)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ManifestName, err)
		}
		specs = append(specs, s)
	}
	return specs, nil
}

// finish removes the manifest from a raw blueprint tree and renders its
// templates.
func finish(raw *fstree.Tree, r *Renderer, data Data) (*fstree.Tree, error) {
	raw.Delete(ManifestName)
	return r.RenderTree(raw, data)
}

// manifestSpecs reads the codemods declared in a raw blueprint tree.
func manifestSpecs(raw *fstree.Tree) ([]codemod.Spec, error) {
	f, ok := raw.Get(ManifestName)
	if !ok {
		return nil, nil
	}
	m, err := ParseManifest(f.Data)
	if err != nil {
		return nil, err
	}
	return m.Specs()
}

// Static serves fixed in-memory trees; used by diff previews and tests.
type Static map[string]*fstree.Tree

func (s Static) Fetch(_ context.Context, v *version.Version) (*fstree.Tree, error) {
	for key, t := range s {
		if kv, err := version.Parse(key); err == nil && kv.Equal(v) {
			return t.Clone(), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownVersion, v)
}

func (s Static) Versions(context.Context) ([]*version.Version, error) {
	var vs []*version.Version
	for key := range s {
		v, err := version.Parse(key)
		if err != nil {
			return nil, err
		}
		vs = append(vs, v)
	}
	version.Sort(vs)
	return vs, nil
}

package snapshot

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/simonhull/firebird-suite/molt/internal/codemod"
	"github.com/simonhull/firebird-suite/molt/internal/fstree"
	"github.com/simonhull/firebird-suite/molt/internal/version"
)

// FSProvider serves blueprints from version-named directories of a file
// system, such as "1.2.0/" or "v1.2.0/". Entries that are not versions are
// ignored.
type FSProvider struct {
	fsys     fs.FS
	data     Data
	renderer *Renderer
}

// NewFSProvider creates a provider over fsys.
func NewFSProvider(fsys fs.FS, data Data) *FSProvider {
	return &FSProvider{fsys: fsys, data: data, renderer: NewRenderer()}
}

func (p *FSProvider) Versions(ctx context.Context) ([]*version.Version, error) {
	dirs, err := p.dirs()
	if err != nil {
		return nil, err
	}
	vs := make([]*version.Version, 0, len(dirs))
	for _, d := range dirs {
		vs = append(vs, d.v)
	}
	version.Sort(vs)
	return vs, nil
}

func (p *FSProvider) Fetch(ctx context.Context, v *version.Version) (*fstree.Tree, error) {
	raw, err := p.raw(ctx, v)
	if err != nil {
		return nil, err
	}
	data := p.data
	data.Version = v.String()
	return finish(raw, p.renderer, data)
}

func (p *FSProvider) Codemods(ctx context.Context, v *version.Version) ([]codemod.Spec, error) {
	raw, err := p.raw(ctx, v)
	if err != nil {
		return nil, err
	}
	return manifestSpecs(raw)
}

func (p *FSProvider) raw(ctx context.Context, v *version.Version) (*fstree.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dirs, err := p.dirs()
	if err != nil {
		return nil, err
	}
	for _, d := range dirs {
		if d.v.Equal(v) {
			return fstree.LoadFS(p.fsys, d.name, fstree.LoadOptions{Ignore: []string{}})
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownVersion, v)
}

type versionDir struct {
	name string
	v    *version.Version
}

func (p *FSProvider) dirs() ([]versionDir, error) {
	entries, err := fs.ReadDir(p.fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to list blueprints: %w", err)
	}
	var dirs []versionDir
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		v, err := version.Parse(e.Name())
		if err != nil {
			continue
		}
		dirs = append(dirs, versionDir{name: e.Name(), v: v})
	}
	return dirs, nil
}

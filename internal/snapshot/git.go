package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"

	"github.com/simonhull/firebird-suite/molt/internal/codemod"
	"github.com/simonhull/firebird-suite/molt/internal/fstree"
	"github.com/simonhull/firebird-suite/molt/internal/version"
)

// GitProvider serves blueprints from the tags of a git repository. Each tag
// that parses as a version ("v1.2.0", "1.2.0") names the commit holding that
// version; Subdir selects a directory inside it.
type GitProvider struct {
	repo     *gogit.Repository
	subdir   string
	data     Data
	renderer *Renderer
}

// NewGitProvider wraps an open repository.
func NewGitProvider(repo *gogit.Repository, subdir string, data Data) *GitProvider {
	return &GitProvider{repo: repo, subdir: path.Clean("/" + subdir)[1:], data: data, renderer: NewRenderer()}
}

// OpenGit opens source as a local repository, or clones it into memory when
// it is not a local directory.
func OpenGit(ctx context.Context, source, subdir string, data Data) (*GitProvider, error) {
	var (
		repo *gogit.Repository
		err  error
	)
	if info, statErr := os.Stat(source); statErr == nil && info.IsDir() {
		repo, err = gogit.PlainOpen(source)
	} else {
		repo, err = gogit.CloneContext(ctx, memory.NewStorage(), nil, &gogit.CloneOptions{
			URL:  source,
			Tags: gogit.AllTags,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open blueprint repository %s: %w", source, err)
	}
	return NewGitProvider(repo, subdir, data), nil
}

func (p *GitProvider) Versions(ctx context.Context) ([]*version.Version, error) {
	tags, err := p.tags()
	if err != nil {
		return nil, err
	}
	vs := make([]*version.Version, 0, len(tags))
	for _, t := range tags {
		vs = append(vs, t.v)
	}
	version.Sort(vs)
	return vs, nil
}

func (p *GitProvider) Fetch(ctx context.Context, v *version.Version) (*fstree.Tree, error) {
	raw, err := p.raw(ctx, v)
	if err != nil {
		return nil, err
	}
	data := p.data
	data.Version = v.String()
	return finish(raw, p.renderer, data)
}

func (p *GitProvider) Codemods(ctx context.Context, v *version.Version) ([]codemod.Spec, error) {
	raw, err := p.raw(ctx, v)
	if err != nil {
		return nil, err
	}
	return manifestSpecs(raw)
}

type versionTag struct {
	ref *plumbing.Reference
	v   *version.Version
}

func (p *GitProvider) tags() ([]versionTag, error) {
	iter, err := p.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer iter.Close()

	var tags []versionTag
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if v, err := version.Parse(ref.Name().Short()); err == nil {
			tags = append(tags, versionTag{ref: ref, v: v})
		}
		return nil
	})
	return tags, err
}

func (p *GitProvider) raw(ctx context.Context, v *version.Version) (*fstree.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tags, err := p.tags()
	if err != nil {
		return nil, err
	}
	for _, t := range tags {
		if t.v.Equal(v) {
			return p.load(t.ref)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownVersion, v)
}

func (p *GitProvider) commit(ref *plumbing.Reference) (*object.Commit, error) {
	tag, err := p.repo.TagObject(ref.Hash())
	switch {
	case err == nil:
		return tag.Commit()
	case errors.Is(err, plumbing.ErrObjectNotFound):
		return p.repo.CommitObject(ref.Hash())
	default:
		return nil, err
	}
}

func (p *GitProvider) load(ref *plumbing.Reference) (*fstree.Tree, error) {
	commit, err := p.commit(ref)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", ref.Name().Short(), err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, err
	}
	if p.subdir != "" {
		if tree, err = tree.Tree(p.subdir); err != nil {
			return nil, fmt.Errorf("%s has no directory %s: %w", ref.Name().Short(), p.subdir, err)
		}
	}

	t := fstree.New()
	err = tree.Files().ForEach(func(f *object.File) error {
		contents, err := f.Contents()
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", f.Name, err)
		}
		switch f.Mode {
		case filemode.Symlink:
			t.Put(f.Name, &fstree.File{Symlink: contents})
		default:
			t.Put(f.Name, &fstree.File{Data: []byte(contents), Executable: f.Mode == filemode.Executable})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

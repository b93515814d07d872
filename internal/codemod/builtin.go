package codemod

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/semver"

	"github.com/simonhull/firebird-suite/molt/internal/codemod/gosrc"
	"github.com/simonhull/firebird-suite/molt/internal/fstree"
	"github.com/simonhull/firebird-suite/molt/internal/version"
)

// Builtins returns the codemods bundled with molt.
func Builtins() []Spec {
	return []Spec{
		{
			ID:          "ioutil-to-os",
			Description: "replace deprecated io/ioutil calls with os and io",
			Range:       version.MustRange("0.5.0", "1.0.0"),
			Confirm:     true,
			Transform:   TreeTransform{Fn: GoRewrite(gosrc.ReplaceIoutil{})},
		},
		{
			ID:          "interface-to-any",
			Description: "spell interface{} as any",
			Range:       version.MustRange("1.0.0", "2.0.0"),
			Confirm:     true,
			Transform:   TreeTransform{Fn: requireGo("1.18", GoRewrite(gosrc.InterfaceToAny{}))},
		},
		{
			ID:          "air-toml-rename",
			Description: "rename .air.conf to .air.toml",
			Range:       version.MustRange("1.1.0", "1.2.0"),
			Transform:   TreeTransform{Fn: RenameFile(".air.conf", ".air.toml")},
		},
		{
			ID:          "gitignore-env",
			Description: "keep .env out of version control",
			Range:       version.MustRange("1.2.0", "1.3.0"),
			Transform:   TreeTransform{Fn: EnsureLine(".gitignore", ".env")},
		},
	}
}

// GoRewrite applies AST modifications to every .go file in the tree.
func GoRewrite(mods ...gosrc.Modification) TreeFunc {
	return func(tree *fstree.Tree, _ Step) error {
		for _, p := range tree.Paths() {
			if path.Ext(p) != ".go" {
				continue
			}
			f, _ := tree.Get(p)
			if f.Symlink != "" {
				continue
			}
			src, changed, err := gosrc.Rewrite(p, f.Data, mods...)
			if err != nil {
				return err
			}
			if !changed {
				continue
			}
			nf := f.Clone()
			nf.Data = src
			tree.Put(p, nf)
		}
		return nil
	}
}

// requireGo runs fn only when go.mod declares at least the given Go version.
func requireGo(minVersion string, fn TreeFunc) TreeFunc {
	return func(tree *fstree.Tree, step Step) error {
		f, ok := tree.Get("go.mod")
		if !ok {
			return nil
		}
		mf, err := modfile.ParseLax("go.mod", f.Data, nil)
		if err != nil {
			return fmt.Errorf("parsing go.mod: %w", err)
		}
		if mf.Go == nil || semver.Compare("v"+mf.Go.Version, "v"+minVersion) < 0 {
			return nil
		}
		return fn(tree, step)
	}
}

// RenameFile moves from to to unless to already exists.
func RenameFile(from, to string) TreeFunc {
	return func(tree *fstree.Tree, _ Step) error {
		if tree.Has(to) || !tree.Has(from) {
			return nil
		}
		return tree.RenameFile(from, to)
	}
}

// EnsureLine appends line to the file at p, creating it, unless an identical
// line is already present.
func EnsureLine(p, line string) TreeFunc {
	return func(tree *fstree.Tree, _ Step) error {
		f, ok := tree.Get(p)
		if !ok {
			tree.Put(p, fstree.NewFile(line+"\n"))
			return nil
		}
		if f.Symlink != "" {
			return fmt.Errorf("%s is a symbolic link", p)
		}
		for _, l := range strings.Split(string(f.Data), "\n") {
			if strings.TrimSpace(l) == line {
				return nil
			}
		}

		nf := f.Clone()
		if len(nf.Data) > 0 && !bytes.HasSuffix(nf.Data, []byte("\n")) {
			nf.Data = append(nf.Data, '\n')
		}
		nf.Data = append(nf.Data, line+"\n"...)
		tree.Put(p, nf)
		return nil
	}
}

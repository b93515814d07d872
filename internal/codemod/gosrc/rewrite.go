package gosrc

import (
	"go/ast"
	"go/token"

	"golang.org/x/tools/go/ast/astutil"
)

// ioutilMoves maps deprecated io/ioutil functions to their replacements.
// ReadDir is left alone: os.ReadDir returns DirEntry, not FileInfo.
var ioutilMoves = map[string]struct{ pkg, name string }{
	"ReadFile":  {"os", "ReadFile"},
	"WriteFile": {"os", "WriteFile"},
	"TempFile":  {"os", "CreateTemp"},
	"TempDir":   {"os", "MkdirTemp"},
	"ReadAll":   {"io", "ReadAll"},
	"NopCloser": {"io", "NopCloser"},
	"Discard":   {"io", "Discard"},
}

// ReplaceIoutil rewrites io/ioutil calls to their os and io equivalents and
// drops the import once it is unused.
type ReplaceIoutil struct{}

func (ReplaceIoutil) Apply(fset *token.FileSet, file *ast.File) (bool, error) {
	local := importName(file, "io/ioutil")
	if local == "" {
		return false, nil
	}

	needed := map[string]bool{}
	astutil.Apply(file, func(c *astutil.Cursor) bool {
		sel, ok := c.Node().(*ast.SelectorExpr)
		if !ok {
			return true
		}
		x, ok := sel.X.(*ast.Ident)
		if !ok || x.Name != local {
			return true
		}
		to, ok := ioutilMoves[sel.Sel.Name]
		if !ok {
			return true
		}
		c.Replace(&ast.SelectorExpr{
			X:   &ast.Ident{Name: to.pkg, NamePos: x.NamePos},
			Sel: &ast.Ident{Name: to.name, NamePos: sel.Sel.NamePos},
		})
		needed[to.pkg] = true
		return false
	}, nil)

	if len(needed) == 0 {
		return false, nil
	}
	for _, pkg := range []string{"io", "os"} {
		if needed[pkg] {
			astutil.AddImport(fset, file, pkg)
		}
	}
	if !astutil.UsesImport(file, "io/ioutil") {
		if local != "ioutil" {
			astutil.DeleteNamedImport(fset, file, local, "io/ioutil")
		} else {
			astutil.DeleteImport(fset, file, "io/ioutil")
		}
	}
	return true, nil
}

// InterfaceToAny replaces the empty interface type with the predeclared any.
// Files that declare their own top-level "any" are left alone.
type InterfaceToAny struct{}

func (InterfaceToAny) Apply(fset *token.FileSet, file *ast.File) (bool, error) {
	if declares(file, "any") {
		return false, nil
	}

	changed := false
	astutil.Apply(file, func(c *astutil.Cursor) bool {
		it, ok := c.Node().(*ast.InterfaceType)
		if !ok {
			return true
		}
		if (it.Methods != nil && len(it.Methods.List) > 0) || hasComments(file, it) {
			return true
		}
		c.Replace(&ast.Ident{Name: "any", NamePos: it.Interface})
		changed = true
		return false
	}, nil)

	return changed, nil
}

func declares(file *ast.File, name string) bool {
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				switch s := spec.(type) {
				case *ast.TypeSpec:
					if s.Name.Name == name {
						return true
					}
				case *ast.ValueSpec:
					for _, n := range s.Names {
						if n.Name == name {
							return true
						}
					}
				}
			}
		case *ast.FuncDecl:
			if d.Recv == nil && d.Name.Name == name {
				return true
			}
		}
	}
	return false
}

// hasComments reports whether a comment sits inside the node's braces.
func hasComments(file *ast.File, n ast.Node) bool {
	for _, cg := range file.Comments {
		if cg.Pos() > n.Pos() && cg.End() < n.End() {
			return true
		}
	}
	return false
}

// Package gosrc rewrites Go source files at the AST level for bundled codemods.
package gosrc

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"strconv"
)

// Modification is a single AST rewrite. Apply reports whether it changed
// anything.
type Modification interface {
	Apply(fset *token.FileSet, file *ast.File) (bool, error)
}

// File is a parsed Go source file being modified.
type File struct {
	path    string
	fset    *token.FileSet
	file    *ast.File
	changed bool
}

// Parse parses src, keeping comments.
func Parse(path string, src []byte) (*File, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, src, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &File{path: path, fset: fset, file: file}, nil
}

// Apply runs the modifications in order, validating the AST after each.
func (f *File) Apply(mods ...Modification) error {
	for i, mod := range mods {
		changed, err := mod.Apply(f.fset, f.file)
		if err != nil {
			return fmt.Errorf("%s: applying change %d: %w", f.path, i, err)
		}
		if !changed {
			continue
		}
		if err := validateAST(f.file); err != nil {
			return fmt.Errorf("%s: validation failed after change %d: %w", f.path, i, err)
		}
		f.changed = true
	}
	return nil
}

// Changed reports whether any modification changed the file.
func (f *File) Changed() bool {
	return f.changed
}

// Bytes formats the file and checks the result still parses.
func (f *File) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := format.Node(&buf, f.fset, f.file); err != nil {
		return nil, fmt.Errorf("formatting %s: %w", f.path, err)
	}
	if err := ValidateSyntax(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("%s: final validation failed: %w", f.path, err)
	}
	return buf.Bytes(), nil
}

// Rewrite parses src, applies mods and returns the new source. The boolean
// is false, and src is returned untouched, when nothing changed.
func Rewrite(path string, src []byte, mods ...Modification) ([]byte, bool, error) {
	f, err := Parse(path, src)
	if err != nil {
		return nil, false, err
	}
	if err := f.Apply(mods...); err != nil {
		return nil, false, err
	}
	if !f.Changed() {
		return src, false, nil
	}
	out, err := f.Bytes()
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

// importName returns the name a file refers to an import path by, or "" when
// the path is not imported. Dot and blank imports report "".
func importName(file *ast.File, importPath string) string {
	for _, imp := range file.Imports {
		p, err := strconv.Unquote(imp.Path.Value)
		if err != nil || p != importPath {
			continue
		}
		if imp.Name != nil {
			if imp.Name.Name == "_" || imp.Name.Name == "." {
				return ""
			}
			return imp.Name.Name
		}
		return defaultName(p)
	}
	return ""
}

func defaultName(importPath string) string {
	for i := len(importPath) - 1; i >= 0; i-- {
		if importPath[i] == '/' {
			return importPath[i+1:]
		}
	}
	return importPath
}

// HasImport reports whether src imports importPath.
func HasImport(src []byte, importPath string) (bool, error) {
	f, err := Parse("", src)
	if err != nil {
		return false, err
	}
	for _, imp := range f.file.Imports {
		if p, _ := strconv.Unquote(imp.Path.Value); p == importPath {
			return true, nil
		}
	}
	return false, nil
}

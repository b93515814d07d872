package gosrc

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
)

// validateAST checks for nodes a rewrite may have left half-built.
func validateAST(file *ast.File) error {
	var problems []string

	ast.Inspect(file, func(n ast.Node) bool {
		switch node := n.(type) {
		case *ast.Ident:
			if node.Name == "" {
				problems = append(problems, "empty identifier")
			}
		case *ast.SelectorExpr:
			if node.X == nil || node.Sel == nil {
				problems = append(problems, "incomplete selector")
			}
		case *ast.Field:
			if node.Type == nil {
				problems = append(problems, "field with nil type")
			}
		case *ast.ImportSpec:
			if node.Path == nil {
				problems = append(problems, "import with nil path")
			}
		}
		return true
	})

	if len(problems) > 0 {
		return fmt.Errorf("invalid AST: %s", strings.Join(problems, ", "))
	}
	return nil
}

// ValidateSyntax parses content to ensure it is valid Go.
func ValidateSyntax(content []byte) error {
	fset := token.NewFileSet()
	if _, err := parser.ParseFile(fset, "", content, parser.AllErrors); err != nil {
		return fmt.Errorf("syntax error: %w", err)
	}
	return nil
}

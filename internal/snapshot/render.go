package snapshot

import (
	"bytes"
	"fmt"
	"path"
	"strings"
	"sync"
	"text/template"
	"unicode"

	"github.com/simonhull/firebird-suite/molt/internal/fstree"
)

// TemplateExt marks blueprint files rendered before comparison.
const TemplateExt = ".tmpl"

// Renderer renders blueprint templates, caching parsed templates by path
// and content.
type Renderer struct {
	funcMap template.FuncMap
	cache   map[string]*template.Template
	mu      sync.RWMutex
}

// NewRenderer creates a renderer with the built-in helper functions.
func NewRenderer() *Renderer {
	return &Renderer{
		funcMap: defaultFuncMap(),
		cache:   make(map[string]*template.Template),
	}
}

// RenderString renders templateStr with data. name is used for caching and
// error messages.
func (r *Renderer) RenderString(name, templateStr string, data any) ([]byte, error) {
	cacheKey := name + "\x00" + templateStr

	r.mu.RLock()
	tmpl, ok := r.cache[cacheKey]
	r.mu.RUnlock()

	if !ok {
		var err error
		tmpl, err = template.New(name).Funcs(r.funcMap).Option("missingkey=error").Parse(templateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template '%s': %w", name, err)
		}
		r.mu.Lock()
		r.cache[cacheKey] = tmpl
		r.mu.Unlock()
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render template '%s': %w", name, err)
	}
	return buf.Bytes(), nil
}

// RenderTree returns a copy of t with every .tmpl file rendered and renamed
// without its suffix. A rendered file replaces a plain file of the same name.
func (r *Renderer) RenderTree(t *fstree.Tree, data Data) (*fstree.Tree, error) {
	out := fstree.New()
	for _, p := range t.Paths() {
		f, _ := t.Get(p)
		if !strings.HasSuffix(p, TemplateExt) || f.Symlink != "" {
			out.Put(p, f.Clone())
			continue
		}

		rendered, err := r.RenderString(p, string(f.Data), data)
		if err != nil {
			return nil, err
		}
		nf := f.Clone()
		nf.Data = rendered
		out.Put(strings.TrimSuffix(p, TemplateExt), nf)
	}
	return out, nil
}

func defaultFuncMap() template.FuncMap {
	return template.FuncMap{
		"pascalCase": PascalCase, // user_name → UserName
		"snakeCase":  SnakeCase,  // UserName → user_name
		"upper":      strings.ToUpper,
		"lower":      strings.ToLower,
		"trim":       strings.TrimSpace,
		"replace":    strings.ReplaceAll,
		"hasPrefix":  strings.HasPrefix,
		"base":       path.Base, // github.com/acme/shop → shop
		"plural":     Plural,
	}
}

// PascalCase converts snake_case, kebab-case or camelCase to PascalCase.
func PascalCase(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == '-' || r == ' ' })
	var b strings.Builder
	for _, p := range parts {
		rs := []rune(p)
		rs[0] = unicode.ToUpper(rs[0])
		b.WriteString(string(rs))
	}
	return b.String()
}

// SnakeCase converts PascalCase, camelCase or kebab-case to snake_case.
func SnakeCase(s string) string {
	var b strings.Builder
	rs := []rune(s)
	for i, r := range rs {
		switch {
		case r == '-' || r == ' ':
			b.WriteRune('_')
		case unicode.IsUpper(r):
			if i > 0 && rs[i-1] != '_' && rs[i-1] != '-' &&
				(unicode.IsLower(rs[i-1]) || (i+1 < len(rs) && unicode.IsLower(rs[i+1]))) {
				b.WriteRune('_')
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

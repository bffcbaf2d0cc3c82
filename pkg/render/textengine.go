package render

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"
	"sync"

	"github.com/noventa-dev/noventa/pkg/catalog"
	"github.com/noventa-dev/noventa/pkg/script"
)

// componentCall matches {{ component('name', k='v') }} call sites.
var componentCall = regexp.MustCompile(`\{\{\s*component\(\s*['"]([^'"]+)['"]\s*((?:,[^)]*)?)\)\s*\}\}`)

// varSlot matches {{ name }} substitution slots. Dotted paths reach
// into nested maps.
var varSlot = regexp.MustCompile(`\{\{\s*([A-Za-z_][\w.]*)\s*\}\}`)

// callKwarg matches one key='value' or key="value" pair inside a call.
var callKwarg = regexp.MustCompile(`(\w+)\s*=\s*(?:'([^']*)'|"([^"]*)")`)

// TextEngine is the built-in template engine: component call sites are
// expanded through the installed ComponentFunc and {{ name }} slots are
// substituted from the render context, HTML-escaped. It is
// intentionally not a template language; anything richer plugs in
// behind the Engine interface.
type TextEngine struct {
	catalog *catalog.Catalog

	mu sync.RWMutex
	fn ComponentFunc
}

// NewTextEngine creates an engine reading template source from the
// catalog.
func NewTextEngine(cat *catalog.Catalog) *TextEngine {
	return &TextEngine{catalog: cat}
}

// Load returns the template source for the given component ID.
func (e *TextEngine) Load(templateID string) (string, error) {
	comp, ok := e.catalog.Lookup(templateID)
	if !ok {
		return "", &TemplateRenderError{
			TemplateID: templateID,
			Err:        fmt.Errorf("no template for %q", templateID),
		}
	}
	return comp.Template, nil
}

// SetComponentFunc installs the function that expands component calls.
func (e *TextEngine) SetComponentFunc(fn ComponentFunc) {
	e.mu.Lock()
	e.fn = fn
	e.mu.Unlock()
}

// Render expands the template with the given context.
func (e *TextEngine) Render(ctx context.Context, templateID string, data script.Context) (string, error) {
	source, err := e.Load(templateID)
	if err != nil {
		return "", err
	}

	e.mu.RLock()
	fn := e.fn
	e.mu.RUnlock()

	var renderErr error
	out := componentCall.ReplaceAllStringFunc(source, func(match string) string {
		if renderErr != nil {
			return ""
		}
		if fn == nil {
			renderErr = &TemplateRenderError{
				TemplateID: templateID,
				Err:        fmt.Errorf("no component function installed"),
			}
			return ""
		}
		groups := componentCall.FindStringSubmatch(match)
		fragment, err := fn(ctx, groups[1], parseCallKwargs(groups[2]))
		if err != nil {
			renderErr = err
			return ""
		}
		return fragment
	})
	if renderErr != nil {
		return "", renderErr
	}

	out = varSlot.ReplaceAllStringFunc(out, func(match string) string {
		name := varSlot.FindStringSubmatch(match)[1]
		value, ok := lookupPath(data, name)
		if !ok {
			return ""
		}
		return html.EscapeString(fmt.Sprint(value))
	})
	return out, nil
}

func parseCallKwargs(raw string) map[string]any {
	matches := callKwarg.FindAllStringSubmatch(raw, -1)
	kwargs := make(map[string]any, len(matches))
	for _, m := range matches {
		value := m[2]
		if m[3] != "" {
			value = m[3]
		}
		kwargs[m[1]] = value
	}
	return kwargs
}

// lookupPath resolves a dotted path through nested map[string]any.
func lookupPath(data script.Context, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var current any = map[string]any(data)
	for _, part := range parts {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

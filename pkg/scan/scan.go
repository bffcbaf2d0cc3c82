// Package scan extracts component invocations from template source.
//
// Scanning is static and runs before any side-effecting execution: the
// full recursive call tree of a page is known up front, which the
// two-phase render protocol depends on to locate the action target.
package scan

import (
	"fmt"
	"regexp"

	"github.com/noventa-dev/noventa/pkg/catalog"
)

// ComponentNotFoundError reports a template calling a component ID that
// is absent from the catalog. It aborts the scan for that request.
type ComponentNotFoundError struct {
	ID string
}

// Error implements the error interface.
func (e *ComponentNotFoundError) Error() string {
	return fmt.Sprintf("scan: component %q not found in catalog", e.ID)
}

// CycleError reports a component whose template reaches itself through
// nested calls. Scanning such a tree would never terminate.
type CycleError struct {
	ID string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return fmt.Sprintf("scan: component call cycle involving %q", e.ID)
}

// Arg is one keyword argument of a component call.
type Arg struct {
	Name  string
	Value string
}

// Call is a template-level invocation of a component with literal
// keyword arguments, in the order they appear at the call site.
type Call struct {
	ComponentID string
	Args        []Arg
}

// ArgMap returns the arguments as a map. Later duplicates win, matching
// merge-by-insertion semantics in the render pipeline.
func (c Call) ArgMap() map[string]string {
	m := make(map[string]string, len(c.Args))
	for _, a := range c.Args {
		m[a.Name] = a.Value
	}
	return m
}

// callSite matches component('name', ...) invocations in template
// source. The first positional argument is the component ID; everything
// up to the closing parenthesis is handed to the kwarg parser.
//
// This is deliberately regex-based, not a template AST: only literal
// arguments are supported. Values containing parentheses or quotes of
// the surrounding kind will not match, and expression arguments are
// ignored rather than evaluated.
var callSite = regexp.MustCompile(`component\(\s*['"]([^'"]+)['"]\s*((?:,[^)]*)?)\)`)

// kwarg matches one key='value' or key="value" literal pair.
var kwarg = regexp.MustCompile(`(\w+)\s*=\s*(?:'([^']*)'|"([^"]*)")`)

// Calls returns the ordered list of component calls the given template
// source will invoke, including calls nested inside the templates of the
// components it invokes.
//
// The expansion is post-order: each discovered call's own template is
// scanned first, so nested calls appear before their containing call.
// For a page calling counter, whose template calls badge, the result is
// [badge, counter].
func Calls(source string, cat *catalog.Catalog) ([]Call, error) {
	var calls []Call
	if err := walk(source, cat, map[string]bool{}, &calls); err != nil {
		return nil, err
	}
	return calls, nil
}

func walk(source string, cat *catalog.Catalog, visiting map[string]bool, out *[]Call) error {
	for _, m := range callSite.FindAllStringSubmatch(source, -1) {
		id, rawArgs := m[1], m[2]

		comp, ok := cat.Lookup(id)
		if !ok {
			return &ComponentNotFoundError{ID: id}
		}
		if visiting[id] {
			return &CycleError{ID: id}
		}

		// Children before parents.
		visiting[id] = true
		if err := walk(comp.Template, cat, visiting, out); err != nil {
			return err
		}
		delete(visiting, id)

		*out = append(*out, Call{ComponentID: id, Args: parseArgs(rawArgs)})
	}
	return nil
}

func parseArgs(raw string) []Arg {
	matches := kwarg.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return nil
	}
	args := make([]Arg, 0, len(matches))
	for _, m := range matches {
		value := m[2]
		if m[3] != "" {
			value = m[3]
		}
		args = append(args, Arg{Name: m[1], Value: value})
	}
	return args
}

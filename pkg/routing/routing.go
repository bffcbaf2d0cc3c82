// Package routing compiles the pages directory into a URL route table.
//
// File paths map to URL patterns: pages/users/[id].html becomes
// /users/{id}, underscores become dashes, and index.html collapses into
// its directory path. The table is recompiled whenever the watcher sees
// the pages directory change.
package routing

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Route is one compiled URL pattern bound to a page template.
type Route struct {
	// Pattern is the URL pattern, such as /users/{id}.
	Pattern string

	// PageID is the catalog id of the page component backing this
	// route: the template path relative to the pages root, extension
	// stripped, separators replaced by dots.
	PageID string

	// TemplatePath is the absolute path of the page template.
	TemplatePath string

	// ParamNames lists the pattern's parameters in order, with dashes
	// sanitized to underscores.
	ParamNames []string

	regex *regexp.Regexp
}

// Table is an ordered set of compiled routes. Matching walks the routes
// in specificity order and returns the first hit.
type Table struct {
	routes []Route
}

// Compile walks pagesDir and builds the route table. Two page files
// that collapse onto the same URL prefix (such as about.html next to
// about/index.html) are a configuration error, not a silent shadow.
func Compile(pagesDir string, logger *slog.Logger) (*Table, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "routing")

	absDir, err := filepath.Abs(pagesDir)
	if err != nil {
		return nil, err
	}

	type pending struct {
		pattern string
		path    string
	}
	var found []pending
	err = filepath.WalkDir(absDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".html" {
			return nil
		}
		found = append(found, pending{pattern: pathToRoute(path, absDir), path: path})
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Deeper routes first; at equal depth, static routes before dynamic
	// ones so /users/new beats /users/{id}.
	sort.SliceStable(found, func(i, j int) bool {
		di := strings.Count(found[i].pattern, "/")
		dj := strings.Count(found[j].pattern, "/")
		if di != dj {
			return di > dj
		}
		return !strings.Contains(found[i].pattern, "{") && strings.Contains(found[j].pattern, "{")
	})

	t := &Table{}
	registered := make(map[string]bool, len(found))
	for _, p := range found {
		key, _, _ := strings.Cut(p.pattern, "{")
		if registered[key] {
			return nil, fmt.Errorf("routing: conflict on %q: another route already covers %q", p.pattern, key)
		}
		registered[key] = true

		route, err := compileRoute(p.pattern, p.path, absDir)
		if err != nil {
			return nil, err
		}
		logger.Debug("route registered", "pattern", route.Pattern, "template", route.TemplatePath)
		t.routes = append(t.routes, route)
	}
	return t, nil
}

// Match returns the first route matching the request path together with
// its extracted parameters.
func (t *Table) Match(path string) (Route, map[string]string, bool) {
	for _, route := range t.routes {
		m := route.regex.FindStringSubmatch(path)
		if m == nil {
			continue
		}
		params := make(map[string]string, len(route.ParamNames))
		for i, name := range route.regex.SubexpNames() {
			if name != "" {
				params[name] = m[i]
			}
		}
		return route, params, true
	}
	return Route{}, nil, false
}

// Routes returns the compiled routes in match order.
func (t *Table) Routes() []Route {
	out := make([]Route, len(t.routes))
	copy(out, t.routes)
	return out
}

// Len returns the number of compiled routes.
func (t *Table) Len() int {
	return len(t.routes)
}

// compileRoute turns one URL pattern into its matching regex.
func compileRoute(pattern, templatePath, pagesDir string) (Route, error) {
	var paramNames []string
	segments := strings.Split(pattern, "/")[1:]
	parts := make([]string, len(segments))
	for i, segment := range segments {
		if strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}") {
			name := strings.ReplaceAll(segment[1:len(segment)-1], "-", "_")
			paramNames = append(paramNames, name)
			parts[i] = fmt.Sprintf(`(?P<%s>[^/]+)`, name)
		} else {
			parts[i] = regexp.QuoteMeta(segment)
		}
	}

	re, err := regexp.Compile("^/" + strings.Join(parts, "/") + "$")
	if err != nil {
		return Route{}, fmt.Errorf("routing: compiling %q: %w", pattern, err)
	}

	return Route{
		Pattern:      pattern,
		PageID:       PageID(templatePath, pagesDir),
		TemplatePath: templatePath,
		ParamNames:   paramNames,
		regex:        re,
	}, nil
}

// PageID derives the catalog id of a page template: the path relative
// to the pages root, extension stripped, separators replaced by dots.
func PageID(templatePath, pagesDir string) string {
	rel, err := filepath.Rel(pagesDir, templatePath)
	if err != nil {
		rel = templatePath
	}
	rel = strings.TrimSuffix(filepath.ToSlash(rel), ".html")
	return strings.ReplaceAll(rel, "/", ".")
}

// pathToRoute maps one template file path to its URL pattern.
func pathToRoute(path, baseDir string) string {
	rel, err := filepath.Rel(baseDir, path)
	if err != nil {
		return ""
	}

	var parts []string
	for _, segment := range strings.Split(filepath.ToSlash(rel), "/") {
		if stem, ok := strings.CutSuffix(segment, ".html"); ok {
			if stem == "index" {
				continue
			}
			segment = stem
		}
		parts = append(parts, strings.ReplaceAll(segment, "_", "-"))
	}

	route := "/" + strings.Join(parts, "/")
	route = strings.ReplaceAll(route, "[", "{")
	route = strings.ReplaceAll(route, "]", "}")
	if len(route) > 1 {
		route = strings.TrimSuffix(route, "/")
	}
	return route
}

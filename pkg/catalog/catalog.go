// Package catalog discovers page components on disk and exposes them as
// an immutable snapshot that concurrent renders can read while the file
// watcher swaps in updates.
package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrNotAComponent is returned by RescanOne when the changed path does
// not belong to a valid component folder.
var ErrNotAComponent = errors.New("catalog: path is not part of a component")

// Component is a named unit combining a template fragment and an
// optional server-side logic module.
type Component struct {
	// ID is the stable logical name: the folder path relative to the
	// component root with separators replaced by dots.
	ID string

	// TemplatePath is the absolute path of the component's template file.
	TemplatePath string

	// Template is the template source, read at scan time.
	Template string

	// LogicPath is the absolute path of the logic module, or empty when
	// the component is template-only.
	LogicPath string
}

// HasLogic reports whether the component carries a logic module.
func (c Component) HasLogic() bool {
	return c.LogicPath != ""
}

// Scan walks rootDir and returns every valid component, sorted by ID.
//
// A component folder holds exactly one .html template (any name) and at
// most one .py logic module. Folders with more than one template or more
// than one logic file are structurally broken: they are logged and
// skipped, never turned into a scan-wide failure. A folder with no
// template is not a component at all.
func Scan(rootDir string, logger *slog.Logger) ([]Component, error) {
	if logger == nil {
		logger = slog.Default()
	}
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, err
	}

	var components []Component
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() || path == absRoot {
			return nil
		}
		comp, derr := deriveComponent(path, absRoot)
		if derr != nil {
			if !errors.Is(derr, ErrNotAComponent) {
				logger.Warn("skipping component folder", "path", path, "error", derr)
			}
			return nil
		}
		components = append(components, comp)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(components, func(i, j int) bool { return components[i].ID < components[j].ID })
	return components, nil
}

// RescanOne re-derives the single component containing changedPath. Used
// by the file watcher so one saved file does not force a full rescan.
func RescanOne(changedPath, rootDir string) (Component, error) {
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return Component{}, err
	}
	absChanged, err := filepath.Abs(changedPath)
	if err != nil {
		return Component{}, err
	}
	rel, err := filepath.Rel(absRoot, absChanged)
	if err != nil || strings.HasPrefix(rel, "..") {
		return Component{}, ErrNotAComponent
	}

	dir := absChanged
	if info, err := os.Stat(absChanged); err != nil || !info.IsDir() {
		dir = filepath.Dir(absChanged)
	}
	return deriveComponent(dir, absRoot)
}

// deriveComponent inspects one folder and builds its Component.
func deriveComponent(dir, rootDir string) (Component, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Component{}, ErrNotAComponent
	}

	var templates, logics []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".html":
			templates = append(templates, filepath.Join(dir, e.Name()))
		case ".py":
			logics = append(logics, filepath.Join(dir, e.Name()))
		}
	}

	if len(templates) == 0 {
		return Component{}, ErrNotAComponent
	}
	if len(templates) > 1 {
		return Component{}, fmt.Errorf("%d template files in one component folder", len(templates))
	}
	if len(logics) > 1 {
		return Component{}, fmt.Errorf("%d logic files in one component folder", len(logics))
	}

	source, err := os.ReadFile(templates[0])
	if err != nil {
		return Component{}, fmt.Errorf("reading template: %w", err)
	}

	rel, err := filepath.Rel(rootDir, dir)
	if err != nil {
		return Component{}, ErrNotAComponent
	}

	comp := Component{
		ID:           strings.ReplaceAll(filepath.ToSlash(rel), "/", "."),
		TemplatePath: templates[0],
		Template:     string(source),
	}
	if len(logics) == 1 {
		comp.LogicPath = logics[0]
	}
	return comp, nil
}

// Catalog holds the current component snapshot. Replacement is
// copy-on-write behind a read/write lock: readers always observe a
// complete snapshot, never a half-applied update.
type Catalog struct {
	mu   sync.RWMutex
	byID map[string]Component
}

// New builds a catalog from the given components.
func New(components []Component) *Catalog {
	c := &Catalog{}
	c.Replace(components)
	return c
}

// Lookup returns the component with the given ID.
func (c *Catalog) Lookup(id string) (Component, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	comp, ok := c.byID[id]
	return comp, ok
}

// All returns the components sorted by ID.
func (c *Catalog) All() []Component {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Component, 0, len(c.byID))
	for _, comp := range c.byID {
		out = append(out, comp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of components in the snapshot.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}

// Replace swaps in a wholly new snapshot.
func (c *Catalog) Replace(components []Component) {
	next := make(map[string]Component, len(components))
	for _, comp := range components {
		next[comp.ID] = comp
	}
	c.mu.Lock()
	c.byID = next
	c.mu.Unlock()
}

// Update inserts or replaces a single component.
func (c *Catalog) Update(comp Component) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := make(map[string]Component, len(c.byID)+1)
	for id, existing := range c.byID {
		next[id] = existing
	}
	next[comp.ID] = comp
	c.byID = next
}

// Remove drops a component from the snapshot.
func (c *Catalog) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := make(map[string]Component, len(c.byID))
	for existing, comp := range c.byID {
		if existing == id {
			continue
		}
		next[existing] = comp
	}
	c.byID = next
}

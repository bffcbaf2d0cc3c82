package dev

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/noventa-dev/noventa/pkg/catalog"
	"github.com/noventa-dev/noventa/pkg/routing"
)

type recordingPool struct {
	reloads int
	last    []catalog.Component
}

func (p *recordingPool) Reload(components []catalog.Component) error {
	p.reloads++
	p.last = components
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// project lays out a minimal pages/components tree and returns the two
// directories.
func project(t *testing.T) (pagesDir, componentsDir string) {
	t.Helper()
	root := t.TempDir()
	pagesDir = filepath.Join(root, "pages")
	componentsDir = filepath.Join(root, "components")

	writeFile(t, filepath.Join(pagesDir, "index.html"), "<h1>home</h1>")
	writeFile(t, filepath.Join(componentsDir, "counter", "counter.html"), "<span>0</span>")
	writeFile(t, filepath.Join(componentsDir, "counter", "counter.py"), "def load_template_context():\n    return {}\n")
	return pagesDir, componentsDir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestReloader(t *testing.T, pagesDir, componentsDir string) (*Reloader, *catalog.Catalog, *recordingPool, *[]*routing.Table) {
	t.Helper()
	logger := quietLogger()

	components, err := catalog.Scan(componentsDir, logger)
	if err != nil {
		t.Fatal(err)
	}
	pages, err := catalog.ScanPages(pagesDir, logger)
	if err != nil {
		t.Fatal(err)
	}
	cat := catalog.New(append(components, pages...))

	pool := &recordingPool{}
	var tables []*routing.Table

	r := NewReloader(ReloaderConfig{
		PagesDir:      pagesDir,
		ComponentsDir: componentsDir,
		Catalog:       cat,
		Pool:          pool,
		SetRoutes:     func(tbl *routing.Table) { tables = append(tables, tbl) },
		Logger:        logger,
	})
	return r, cat, pool, &tables
}

func TestComponentTemplateEditUpdatesCatalog(t *testing.T) {
	pagesDir, componentsDir := project(t)
	r, cat, pool, tables := newTestReloader(t, pagesDir, componentsDir)

	path := filepath.Join(componentsDir, "counter", "counter.html")
	writeFile(t, path, "<span>1</span>")
	r.handleChange(Change{Path: path, Type: ChangeTemplate, Op: OpModify})

	comp, ok := cat.Lookup("counter")
	if !ok {
		t.Fatal("counter missing after rescan")
	}
	if comp.Template != "<span>1</span>" {
		t.Errorf("template = %q", comp.Template)
	}
	if pool.reloads != 0 {
		t.Errorf("template edit reloaded the pool %d times", pool.reloads)
	}
	if len(*tables) != 0 {
		t.Errorf("template edit recompiled routes %d times", len(*tables))
	}
}

func TestComponentScriptEditReloadsPool(t *testing.T) {
	pagesDir, componentsDir := project(t)
	r, _, pool, _ := newTestReloader(t, pagesDir, componentsDir)

	path := filepath.Join(componentsDir, "counter", "counter.py")
	writeFile(t, path, "def load_template_context():\n    return {'count': 1}\n")
	r.handleChange(Change{Path: path, Type: ChangeScript, Op: OpModify})

	if pool.reloads != 1 {
		t.Errorf("pool reloads = %d, want 1", pool.reloads)
	}
}

func TestNewPageRecompilesRoutes(t *testing.T) {
	pagesDir, componentsDir := project(t)
	r, cat, _, tables := newTestReloader(t, pagesDir, componentsDir)

	path := filepath.Join(pagesDir, "about.html")
	writeFile(t, path, "<h1>about</h1>")
	r.handleChange(Change{Path: path, Type: ChangeTemplate, Op: OpModify})

	if _, ok := cat.Lookup("about"); !ok {
		t.Error("new page missing from catalog")
	}
	if len(*tables) != 1 {
		t.Fatalf("route recompiles = %d, want 1", len(*tables))
	}
	if _, _, ok := (*tables)[0].Match("/about"); !ok {
		t.Error("new page not routable")
	}
}

func TestRemovedPageDropsRoute(t *testing.T) {
	pagesDir, componentsDir := project(t)
	writeFile(t, filepath.Join(pagesDir, "old.html"), "<h1>old</h1>")
	r, cat, _, tables := newTestReloader(t, pagesDir, componentsDir)

	path := filepath.Join(pagesDir, "old.html")
	os.Remove(path)
	r.handleChange(Change{Path: path, Type: ChangeTemplate, Op: OpRemove})

	if _, ok := cat.Lookup("old"); ok {
		t.Error("removed page still in catalog")
	}
	if len(*tables) != 1 {
		t.Fatalf("route recompiles = %d, want 1", len(*tables))
	}
	if _, _, ok := (*tables)[0].Match("/old"); ok {
		t.Error("removed page still routable")
	}
}

package dev

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/noventa-dev/noventa/pkg/catalog"
	"github.com/noventa-dev/noventa/pkg/routing"
)

// Pool is the part of the script runtime pool the reloader drives.
type Pool interface {
	Reload(components []catalog.Component) error
}

// ReloaderConfig wires the reloader to the running server.
type ReloaderConfig struct {
	PagesDir      string
	ComponentsDir string
	ExtraPaths    []string
	PollInterval  time.Duration

	Catalog *catalog.Catalog
	Pool    Pool

	// SetRoutes swaps the live route table after a recompile.
	SetRoutes func(*routing.Table)

	Reload *ReloadServer
	Logger *slog.Logger
}

// Reloader watches the project directories and keeps the running
// server in sync: template and script edits rescan the catalog and
// reload the pool, page additions and removals recompile the route
// table, and every applied change is pushed to connected browsers.
type Reloader struct {
	cfg     ReloaderConfig
	watcher *Watcher
}

// NewReloader creates a reloader over the configured directories.
func NewReloader(cfg ReloaderConfig) *Reloader {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	paths := append([]string{cfg.PagesDir, cfg.ComponentsDir}, cfg.ExtraPaths...)
	r := &Reloader{
		cfg: cfg,
		watcher: NewWatcher(WatcherConfig{
			Paths:    paths,
			Interval: cfg.PollInterval,
		}),
	}
	r.watcher.OnChange(r.handleChange)
	return r
}

// Run watches until the context is cancelled.
func (r *Reloader) Run(ctx context.Context) error {
	r.cfg.Logger.Info("dev watcher started",
		"pages", r.cfg.PagesDir,
		"components", r.cfg.ComponentsDir)
	return r.watcher.Start(ctx)
}

// Stop stops the underlying watcher.
func (r *Reloader) Stop() {
	r.watcher.Stop()
}

func (r *Reloader) handleChange(change Change) {
	logger := r.cfg.Logger
	logger.Debug("file changed", "path", change.Path, "op", change.Op)

	switch change.Type {
	case ChangeTemplate, ChangeScript:
		if r.inDir(change.Path, r.cfg.ComponentsDir) && change.Op == OpModify {
			r.rescanComponent(change)
			return
		}
		r.rescanAll(change)

	case ChangeConfig:
		logger.Warn("configuration changed, restart the server to apply it",
			"path", change.Path)

	case ChangeStatic:
		if r.cfg.Reload != nil {
			r.cfg.Reload.NotifyReload()
		}
	}
}

// rescanComponent refreshes a single component in place.
func (r *Reloader) rescanComponent(change Change) {
	comp, err := catalog.RescanOne(change.Path, r.cfg.ComponentsDir)
	if err != nil {
		r.fail("component rescan failed", change.Path, err)
		return
	}
	r.cfg.Catalog.Update(comp)

	if change.Type == ChangeScript && r.cfg.Pool != nil {
		if err := r.cfg.Pool.Reload(r.cfg.Catalog.All()); err != nil {
			r.fail("script pool reload failed", change.Path, err)
			return
		}
	}
	r.applied(change)
}

// rescanAll rebuilds the whole catalog and the route table. Page file
// additions and removals land here because they change routing.
func (r *Reloader) rescanAll(change Change) {
	logger := r.cfg.Logger

	components, err := catalog.Scan(r.cfg.ComponentsDir, logger)
	if err != nil {
		r.fail("component scan failed", change.Path, err)
		return
	}
	pages, err := catalog.ScanPages(r.cfg.PagesDir, logger)
	if err != nil {
		r.fail("page scan failed", change.Path, err)
		return
	}
	r.cfg.Catalog.Replace(append(components, pages...))

	if r.cfg.Pool != nil {
		if err := r.cfg.Pool.Reload(r.cfg.Catalog.All()); err != nil {
			r.fail("script pool reload failed", change.Path, err)
			return
		}
	}

	if r.cfg.SetRoutes != nil {
		table, err := routing.Compile(r.cfg.PagesDir, logger)
		if err != nil {
			r.fail("route compile failed", change.Path, err)
			return
		}
		r.cfg.SetRoutes(table)
	}
	r.applied(change)
}

func (r *Reloader) applied(change Change) {
	r.cfg.Logger.Info("change applied", "path", change.Path)
	if r.cfg.Reload != nil {
		r.cfg.Reload.ClearError()
		r.cfg.Reload.NotifyReload()
	}
}

func (r *Reloader) fail(msg, path string, err error) {
	r.cfg.Logger.Error(msg, "path", path, "error", err)
	if r.cfg.Reload != nil {
		r.cfg.Reload.NotifyError(err.Error())
	}
}

func (r *Reloader) inDir(path, dir string) bool {
	if dir == "" {
		return false
	}
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

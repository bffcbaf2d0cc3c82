package catalog

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScanPages walks pagesDir and returns one Component per page template.
//
// Pages are looser than components: any .html file is a page, its id is
// the path relative to the pages root with the extension stripped and
// separators replaced by dots, and an optional logic module is a .py
// file next to it sharing the same stem. Unreadable files are logged
// and skipped.
func ScanPages(pagesDir string, logger *slog.Logger) ([]Component, error) {
	if logger == nil {
		logger = slog.Default()
	}
	absDir, err := filepath.Abs(pagesDir)
	if err != nil {
		return nil, err
	}

	var pages []Component
	err = filepath.WalkDir(absDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".html" {
			return nil
		}

		source, rerr := os.ReadFile(path)
		if rerr != nil {
			logger.Warn("skipping unreadable page", "path", path, "error", rerr)
			return nil
		}
		rel, rerr := filepath.Rel(absDir, path)
		if rerr != nil {
			return nil
		}

		page := Component{
			ID:           pageID(rel),
			TemplatePath: path,
			Template:     string(source),
		}
		logic := strings.TrimSuffix(path, ".html") + ".py"
		if _, serr := os.Stat(logic); serr == nil {
			page.LogicPath = logic
		}
		pages = append(pages, page)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].ID < pages[j].ID })
	return pages, nil
}

func pageID(rel string) string {
	rel = strings.TrimSuffix(filepath.ToSlash(rel), ".html")
	return strings.ReplaceAll(rel, "/", ".")
}

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/noventa-dev/noventa/internal/config"
)

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [name]",
		Short: "Create a new project",
		Long: `Create a new project directory with a starter page, a counter
component and a noventa.json.

Examples:
  noventa init myapp
  noventa init .`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(args[0])
		},
	}
	return cmd
}

var starterFiles = map[string]string{
	"pages/index.html": `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>{{ title }}</title>
  <link rel="stylesheet" href="/static/app.css">
</head>
<body>
  <h1>{{ title }}</h1>
  {{ component('counter', start='0') }}
</body>
</html>
`,
	"pages/index.py": `def load_template_context():
    return {"title": "Welcome to noventa"}
`,
	"components/counter/counter.html": `<form method="post">
  <span class="count">{{ count }}</span>
  <button type="submit" name="action" value="increment">+1</button>
</form>
`,
	"components/counter/counter.py": `def load_template_context(start="0"):
    return {"count": int(start)}

def action_increment(count="0", **kwargs):
    return {"count": int(count) + 1}
`,
	"public/app.css": `body { font-family: sans-serif; max-width: 640px; margin: 40px auto; }
.count { font-size: 2em; margin-right: 12px; }
`,
}

func runInit(name string) error {
	root := name
	if name == "." {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		root = cwd
	} else if err := os.MkdirAll(root, 0o755); err != nil {
		return err
	}

	if config.Exists(root) {
		return fmt.Errorf("%s already contains a noventa.json", root)
	}

	for rel, content := range starterFiles {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return err
		}
	}

	cfg := config.New()
	cfg.Name = filepath.Base(root)
	if err := cfg.SaveTo(filepath.Join(root, config.ConfigFileName)); err != nil {
		return err
	}

	printBanner()
	success("Created %s", cfg.Name)
	info("cd %s", name)
	info("noventa dev")
	return nil
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg := New()
	if cfg.Server.Port != DefaultPort {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Pool.Workers != DefaultPoolSize {
		t.Errorf("workers = %d", cfg.Pool.Workers)
	}
	if !cfg.Admission.Enabled || cfg.Admission.Multiplier != 2.0 {
		t.Errorf("admission defaults = %+v", cfg.Admission)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{"name":"demo","server":{"port":8080}}`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "demo" {
		t.Errorf("name = %q", cfg.Name)
	}
	if cfg.Address() != "localhost:8080" {
		t.Errorf("address = %q", cfg.Address())
	}
	if cfg.Paths.Components != "components" {
		t.Errorf("components dir = %q, defaults not applied", cfg.Paths.Components)
	}
	if cfg.AdmissionWindow() != 30*time.Second {
		t.Errorf("window = %v", cfg.AdmissionWindow())
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Fatal("expected an error for a missing config")
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{not json`)
	if _, err := Load(dir); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []string{
		`{"server":{"port":70000}}`,
		`{"pool":{"workers":-1}}`,
		`{"uploads":{"store":"ftp"}}`,
		`{"uploads":{"store":"s3"}}`,
	}
	for _, content := range cases {
		dir := t.TempDir()
		writeConfig(t, dir, content)
		if _, err := Load(dir); err == nil {
			t.Errorf("config %s passed validation", content)
		}
	}
}

func TestPathsResolveAgainstConfigDir(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{"paths":{"components":"web/components"}}`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, "web/components")
	if cfg.ComponentsPath() != want {
		t.Errorf("ComponentsPath = %q, want %q", cfg.ComponentsPath(), want)
	}
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `{}`)
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := FindProjectRoot(nested)
	if err != nil {
		t.Fatal(err)
	}
	// TempDir may sit behind a symlink, compare resolved paths.
	wantResolved, _ := filepath.EvalSymlinks(root)
	gotResolved, _ := filepath.EvalSymlinks(got)
	if gotResolved != wantResolved {
		t.Errorf("root = %q, want %q", got, root)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{"name":"demo"}`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Server.Port = 4000
	if err := cfg.Save(); err != nil {
		t.Fatal(err)
	}

	again, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if again.Server.Port != 4000 {
		t.Errorf("port after reload = %d", again.Server.Port)
	}
}

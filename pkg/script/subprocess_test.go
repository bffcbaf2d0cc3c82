package script

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func startWorker(t *testing.T) *SubprocessRuntime {
	t.Helper()
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not available")
	}
	rt, err := NewSubprocessRuntime("python3")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { rt.Close() })
	return rt
}

func writeModule(t *testing.T, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "logic.py")
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSubprocessInvoke(t *testing.T) {
	rt := startWorker(t)
	path := writeModule(t, `
def load_template_context(start="0"):
    return {"count": int(start)}

def action_add(count="0", step="1"):
    return {"count": int(count) + int(step)}
`)

	if err := rt.Load("counter", path); err != nil {
		t.Fatal(err)
	}

	ctx, err := rt.Invoke("counter", "load_template_context", map[string]any{"start": "5"})
	if err != nil {
		t.Fatal(err)
	}
	if ctx["count"] != float64(5) {
		t.Errorf("count = %v (%T)", ctx["count"], ctx["count"])
	}

	ctx, err = rt.Invoke("counter", "action_add", map[string]any{"count": "5", "step": "3"})
	if err != nil {
		t.Fatal(err)
	}
	if ctx["count"] != float64(8) {
		t.Errorf("count = %v", ctx["count"])
	}
}

func TestSubprocessScriptErrorCarriesTraceback(t *testing.T) {
	rt := startWorker(t)
	path := writeModule(t, `
def load_template_context():
    raise ValueError("bad state")
`)
	if err := rt.Load("broken", path); err != nil {
		t.Fatal(err)
	}

	_, err := rt.Invoke("broken", "load_template_context", nil)
	var serr *ScriptError
	if !errors.As(err, &serr) {
		t.Fatalf("err = %v (%T)", err, err)
	}
	if serr.Message != "bad state" {
		t.Errorf("message = %q", serr.Message)
	}
	if serr.Traceback == "" {
		t.Error("traceback missing")
	}
	if serr.Line == 0 {
		t.Error("line missing")
	}
}

func TestSubprocessMissingHandler(t *testing.T) {
	rt := startWorker(t)
	path := writeModule(t, `
def load_template_context():
    return {}
`)
	if err := rt.Load("plain", path); err != nil {
		t.Fatal(err)
	}

	_, err := rt.Invoke("plain", "action_missing", nil)
	var serr *ScriptError
	if !errors.As(err, &serr) {
		t.Fatalf("err = %v", err)
	}
	// A missing handler has no traceback; the boundary renders it
	// without one.
	if serr.Traceback != "" {
		t.Errorf("traceback = %q", serr.Traceback)
	}
}

func TestSubprocessNotLoaded(t *testing.T) {
	rt := startWorker(t)

	_, err := rt.Invoke("ghost", "load_template_context", nil)
	var serr *ScriptError
	if !errors.As(err, &serr) {
		t.Fatalf("err = %v", err)
	}
}

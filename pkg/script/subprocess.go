package script

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
)

// workerProgram is the Python side of the runtime: a loop reading one
// JSON request per line and answering with one JSON response per line.
// Modules are imported by file path; load_template_context and
// action_* functions are called with keyword arguments.
const workerProgram = `
import importlib.util, json, sys, traceback

modules = {}

def handle(req):
    op = req["op"]
    if op == "load":
        spec = importlib.util.spec_from_file_location(req["component"], req["path"])
        mod = importlib.util.module_from_spec(spec)
        spec.loader.exec_module(mod)
        modules[req["component"]] = mod
        return {"ok": True}
    if op == "invoke":
        mod = modules.get(req["component"])
        if mod is None:
            return {"ok": False, "error": {"message": "component %r not loaded" % req["component"]}}
        fn = getattr(mod, req["fn"], None)
        if fn is None:
            return {"ok": False, "error": {"message": "component %r has no function %r" % (req["component"], req["fn"])}}
        ctx = fn(**req.get("args") or {})
        return {"ok": True, "context": ctx or {}}
    return {"ok": False, "error": {"message": "unknown op %r" % op}}

for line in sys.stdin:
    if not line.strip():
        continue
    try:
        req = json.loads(line)
        resp = handle(req)
    except Exception as e:
        tb = traceback.extract_tb(sys.exc_info()[2])
        frame = tb[-1] if tb else None
        resp = {"ok": False, "error": {
            "message": str(e),
            "traceback": traceback.format_exc(),
            "file": frame.filename if frame else "",
            "line": frame.lineno if frame else 0,
        }}
    sys.stdout.write(json.dumps(resp) + "\n")
    sys.stdout.flush()
`

type workerRequest struct {
	Op        string         `json:"op"`
	Component string         `json:"component,omitempty"`
	Path      string         `json:"path,omitempty"`
	Fn        string         `json:"fn,omitempty"`
	Args      map[string]any `json:"args,omitempty"`
}

type workerResponse struct {
	OK      bool    `json:"ok"`
	Context Context `json:"context,omitempty"`
	Error   *struct {
		Message   string `json:"message"`
		Traceback string `json:"traceback"`
		File      string `json:"file"`
		Line      int    `json:"line"`
	} `json:"error,omitempty"`
}

// SubprocessRuntime runs logic modules in a child interpreter process,
// one process per pool worker. Requests and responses are
// newline-delimited JSON over the worker's stdin and stdout. The Pool
// guarantees single-goroutine access, so no locking is needed here.
type SubprocessRuntime struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
}

// NewSubprocessRuntime starts one worker process using the given
// interpreter binary.
func NewSubprocessRuntime(interpreter string) (*SubprocessRuntime, error) {
	cmd := exec.Command(interpreter, "-c", workerProgram)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s worker: %w", interpreter, err)
	}
	return &SubprocessRuntime{
		cmd:    cmd,
		stdin:  stdin,
		stdout: bufio.NewReader(stdout),
	}, nil
}

// NewSubprocessFactory returns a Factory spawning one worker process
// per pool slot.
func NewSubprocessFactory(interpreter string) Factory {
	return func() (Runtime, error) {
		return NewSubprocessRuntime(interpreter)
	}
}

// Load implements Runtime.
func (r *SubprocessRuntime) Load(componentID, sourcePath string) error {
	resp, err := r.roundTrip(workerRequest{Op: "load", Component: componentID, Path: sourcePath})
	if err != nil {
		return err
	}
	if !resp.OK {
		return r.scriptError(resp)
	}
	return nil
}

// Invoke implements Runtime.
func (r *SubprocessRuntime) Invoke(componentID, fn string, args map[string]any) (Context, error) {
	resp, err := r.roundTrip(workerRequest{Op: "invoke", Component: componentID, Fn: fn, Args: args})
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, r.scriptError(resp)
	}
	if resp.Context == nil {
		return Context{}, nil
	}
	return resp.Context, nil
}

// Close implements Runtime.
func (r *SubprocessRuntime) Close() error {
	r.stdin.Close()
	return r.cmd.Wait()
}

func (r *SubprocessRuntime) roundTrip(req workerRequest) (*workerResponse, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	if _, err := r.stdin.Write(append(data, '\n')); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWorkerUnavailable, err)
	}
	line, err := r.stdout.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWorkerUnavailable, err)
	}
	var resp workerResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("malformed worker response: %w", err)
	}
	return &resp, nil
}

func (r *SubprocessRuntime) scriptError(resp *workerResponse) *ScriptError {
	if resp.Error == nil {
		return &ScriptError{Message: "worker reported failure without detail"}
	}
	return &ScriptError{
		Message:   resp.Error.Message,
		Traceback: resp.Error.Traceback,
		File:      resp.Error.File,
		Line:      resp.Error.Line,
	}
}

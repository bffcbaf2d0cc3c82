// Package script defines the embedded scripting capability behind a
// narrow interface and runs it on a fixed pool of isolated workers.
//
// Runtime instances are not safe to share across goroutines; all
// concurrency comes from having multiple instances, one per worker, with
// requests dispatched round-robin. The diff and render protocol layers
// never see the embedding: they only deal in Invoke results.
package script

import (
	"errors"
	"fmt"
)

// Context is the key/value result of a logic invocation, merged into a
// component's template render. Values are JSON-compatible.
type Context map[string]any

// ScriptError is a failure reported by the logic runtime, including a
// missing component or missing handler function. It propagates through
// the pipeline unchanged so the HTTP boundary can render a detailed
// developer page.
type ScriptError struct {
	Message   string
	Traceback string
	File      string
	Line      int
}

// Error implements the error interface.
func (e *ScriptError) Error() string {
	if e.File != "" && e.Line > 0 {
		return fmt.Sprintf("script: %s (%s:%d)", e.Message, e.File, e.Line)
	}
	return "script: " + e.Message
}

// ErrWorkerUnavailable is returned when pool dispatch could not reach a
// worker. It is logged and converted to a generic internal error at the
// boundary, never retried.
var ErrWorkerUnavailable = errors.New("script: worker unavailable")

// Runtime is one instance of the embedded scripting runtime.
//
// Implementations own interpreter state and must only be driven from a
// single goroutine; the Pool guarantees that.
type Runtime interface {
	// Load makes the component's logic module available for Invoke.
	Load(componentID, sourcePath string) error

	// Invoke calls a named function of a component's logic module with
	// keyword arguments and returns the produced context. A missing
	// component or missing function is reported as a *ScriptError, not
	// a panic.
	Invoke(componentID, fn string, args map[string]any) (Context, error)

	// Close releases interpreter resources.
	Close() error
}

// Factory creates a fresh Runtime instance for one pool worker.
type Factory func() (Runtime, error)

package script

import (
	"fmt"
	"sync"
)

// HandlerFunc is one logic handler: load_template_context or an
// action_<name> function, written in Go.
type HandlerFunc func(args map[string]any) (Context, error)

// Module is the logic module of one component when the logic is
// registered in-process instead of loaded from a source file.
type Module map[string]HandlerFunc

// StaticRuntime is a Runtime backed by an in-process module registry.
//
// It serves two roles: the reference implementation used by embedders
// who write component logic in Go, and the runtime used by the test
// suite. Load is a no-op lookup against the registry, so the same
// registry can back every worker in a pool.
type StaticRuntime struct {
	mu      sync.RWMutex
	modules map[string]Module
	loaded  map[string]bool
}

// NewStaticRuntime creates a StaticRuntime over the given registry.
func NewStaticRuntime(modules map[string]Module) *StaticRuntime {
	if modules == nil {
		modules = map[string]Module{}
	}
	loaded := make(map[string]bool, len(modules))
	for id := range modules {
		loaded[id] = true
	}
	return &StaticRuntime{modules: modules, loaded: loaded}
}

// Register adds or replaces a component's module.
func (r *StaticRuntime) Register(componentID string, module Module) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules[componentID] = module
	r.loaded[componentID] = true
}

// Load implements Runtime. The registry is in-process, so loading just
// marks the component as available.
func (r *StaticRuntime) Load(componentID, sourcePath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.modules[componentID]; !ok {
		return &ScriptError{
			Message: fmt.Sprintf("no registered module for component %q", componentID),
			File:    sourcePath,
		}
	}
	r.loaded[componentID] = true
	return nil
}

// Invoke implements Runtime.
func (r *StaticRuntime) Invoke(componentID, fn string, args map[string]any) (Context, error) {
	r.mu.RLock()
	module, ok := r.modules[componentID]
	r.mu.RUnlock()
	if !ok {
		return nil, &ScriptError{Message: fmt.Sprintf("component %q not loaded", componentID)}
	}
	handler, ok := module[fn]
	if !ok {
		return nil, &ScriptError{Message: fmt.Sprintf("component %q has no function %q", componentID, fn)}
	}
	return handler(args)
}

// Close implements Runtime.
func (r *StaticRuntime) Close() error {
	return nil
}

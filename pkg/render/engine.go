package render

import (
	"context"

	"github.com/noventa-dev/noventa/pkg/script"
)

// ComponentFunc renders one nested component invocation to an HTML
// fragment. The engine calls it whenever template source invokes
// component(name, key='value', ...); the context is the one passed to
// Engine.Render and carries the pipeline's per-request state.
type ComponentFunc func(ctx context.Context, name string, kwargs map[string]any) (string, error)

// Engine is the pluggable template engine. The pipeline ships no
// templating language of its own; any engine that can render a named
// template against a context map and call back for nested components
// can sit here.
//
// Implementations must propagate ctx unchanged into every ComponentFunc
// call made while rendering.
type Engine interface {
	// Load returns the raw source of the named template.
	Load(templateID string) (string, error)

	// Render renders the named template against the given data.
	Render(ctx context.Context, templateID string, data script.Context) (string, error)

	// SetComponentFunc installs the component() callback. Called once
	// at pipeline construction, before any Render.
	SetComponentFunc(fn ComponentFunc)
}

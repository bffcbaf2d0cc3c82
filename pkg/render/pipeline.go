package render

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/noventa-dev/noventa/pkg/catalog"
	"github.com/noventa-dev/noventa/pkg/health"
	"github.com/noventa-dev/noventa/pkg/scan"
	"github.com/noventa-dev/noventa/pkg/script"
)

// Invoker dispatches one logic invocation. Satisfied by script.Pool and,
// for single-threaded use, by any script.Runtime.
type Invoker interface {
	Invoke(componentID, fn string, args map[string]any) (script.Context, error)
}

// Diagnostics receives every structured pipeline error, independently
// of the HTTP response. Satisfied by diag.Broadcaster.
type Diagnostics interface {
	Broadcast(err error)
}

// PipelineConfig wires a Pipeline together. Catalog, Invoker and Engine
// are required; the rest may be nil.
type PipelineConfig struct {
	Catalog     *catalog.Catalog
	Invoker     Invoker
	Engine      Engine
	Sampler     *health.Sampler
	Diagnostics Diagnostics
	Logger      *slog.Logger
}

// Pipeline implements the two-phase render protocol over a pluggable
// template engine and script runtime.
type Pipeline struct {
	catalog *catalog.Catalog
	invoker Invoker
	engine  Engine
	sampler *health.Sampler
	diag    Diagnostics
	logger  *slog.Logger
}

// NewPipeline creates a Pipeline and installs its component() callback
// on the engine.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		catalog: cfg.Catalog,
		invoker: cfg.Invoker,
		engine:  cfg.Engine,
		sampler: cfg.Sampler,
		diag:    cfg.Diagnostics,
		logger:  logger.With("component", "render"),
	}
	p.engine.SetComponentFunc(p.renderComponent)
	return p
}

// stateKey carries the per-request state through the engine and back
// into renderComponent.
type stateKey struct{}

// requestState is the request-scoped protocol state. The acted fields
// hold the one cached action context of this request, if any.
type requestState struct {
	req      *Request
	acted    bool
	actedID  string
	actedCtx script.Context
}

// Render runs the full protocol for one request against the page
// component with the given ID and returns the rendered HTML.
//
// GET requests skip the act phase and load a fresh context for every
// component. Any other method follows the POST protocol: scan the call
// tree, run the targeted action at most once, then re-render the page
// with the action's context cached for the matched component.
func (p *Pipeline) Render(ctx context.Context, req *Request, componentID string) (string, error) {
	comp, ok := p.catalog.Lookup(componentID)
	if !ok {
		return "", p.fail(&scan.ComponentNotFoundError{ID: componentID})
	}

	st := &requestState{req: req}
	if req.Method != http.MethodGet {
		if err := p.act(comp, req, st); err != nil {
			return "", p.fail(err)
		}
	}
	ctx = context.WithValue(ctx, stateKey{}, st)

	data, err := p.contextFor(st, componentID, nil)
	if err != nil {
		return "", p.fail(err)
	}
	fragment, err := p.renderTemplate(ctx, componentID, data)
	if err != nil {
		return "", p.fail(err)
	}
	return injectComponentID(fragment, componentID), nil
}

// act is phase two: locate the call matching the submitted component_id
// and invoke its action handler exactly once.
func (p *Pipeline) act(page catalog.Component, req *Request, st *requestState) error {
	calls, err := scan.Calls(page.Template, p.catalog)
	if err != nil {
		return err
	}
	// The page's own form carries the page id, so the page itself is an
	// addressable target even though it is not a call site.
	calls = append(calls, scan.Call{ComponentID: page.ID})

	action := req.Form["action"]
	if action == "" {
		return &InvalidRequestError{Reason: "the action form field is required for " + req.Method + " requests"}
	}
	target := req.Form["component_id"]

	for _, call := range calls {
		if call.ComponentID != target {
			continue
		}
		// Call-site literals first, then form fields; later insertion
		// wins, so submitted values override the literals.
		args := make(map[string]any, len(call.Args)+len(req.Form))
		for _, a := range call.Args {
			args[a.Name] = a.Value
		}
		for k, v := range req.Form {
			args[k] = v
		}

		cctx, err := p.invoke(call.ComponentID, "action_"+action, args)
		if err != nil {
			return err
		}
		st.acted = true
		st.actedID = call.ComponentID
		st.actedCtx = cctx
		return nil
	}

	// An unmatched component_id skips the action; the render phase then
	// runs with no cached context.
	p.logger.Debug("submitted component_id matched no call, skipping action",
		"component_id", target, "page", page.ID)
	return nil
}

// renderComponent is the engine's component() callback.
func (p *Pipeline) renderComponent(ctx context.Context, name string, kwargs map[string]any) (string, error) {
	st, ok := ctx.Value(stateKey{}).(*requestState)
	if !ok {
		return "", &TemplateRenderError{TemplateID: name, Err: errors.New("no render in progress")}
	}

	data, err := p.contextFor(st, name, kwargs)
	if err != nil {
		return "", err
	}
	fragment, err := p.renderTemplate(ctx, name, data)
	if err != nil {
		return "", err
	}
	return injectComponentID(fragment, name), nil
}

// contextFor resolves the template context for one component render:
// the cached action context verbatim for the matched component, a fresh
// load_template_context with the call's literals for everything else.
func (p *Pipeline) contextFor(st *requestState, componentID string, kwargs map[string]any) (script.Context, error) {
	if st.acted && st.actedID == componentID {
		return st.actedCtx, nil
	}

	comp, ok := p.catalog.Lookup(componentID)
	if !ok {
		return nil, &TemplateRenderError{
			TemplateID: componentID,
			Err:        fmt.Errorf("component %q not in catalog", componentID),
		}
	}
	if !comp.HasLogic() {
		return script.Context{}, nil
	}
	return p.invoke(componentID, "load_template_context", kwargs)
}

// invoke runs one logic handler and reports its latency.
func (p *Pipeline) invoke(componentID, fn string, args map[string]any) (script.Context, error) {
	start := time.Now()
	cctx, err := p.invoker.Invoke(componentID, fn, args)
	p.report(health.ChannelScript, start)
	if err != nil {
		p.logger.Error("logic invocation failed", "component", componentID, "function", fn, "error", err)
		return nil, err
	}
	return cctx, nil
}

// renderTemplate runs the engine and reports template latency. Script
// and template errors surfacing from nested component renders pass
// through unchanged; anything else is wrapped as a template failure.
func (p *Pipeline) renderTemplate(ctx context.Context, templateID string, data script.Context) (string, error) {
	start := time.Now()
	fragment, err := p.engine.Render(ctx, templateID, data)
	p.report(health.ChannelTemplate, start)
	if err != nil {
		var scriptErr *script.ScriptError
		var templateErr *TemplateRenderError
		if errors.As(err, &scriptErr) || errors.As(err, &templateErr) {
			return "", err
		}
		return "", &TemplateRenderError{TemplateID: templateID, Err: err}
	}
	return fragment, nil
}

func (p *Pipeline) report(channel string, start time.Time) {
	if p.sampler != nil {
		p.sampler.Report(channel, time.Since(start))
	}
}

// fail broadcasts the error once, at the top of the request, and hands
// it back unchanged for the boundary to classify.
func (p *Pipeline) fail(err error) error {
	if p.diag != nil {
		p.diag.Broadcast(err)
	}
	return err
}

// formTag matches an opening <form ...> tag.
var formTag = regexp.MustCompile(`(?i)<form\b[^>]*>`)

// componentIDField marks a hidden input we have already injected, so a
// nested component's form is not tagged again by its parent.
const componentIDField = `<input type="hidden" name="component_id"`

// injectComponentID tags every form in the fragment with the rendering
// component's id, so a later POST can be routed back to it.
func injectComponentID(fragment, id string) string {
	locs := formTag.FindAllStringIndex(fragment, -1)
	if len(locs) == 0 {
		return fragment
	}

	hidden := fmt.Sprintf(`<input type="hidden" name="component_id" value="%s">`, html.EscapeString(id))
	var b strings.Builder
	b.Grow(len(fragment) + len(hidden)*len(locs))
	prev := 0
	for _, loc := range locs {
		b.WriteString(fragment[prev:loc[1]])
		if !strings.HasPrefix(fragment[loc[1]:], componentIDField) {
			b.WriteString(hidden)
		}
		prev = loc[1]
	}
	b.WriteString(fragment[prev:])
	return b.String()
}

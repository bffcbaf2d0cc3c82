package render

import (
	"context"
	"errors"
	"testing"

	"github.com/noventa-dev/noventa/pkg/catalog"
	"github.com/noventa-dev/noventa/pkg/script"
)

func textEngineCatalog() *catalog.Catalog {
	return catalog.New([]catalog.Component{
		{ID: "home", Template: `<h1>{{ title }}</h1>{{ component('badge', label='new') }}`},
		{ID: "badge", Template: `<span class="badge">{{ label }}</span>`},
		{ID: "profile", Template: `<p>{{ user.name }}</p>`},
	})
}

func TestTextEngineSubstitutesVariables(t *testing.T) {
	e := NewTextEngine(textEngineCatalog())
	e.SetComponentFunc(func(ctx context.Context, name string, kwargs map[string]any) (string, error) {
		return "[" + name + "]", nil
	})

	out, err := e.Render(context.Background(), "home", script.Context{"title": "Hi"})
	if err != nil {
		t.Fatal(err)
	}
	if out != `<h1>Hi</h1>[badge]` {
		t.Errorf("out = %q", out)
	}
}

func TestTextEngineEscapesValues(t *testing.T) {
	e := NewTextEngine(textEngineCatalog())

	out, err := e.Render(context.Background(), "badge", script.Context{"label": `<b>&</b>`})
	if err != nil {
		t.Fatal(err)
	}
	if out != `<span class="badge">&lt;b&gt;&amp;&lt;/b&gt;</span>` {
		t.Errorf("out = %q", out)
	}
}

func TestTextEngineDottedPaths(t *testing.T) {
	e := NewTextEngine(textEngineCatalog())

	out, err := e.Render(context.Background(), "profile", script.Context{
		"user": map[string]any{"name": "ada"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if out != `<p>ada</p>` {
		t.Errorf("out = %q", out)
	}
}

func TestTextEngineMissingVariableRendersEmpty(t *testing.T) {
	e := NewTextEngine(textEngineCatalog())

	out, err := e.Render(context.Background(), "badge", script.Context{})
	if err != nil {
		t.Fatal(err)
	}
	if out != `<span class="badge"></span>` {
		t.Errorf("out = %q", out)
	}
}

func TestTextEnginePassesCallKwargs(t *testing.T) {
	e := NewTextEngine(textEngineCatalog())
	var got map[string]any
	e.SetComponentFunc(func(ctx context.Context, name string, kwargs map[string]any) (string, error) {
		got = kwargs
		return "", nil
	})

	if _, err := e.Render(context.Background(), "home", script.Context{}); err != nil {
		t.Fatal(err)
	}
	if got["label"] != "new" {
		t.Errorf("kwargs = %v", got)
	}
}

func TestTextEnginePropagatesComponentErrors(t *testing.T) {
	e := NewTextEngine(textEngineCatalog())
	boom := errors.New("boom")
	e.SetComponentFunc(func(ctx context.Context, name string, kwargs map[string]any) (string, error) {
		return "", boom
	})

	if _, err := e.Render(context.Background(), "home", script.Context{}); !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
}

func TestTextEngineUnknownTemplate(t *testing.T) {
	e := NewTextEngine(textEngineCatalog())
	_, err := e.Render(context.Background(), "ghost", script.Context{})
	var terr *TemplateRenderError
	if !errors.As(err, &terr) || terr.TemplateID != "ghost" {
		t.Errorf("err = %v", err)
	}
}

package errors

import (
	stderrors "errors"

	"github.com/noventa-dev/noventa/pkg/admission"
	"github.com/noventa-dev/noventa/pkg/render"
	"github.com/noventa-dev/noventa/pkg/scan"
	"github.com/noventa-dev/noventa/pkg/script"
)

// Classify converts any pipeline error into its structured form,
// attaching the code, category and whatever detail the original error
// carries. Unknown errors become an uncoded script-category error so
// they still render somewhere useful.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	if structured, ok := err.(*Error); ok {
		return structured
	}

	var notFound *scan.ComponentNotFoundError
	if stderrors.As(err, &notFound) {
		return New("E020").
			WithDetail("Component " + notFound.ID + " is not in the catalog.").
			Wrap(err)
	}

	var cycle *scan.CycleError
	if stderrors.As(err, &cycle) {
		return New("E021").
			WithDetail("Component " + cycle.ID + " reaches itself through nested calls.").
			Wrap(err)
	}

	var invalid *render.InvalidRequestError
	if stderrors.As(err, &invalid) {
		return New("E010").Wrap(err)
	}

	var scriptErr *script.ScriptError
	if stderrors.As(err, &scriptErr) {
		code := "E001"
		// A missing handler has no traceback to show.
		if scriptErr.Traceback == "" {
			code = "E002"
		}
		structured := New(code).WithTraceback(scriptErr.Traceback).Wrap(err)
		if scriptErr.File != "" {
			structured = structured.WithLocation(scriptErr.File, scriptErr.Line, 0)
		}
		return structured
	}

	var templateErr *render.TemplateRenderError
	if stderrors.As(err, &templateErr) {
		return New("E030").
			WithDetail("Template " + templateErr.TemplateID + " failed to render: " + templateErr.Err.Error()).
			Wrap(err)
	}

	if stderrors.Is(err, script.ErrWorkerUnavailable) {
		return New("E040").Wrap(err)
	}
	if stderrors.Is(err, admission.ErrRejected) {
		return New("E050").Wrap(err)
	}

	return Newf(CategoryScript, "%v", err).Wrap(err)
}

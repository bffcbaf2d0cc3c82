package render

import "fmt"

// InvalidRequestError reports a request that cannot enter the pipeline,
// such as a POST without the required action field.
type InvalidRequestError struct {
	Reason string
}

// Error implements the error interface.
func (e *InvalidRequestError) Error() string {
	return "render: invalid request: " + e.Reason
}

// TemplateRenderError reports a template engine failure, including a
// component reference that fails to resolve at render time.
type TemplateRenderError struct {
	TemplateID string
	Err        error
}

// Error implements the error interface.
func (e *TemplateRenderError) Error() string {
	return fmt.Sprintf("render: template %q: %v", e.TemplateID, e.Err)
}

// Unwrap returns the underlying engine error.
func (e *TemplateRenderError) Unwrap() error {
	return e.Err
}

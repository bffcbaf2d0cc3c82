package render

import (
	"net/http"
)

// FilePart is one uploaded file attached to a request. Small uploads
// stay in memory; larger ones are spooled to disk and carry only the
// path.
type FilePart struct {
	Filename    string
	ContentType string
	Headers     map[string]string

	// Data holds the payload when the part was kept in memory.
	Data []byte

	// Path is the on-disk location when the part was spooled.
	Path string

	// URL points at the stored object when the part went to a
	// remote store instead of local disk.
	URL string
}

// Request is the immutable view of one inbound page request. It is
// built once at the boundary and shared read-only across every
// concurrent sub-render of that request; nothing in the pipeline
// mutates it.
type Request struct {
	Method     string
	Path       string
	Headers    map[string]string
	Form       map[string]string
	Files      map[string]FilePart
	Query      map[string]string
	PathParams map[string]string
}

// FromHTTP builds a Request from a standard http.Request with
// urlencoded form data. Multipart bodies are handled by the upload
// package, which fills Files and Form itself.
func FromHTTP(r *http.Request, pathParams map[string]string) (*Request, error) {
	if err := r.ParseForm(); err != nil {
		return nil, &InvalidRequestError{Reason: "malformed form body: " + err.Error()}
	}

	headers := make(map[string]string, len(r.Header))
	for name := range r.Header {
		headers[name] = r.Header.Get(name)
	}
	form := make(map[string]string, len(r.PostForm))
	for name := range r.PostForm {
		form[name] = r.PostForm.Get(name)
	}
	query := make(map[string]string)
	for name := range r.URL.Query() {
		query[name] = r.URL.Query().Get(name)
	}
	if pathParams == nil {
		pathParams = map[string]string{}
	}

	return &Request{
		Method:     r.Method,
		Path:       r.URL.Path,
		Headers:    headers,
		Form:       form,
		Files:      map[string]FilePart{},
		Query:      query,
		PathParams: pathParams,
	}, nil
}

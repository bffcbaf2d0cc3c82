package upload

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/noventa-dev/noventa/pkg/render"
)

// IsMultipart reports whether the request carries a multipart form.
func IsMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// AttachMultipart parses a multipart body and fills req.Form and
// req.Files. Parts at or below maxMemory bytes are kept inline in
// FilePart.Data; larger parts go through the store and the part
// carries the stored Path or URL instead.
func AttachMultipart(ctx context.Context, r *http.Request, req *render.Request, store Store, maxMemory int64) error {
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		return &render.InvalidRequestError{Reason: "malformed multipart body: " + err.Error()}
	}

	for name := range r.MultipartForm.Value {
		req.Form[name] = r.MultipartForm.Value[name][0]
	}

	for name, headers := range r.MultipartForm.File {
		// One file per field; duplicate fields keep the first part,
		// matching how form values are flattened above.
		fh := headers[0]

		part := render.FilePart{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Headers:     make(map[string]string, len(fh.Header)),
		}
		for key := range fh.Header {
			part.Headers[key] = fh.Header.Get(key)
		}

		f, err := fh.Open()
		if err != nil {
			return &render.InvalidRequestError{Reason: "unreadable file part " + name + ": " + err.Error()}
		}

		if fh.Size <= maxMemory {
			part.Data, err = io.ReadAll(f)
			f.Close()
			if err != nil {
				return err
			}
		} else {
			stored, err := store.Save(ctx, fh.Filename, part.ContentType, f)
			f.Close()
			if err != nil {
				return err
			}
			part.Path = stored.Path
			part.URL = stored.URL
		}

		req.Files[name] = part
	}
	return nil
}

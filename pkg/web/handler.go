package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/noventa-dev/noventa/internal/dev"
	"github.com/noventa-dev/noventa/internal/errors"
	"github.com/noventa-dev/noventa/pkg/health"
	"github.com/noventa-dev/noventa/pkg/render"
	"github.com/noventa-dev/noventa/pkg/upload"
)

// handlePage resolves the path against the route table and runs the
// render pipeline.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	table := s.routes.Load()
	if table == nil {
		s.errorPage(w, r, errors.New("E070").WithDetail("no route table compiled"))
		return
	}

	route, params, ok := table.Match(r.URL.Path)
	if !ok {
		s.errorPage(w, r, errors.New("E020").
			WithDetail("No page matches "+r.URL.Path).
			WithRoute(r.URL.Path))
		return
	}

	if s.opts.Admission != nil {
		if err := s.opts.Admission.Admit(r.URL.Path); err != nil {
			if s.opts.Metrics != nil {
				s.opts.Metrics.RecordShedRejection()
			}
			s.errorPage(w, r, errors.Classify(err))
			return
		}
		start := time.Now()
		defer func() {
			d := time.Since(start)
			s.opts.Admission.Finish(d)
			s.opts.Sampler.Report(health.ChannelRoundTrip, d)
		}()
	} else {
		start := time.Now()
		defer func() {
			s.opts.Sampler.Report(health.ChannelRoundTrip, time.Since(start))
		}()
	}

	req, err := s.buildRequest(r, params)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	html, err := s.opts.Pipeline.Render(r.Context(), req, route.PageID)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	if s.opts.DevMode {
		html = injectReloadScript(html)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(html))
}

// buildRequest converts the HTTP request into the pipeline's view,
// routing multipart bodies through the upload store.
func (s *Server) buildRequest(r *http.Request, params map[string]string) (*render.Request, error) {
	req, err := render.FromHTTP(r, params)
	if err != nil {
		return nil, err
	}
	if upload.IsMultipart(r) && s.opts.UploadStore != nil {
		maxMemory := int64(1 << 20)
		if s.opts.Config != nil {
			maxMemory = s.opts.Config.Uploads.MaxMemoryBytes
		}
		if err := upload.AttachMultipart(r.Context(), r, req, s.opts.UploadStore, maxMemory); err != nil {
			return nil, err
		}
	}
	return req, nil
}

// renderError classifies a pipeline error and writes the matching
// error page.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	classified := errors.Classify(err).WithRoute(r.URL.Path)
	if s.opts.Metrics != nil {
		s.opts.Metrics.RecordRenderError(string(classified.Category))
	}
	s.logger.Error("render failed",
		"path", r.URL.Path,
		"code", classified.Code,
		"error", classified.Message)
	s.errorPage(w, r, classified)
}

// injectReloadScript appends the hot reload client before </body>, or
// at the end when the fragment has no body tag.
func injectReloadScript(html string) string {
	idx := strings.LastIndex(strings.ToLower(html), "</body>")
	if idx < 0 {
		return html + dev.ClientScript
	}
	return html[:idx] + dev.ClientScript + html[idx:]
}

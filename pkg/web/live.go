package web

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/noventa-dev/noventa/internal/errors"
	"github.com/noventa-dev/noventa/pkg/dom"
	"github.com/noventa-dev/noventa/pkg/render"
)

var liveUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// liveRequest is one message from a live client: a page path plus the
// form fields of the action it wants to run. The first message for a
// path establishes the baseline tree; later messages answer with
// patches against it.
type liveRequest struct {
	Path string            `json:"path"`
	Form map[string]string `json:"form,omitempty"`
}

// liveResponse carries either a patch list or an error.
type liveResponse struct {
	Patches []dom.Patch `json:"patches,omitempty"`
	HTML    string      `json:"html,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// handleLive serves the live-update channel. Instead of full page
// reloads, the client re-runs actions over the socket and receives the
// positional diff between its current tree and the re-render.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := liveUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	// Last rendered tree per path, the diff baseline.
	trees := map[string]*dom.Node{}

	for {
		var req liveRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		resp := s.liveRender(r, &req, trees)
		if err := conn.WriteJSON(resp); err != nil {
			return
		}
		if s.opts.Metrics != nil && len(resp.Patches) > 0 {
			s.opts.Metrics.RecordPatches(len(resp.Patches))
		}
	}
}

// handleDiag streams diagnostic events to editor tooling in
// development mode.
func (s *Server) handleDiag(w http.ResponseWriter, r *http.Request) {
	conn, err := liveUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	events, cancel := s.opts.Diag.Subscribe()
	defer cancel()

	// A disconnected client surfaces as a write error on the next
	// event; the request context is not reliable after the hijack.
	for ev := range events {
		if err := conn.WriteJSON(ev); err != nil {
			return
		}
	}
}

func (s *Server) liveRender(r *http.Request, req *liveRequest, trees map[string]*dom.Node) liveResponse {
	table := s.routes.Load()
	route, params, ok := table.Match(req.Path)
	if !ok {
		return liveResponse{Error: "no page matches " + req.Path, Code: "E020"}
	}

	method := http.MethodGet
	if len(req.Form) > 0 {
		method = http.MethodPost
	}
	pageReq := &render.Request{
		Method:     method,
		Path:       req.Path,
		Headers:    map[string]string{},
		Form:       req.Form,
		Files:      map[string]render.FilePart{},
		Query:      map[string]string{},
		PathParams: params,
	}
	if pageReq.Form == nil {
		pageReq.Form = map[string]string{}
	}

	html, err := s.opts.Pipeline.Render(r.Context(), pageReq, route.PageID)
	if err != nil {
		classified := errors.Classify(err)
		return liveResponse{Error: classified.Message, Code: classified.Code}
	}

	next, err := dom.Parse(html)
	if err != nil {
		return liveResponse{Error: "unparseable render output: " + err.Error(), Code: "E030"}
	}

	prev, seen := trees[req.Path]
	trees[req.Path] = next
	if !seen {
		// First render over this socket: ship the full page so the
		// client has a baseline to patch against.
		return liveResponse{HTML: html}
	}
	return liveResponse{Patches: dom.Diff(prev, next)}
}

package web

import (
	"encoding/json"
	"net/http"
)

// healthResponse is the /health payload: windowed latency percentiles
// plus the admission controller's current view.
type healthResponse struct {
	Status    string          `json:"status"`
	Latency   any             `json:"latency"`
	Admission *admissionState `json:"admission,omitempty"`
}

type admissionState struct {
	State    string `json:"state"`
	InFlight int    `json:"in_flight"`
	Ceiling  *int   `json:"ceiling,omitempty"`
}

// handleHealth reports pipeline latency over 30s/1m/5m windows. The
// admission controller never sheds this path, so the endpoint stays
// reachable while the server is refusing page traffic.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:  "ok",
		Latency: s.opts.Sampler.Snapshot(),
	}
	if s.opts.Admission != nil {
		state := &admissionState{
			State:    s.opts.Admission.State().String(),
			InFlight: s.opts.Admission.InFlight(),
		}
		if ceiling, frozen := s.opts.Admission.Ceiling(); frozen {
			state.Ceiling = &ceiling
			resp.Status = "shedding"
		}
		resp.Admission = state
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

package server

import (
	"io"
	"net/http"

	"github.com/cloe-engine/cloe/internal/confval"
	"github.com/cloe-engine/cloe/internal/trigger"
)

func (s *Server) handleUUID(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"uuid": s.uuid})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"version": s.version})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	sync := s.sc.Sync
	writeJSON(w, map[string]any{
		"step":    sync.Step(),
		"time":    sync.Time().Seconds(),
		"eta":     sync.ETA().Seconds(),
		"outcome": s.sc.Outcome(),
	})
}

func (s *Server) handleConfiguration(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("type")
	if kind == "input" {
		writeJSON(w, s.sc.Stack.InputConfig())
		return
	}
	writeJSON(w, s.sc.Stack.Conf().Root())
}

func (s *Server) handleSimulation(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"outcome": s.sc.Outcome(),
		"errors":  s.sc.Errors(),
		"probe":   s.sc.Probe(),
	})
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.sc.Statistics.Snapshot())
}

func (s *Server) handlePlugins(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.sc.Registry.Manifests())
}

func (s *Server) handleEndpoints(w http.ResponseWriter, r *http.Request) {
	type endpoint struct {
		Path   string `json:"path"`
		Method string `json:"method"`
		Owner  string `json:"owner"`
	}
	eps := s.sc.Endpoints()
	out := make([]endpoint, len(eps))
	for i, ep := range eps {
		out[i] = endpoint{Path: ep.Path, Method: ep.Method, Owner: ep.Owner}
	}
	writeJSON(w, out)
}

func (s *Server) handleTriggerActions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.sc.Factory.ActionNames())
}

func (s *Server) handleTriggerEvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.sc.Factory.EventNames())
}

func (s *Server) handleTriggerQueue(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]int{"pending": s.sc.Coordinator.QueueLen()})
}

func (s *Server) handleTriggerHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.sc.Coordinator.History().Entries())
}

// handleTriggerInput accepts a trigger description as a JSON object
// with "event" and "action" string fields (the same compact form
// Stack-configured triggers use) and enqueues it tagged
// Source=Network.
func (s *Server) handleTriggerInput(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	val, err := confval.Unmarshal(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	m, ok := val.(confval.Map)
	if !ok {
		http.Error(w, "request body must be a JSON object", http.StatusBadRequest)
		return
	}

	t, err := s.sc.Factory.FromConf(m, trigger.SourceNetwork, s.sc.Sync.Step())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.sc.Coordinator.QueueTrigger(t)
	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, map[string]string{"id": t.ID})
}

// Package server implements the lightweight in-process dev server used
// by `probe`/`run` for local inspection: the route table named in §6,
// backed directly by a live *simcontext.SimulationContext rather than a
// separately maintained snapshot.
package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cloe-engine/cloe/internal/simcontext"
)

// Server wraps an http.Server exposing the cloe route table plus any
// plugin-contributed endpoints enrolled during CONNECT.
type Server struct {
	uuid    string
	version string
	sc      *simcontext.SimulationContext
	mux     *http.ServeMux
	httpSrv *http.Server
}

// New builds a Server bound to addr, serving routes from sc. Start must
// be called to begin listening; it is safe to construct a Server before
// the simulation reaches CONNECT (handlers read sc lazily on request).
func New(addr, uuid, version string, sc *simcontext.SimulationContext) *Server {
	s := &Server{uuid: uuid, version: version, sc: sc, mux: http.NewServeMux()}
	s.routes()
	s.httpSrv = &http.Server{Addr: addr, Handler: s.mux}
	return s
}

// Start begins listening in the background, returning immediately. A
// bind failure is delivered on the returned channel.
func (s *Server) Start() <-chan error {
	errc := make(chan error, 1)
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
		close(errc)
	}()
	return errc
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/uuid", s.handleUUID)
	s.mux.HandleFunc("/api/version", s.handleVersion)
	s.mux.HandleFunc("/api/progress", s.handleProgress)
	s.mux.HandleFunc("/api/configuration", s.handleConfiguration)
	s.mux.HandleFunc("/api/simulation", s.handleSimulation)
	s.mux.HandleFunc("/api/statistics", s.handleStatistics)
	s.mux.HandleFunc("/api/plugins", s.handlePlugins)
	s.mux.HandleFunc("/api/endpoints", s.handleEndpoints)

	s.mux.HandleFunc("/api/triggers/actions", s.handleTriggerActions)
	s.mux.HandleFunc("/api/triggers/events", s.handleTriggerEvents)
	s.mux.HandleFunc("/api/triggers/queue", s.handleTriggerQueue)
	s.mux.HandleFunc("/api/triggers/history", s.handleTriggerHistory)
	s.mux.HandleFunc("/api/triggers/input", s.handleTriggerInput)

	for _, ep := range s.sc.Endpoints() {
		s.mux.HandleFunc(ep.Path, ep.Handler)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

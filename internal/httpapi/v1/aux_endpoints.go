package v1

import "net/http"

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	toJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readyz fails when the backing store is unreachable.
func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		toJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	toJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

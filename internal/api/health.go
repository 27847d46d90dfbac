package api

import "net/http"

// healthResponse reports liveness plus store reachability, so a probe can
// tell a dead database apart from a healthy idle server.
type healthResponse struct {
	Status    string `json:"status"`
	TotalRuns int    `json:"total_runs"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	_, total, err := s.store.ListBatchRuns(r.Context(), 1, 0)
	if err != nil {
		s.logger.Error("health check store probe", "error", err)
		s.writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded"})
		return
	}

	s.writeJSON(w, http.StatusOK, healthResponse{Status: "ok", TotalRuns: total})
}

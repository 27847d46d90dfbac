package api

import (
	"net/http"
)

// statsResponse is the JSON response for GET /v1/stats.
type statsResponse struct {
	TotalRuns     int            `json:"total_runs"`
	TotalTasks    int            `json:"total_tasks"`
	RunsByStatus  map[string]int `json:"runs_by_status"`
	TasksByStatus map[string]int `json:"tasks_by_status"`
	AvgDurationMS float64        `json:"avg_duration_ms"`
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetBatchStats(r.Context())
	if err != nil {
		s.logger.Error("get batch stats", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}

	s.writeJSON(w, http.StatusOK, statsResponse{
		TotalRuns:     stats.TotalRuns,
		TotalTasks:    stats.TotalTasks,
		RunsByStatus:  stats.RunsByStatus,
		TasksByStatus: stats.TasksByStatus,
		AvgDurationMS: stats.AvgDurationMS,
	})
}

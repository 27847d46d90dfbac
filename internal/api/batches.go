package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/seantiz/atlas/internal/model"
	"github.com/seantiz/atlas/internal/store"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// listBatchRunsResponse wraps the paginated list response.
type listBatchRunsResponse struct {
	Runs   []*model.BatchRun `json:"runs"`
	Total  int               `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

// taskResultsResponse is the JSON response for GET /v1/batches/{id}/results.
// MissingIDs is called out separately so pipeline callers can decide on
// retries without scanning the full result list.
type taskResultsResponse struct {
	RunID      string             `json:"run_id"`
	Results    []model.TaskResult `json:"results"`
	MissingIDs []int              `json:"missing_ids"`
	FailedIDs  []int              `json:"failed_ids"`
}

func (s *Server) handleListBatchRuns(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultListLimit)
	if limit < 1 || limit > maxListLimit {
		limit = defaultListLimit
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	runs, total, err := s.store.ListBatchRuns(r.Context(), limit, offset)
	if err != nil {
		s.logger.Error("list batch runs", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list batch runs")
		return
	}

	s.writeJSON(w, http.StatusOK, listBatchRunsResponse{
		Runs:   runs,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

func (s *Server) handleGetBatchRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := s.store.GetBatchRun(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "batch run not found")
		return
	}
	if err != nil {
		s.logger.Error("get batch run", "run_id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get batch run")
		return
	}

	s.writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleGetTaskResults(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := s.store.GetBatchRun(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "batch run not found")
			return
		}
		s.logger.Error("get batch run", "run_id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get batch run")
		return
	}

	results, err := s.store.GetTaskResults(r.Context(), id)
	if err != nil {
		s.logger.Error("get task results", "run_id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get task results")
		return
	}

	resp := taskResultsResponse{
		RunID:      id,
		Results:    results,
		MissingIDs: []int{},
		FailedIDs:  []int{},
	}
	for _, tr := range results {
		switch tr.Status {
		case model.StatusMissing:
			resp.MissingIDs = append(resp.MissingIDs, tr.TaskID)
		case model.StatusFailed:
			resp.FailedIDs = append(resp.FailedIDs, tr.TaskID)
		}
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// queryInt parses an integer query parameter, falling back to def.
func queryInt(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

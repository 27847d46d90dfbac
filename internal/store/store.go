package store

import (
	"context"
	"errors"

	"github.com/seantiz/atlas/internal/model"
)

// ErrInvalidTransition is returned when a batch run status transition is not
// allowed.
var ErrInvalidTransition = errors.New("invalid status transition")

// BatchStats holds aggregate statistics over persisted batch runs.
type BatchStats struct {
	TotalRuns     int            `json:"total_runs"`
	TotalTasks    int            `json:"total_tasks"`
	RunsByStatus  map[string]int `json:"runs_by_status"`
	TasksByStatus map[string]int `json:"tasks_by_status"`
	AvgDurationMS float64        `json:"avg_duration_ms"`
}

// Store defines the persistence operations for batch runs and task results.
type Store interface {
	CreateBatchRun(ctx context.Context, r *model.BatchRun) error
	GetBatchRun(ctx context.Context, id string) (*model.BatchRun, error)
	ListBatchRuns(ctx context.Context, limit, offset int) ([]*model.BatchRun, int, error)
	UpdateBatchRunStatus(ctx context.Context, id, status string) error
	FinishBatchRun(ctx context.Context, id, status, errMsg string, durationMS int) error
	InsertTaskResults(ctx context.Context, runID string, results []model.TaskResult) error
	GetTaskResults(ctx context.Context, runID string) ([]model.TaskResult, error)
	GetBatchStats(ctx context.Context) (*BatchStats, error)
	Close() error
}

package store

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/seantiz/atlas/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestRun() *model.BatchRun {
	return &model.BatchRun{
		ID:        model.NewID(),
		BatchID:   model.NewID(),
		Backend:   "local",
		Workers:   4,
		WorkDir:   "/work",
		Status:    model.RunPending,
		TaskCount: 3,
		CreatedAt: time.Now().UTC(),
	}
}

func TestCreateAndGetBatchRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	run := newTestRun()

	if err := s.CreateBatchRun(ctx, run); err != nil {
		t.Fatalf("CreateBatchRun: %v", err)
	}

	got, err := s.GetBatchRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetBatchRun: %v", err)
	}
	if got.ID != run.ID || got.BatchID != run.BatchID {
		t.Errorf("got ids (%q, %q), want (%q, %q)", got.ID, got.BatchID, run.ID, run.BatchID)
	}
	if got.Backend != "local" || got.Workers != 4 || got.TaskCount != 3 {
		t.Errorf("run fields not persisted: %+v", got)
	}
	if got.Status != model.RunPending {
		t.Errorf("status = %q, want pending", got.Status)
	}
	if got.StartedAt != nil || got.FinishedAt != nil || got.DurationMS != nil {
		t.Error("fresh run has non-nil timing fields")
	}
}

func TestGetBatchRunNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetBatchRun(context.Background(), "absent")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestListBatchRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		run := newTestRun()
		run.CreatedAt = time.Now().UTC().Add(time.Duration(i) * time.Second)
		if err := s.CreateBatchRun(ctx, run); err != nil {
			t.Fatalf("CreateBatchRun: %v", err)
		}
	}

	runs, total, err := s.ListBatchRuns(ctx, 2, 0)
	if err != nil {
		t.Fatalf("ListBatchRuns: %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].CreatedAt.Before(runs[1].CreatedAt) {
		t.Error("runs not ordered newest first")
	}

	rest, _, err := s.ListBatchRuns(ctx, 10, 2)
	if err != nil {
		t.Fatalf("ListBatchRuns with offset: %v", err)
	}
	if len(rest) != 3 {
		t.Errorf("got %d runs after offset 2, want 3", len(rest))
	}
}

func TestUpdateBatchRunStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	run := newTestRun()
	if err := s.CreateBatchRun(ctx, run); err != nil {
		t.Fatalf("CreateBatchRun: %v", err)
	}

	if err := s.UpdateBatchRunStatus(ctx, run.ID, model.RunRunning); err != nil {
		t.Fatalf("to running: %v", err)
	}
	got, _ := s.GetBatchRun(ctx, run.ID)
	if got.Status != model.RunRunning {
		t.Errorf("status = %q, want running", got.Status)
	}
	if got.StartedAt == nil {
		t.Error("started_at not set on transition to running")
	}

	if err := s.UpdateBatchRunStatus(ctx, run.ID, model.RunCompleted); err != nil {
		t.Fatalf("to completed: %v", err)
	}
	got, _ = s.GetBatchRun(ctx, run.ID)
	if got.FinishedAt == nil {
		t.Error("finished_at not set on terminal transition")
	}
}

func TestUpdateBatchRunStatusInvalidTransition(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	run := newTestRun()
	if err := s.CreateBatchRun(ctx, run); err != nil {
		t.Fatalf("CreateBatchRun: %v", err)
	}

	err := s.UpdateBatchRunStatus(ctx, run.ID, model.RunCompleted)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("pending -> completed error = %v, want ErrInvalidTransition", err)
	}

	if err := s.UpdateBatchRunStatus(ctx, run.ID, model.RunRunning); err != nil {
		t.Fatalf("to running: %v", err)
	}
	if err := s.UpdateBatchRunStatus(ctx, run.ID, model.RunFailed); err != nil {
		t.Fatalf("to failed: %v", err)
	}
	err = s.UpdateBatchRunStatus(ctx, run.ID, model.RunRunning)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("failed -> running error = %v, want ErrInvalidTransition", err)
	}
}

func TestFinishBatchRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	run := newTestRun()
	if err := s.CreateBatchRun(ctx, run); err != nil {
		t.Fatalf("CreateBatchRun: %v", err)
	}
	if err := s.UpdateBatchRunStatus(ctx, run.ID, model.RunRunning); err != nil {
		t.Fatalf("to running: %v", err)
	}

	if err := s.FinishBatchRun(ctx, run.ID, model.RunFailed, "launcher exploded", 1234); err != nil {
		t.Fatalf("FinishBatchRun: %v", err)
	}

	got, err := s.GetBatchRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetBatchRun: %v", err)
	}
	if got.Status != model.RunFailed {
		t.Errorf("status = %q, want failed", got.Status)
	}
	if got.Error != "launcher exploded" {
		t.Errorf("error = %q", got.Error)
	}
	if got.DurationMS == nil || *got.DurationMS != 1234 {
		t.Errorf("duration = %v, want 1234", got.DurationMS)
	}
	if got.FinishedAt == nil {
		t.Error("finished_at not set")
	}
}

func TestFinishBatchRunFromTerminal(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	run := newTestRun()
	if err := s.CreateBatchRun(ctx, run); err != nil {
		t.Fatalf("CreateBatchRun: %v", err)
	}
	if err := s.UpdateBatchRunStatus(ctx, run.ID, model.RunRunning); err != nil {
		t.Fatalf("to running: %v", err)
	}
	if err := s.FinishBatchRun(ctx, run.ID, model.RunCompleted, "", 10); err != nil {
		t.Fatalf("FinishBatchRun: %v", err)
	}

	err := s.FinishBatchRun(ctx, run.ID, model.RunFailed, "late", 20)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("error = %v, want ErrInvalidTransition", err)
	}
}

func TestTaskResultsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	run := newTestRun()
	if err := s.CreateBatchRun(ctx, run); err != nil {
		t.Fatalf("CreateBatchRun: %v", err)
	}

	results := []model.TaskResult{
		{TaskID: 0, Status: model.StatusSuccess, Outputs: []string{"a_0000.psf", "a_0000.pdb"}, DurationMS: 120},
		{TaskID: 1, Status: model.StatusFailed, Error: "exit status 1", DurationMS: 80},
		{TaskID: 2, Status: model.StatusMissing},
	}
	if err := s.InsertTaskResults(ctx, run.ID, results); err != nil {
		t.Fatalf("InsertTaskResults: %v", err)
	}

	got, err := s.GetTaskResults(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetTaskResults: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d results, want 3", len(got))
	}
	if !slices.Equal(got[0].Outputs, results[0].Outputs) {
		t.Errorf("task 0 outputs = %v, want %v", got[0].Outputs, results[0].Outputs)
	}
	if got[1].Status != model.StatusFailed || got[1].Error != "exit status 1" {
		t.Errorf("task 1 = %+v", got[1])
	}
	if got[2].Status != model.StatusMissing || got[2].Outputs != nil {
		t.Errorf("task 2 = %+v", got[2])
	}
}

func TestGetTaskResultsEmpty(t *testing.T) {
	s := newTestStore(t)

	got, err := s.GetTaskResults(context.Background(), "absent")
	if err != nil {
		t.Fatalf("GetTaskResults: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d results for unknown run", len(got))
	}
}

func TestGetBatchStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := newTestRun()
	if err := s.CreateBatchRun(ctx, first); err != nil {
		t.Fatalf("CreateBatchRun: %v", err)
	}
	if err := s.UpdateBatchRunStatus(ctx, first.ID, model.RunRunning); err != nil {
		t.Fatalf("to running: %v", err)
	}
	if err := s.FinishBatchRun(ctx, first.ID, model.RunCompleted, "", 100); err != nil {
		t.Fatalf("FinishBatchRun: %v", err)
	}
	if err := s.InsertTaskResults(ctx, first.ID, []model.TaskResult{
		{TaskID: 0, Status: model.StatusSuccess},
		{TaskID: 1, Status: model.StatusMissing},
	}); err != nil {
		t.Fatalf("InsertTaskResults: %v", err)
	}

	second := newTestRun()
	if err := s.CreateBatchRun(ctx, second); err != nil {
		t.Fatalf("CreateBatchRun: %v", err)
	}
	if err := s.UpdateBatchRunStatus(ctx, second.ID, model.RunRunning); err != nil {
		t.Fatalf("to running: %v", err)
	}
	if err := s.FinishBatchRun(ctx, second.ID, model.RunFailed, "boom", 300); err != nil {
		t.Fatalf("FinishBatchRun: %v", err)
	}

	stats, err := s.GetBatchStats(ctx)
	if err != nil {
		t.Fatalf("GetBatchStats: %v", err)
	}
	if stats.TotalRuns != 2 {
		t.Errorf("TotalRuns = %d, want 2", stats.TotalRuns)
	}
	if stats.RunsByStatus[model.RunCompleted] != 1 || stats.RunsByStatus[model.RunFailed] != 1 {
		t.Errorf("RunsByStatus = %v", stats.RunsByStatus)
	}
	if stats.TotalTasks != 2 {
		t.Errorf("TotalTasks = %d, want 2", stats.TotalTasks)
	}
	if stats.TasksByStatus[model.StatusSuccess] != 1 || stats.TasksByStatus[model.StatusMissing] != 1 {
		t.Errorf("TasksByStatus = %v", stats.TasksByStatus)
	}
	if stats.AvgDurationMS != 200 {
		t.Errorf("AvgDurationMS = %v, want 200", stats.AvgDurationMS)
	}
}

// Package engine provides the batch execution facade: the sole entry point
// the rest of the pipeline uses to run a batch. It hides pool backend
// selection behind a registry, persists run lifecycle and per-task results,
// and reports partial failure as data rather than an error — only setup,
// serialization, and launch problems are fatal.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/seantiz/atlas/internal/model"
	"github.com/seantiz/atlas/internal/pool"
	"github.com/seantiz/atlas/internal/store"
)

// Engine orchestrates batch execution across the configured pool backends.
type Engine struct {
	store    store.Store
	registry *pool.Registry
	logger   *slog.Logger
}

// RunOptions selects and sizes the pool backend for one batch run.
type RunOptions struct {
	Backend string // pool.BackendLocal or pool.BackendDistributed
	Workers int    // local worker processes, or distributed world size
}

// New creates a new execution engine.
func New(s store.Store, reg *pool.Registry, logger *slog.Logger) *Engine {
	return &Engine{
		store:    s,
		registry: reg,
		logger:   logger,
	}
}

// RunBatch executes the batch on the selected backend and returns the full
// id-to-result map. Tasks whose declared outputs never appeared are listed
// by result.MissingIDs(); they are not retried automatically — whether a
// given count of failed or missing results blocks the pipeline is the
// caller's decision, not the engine's.
func (e *Engine) RunBatch(ctx context.Context, b *model.Batch, opts RunOptions) (*model.BatchResult, error) {
	factory, err := e.registry.Resolve(opts.Backend)
	if err != nil {
		return nil, fmt.Errorf("select backend: %w", err)
	}

	run := &model.BatchRun{
		ID:        model.NewID(),
		BatchID:   b.ID,
		Backend:   opts.Backend,
		Workers:   opts.Workers,
		WorkDir:   b.WorkDir,
		Status:    model.RunPending,
		TaskCount: b.Len(),
		CreatedAt: time.Now().UTC(),
	}
	if err := e.store.CreateBatchRun(ctx, run); err != nil {
		return nil, fmt.Errorf("create batch run: %w", err)
	}

	if err := e.store.UpdateBatchRunStatus(ctx, run.ID, model.RunRunning); err != nil {
		e.logger.Error("failed to transition run to running", "run_id", run.ID, "error", err)
	}

	e.logger.Info("running batch",
		"run_id", run.ID,
		"batch_id", b.ID,
		"backend", opts.Backend,
		"workers", opts.Workers,
		"tasks", b.Len(),
	)

	start := time.Now()
	result, err := factory(opts.Workers).Run(ctx, b)
	durationMS := int(time.Since(start).Milliseconds())
	batchDuration.WithLabelValues(opts.Backend).Observe(time.Since(start).Seconds())

	if err != nil {
		batchesTotal.WithLabelValues(opts.Backend, model.RunFailed).Inc()
		if ferr := e.store.FinishBatchRun(ctx, run.ID, model.RunFailed, err.Error(), durationMS); ferr != nil {
			e.logger.Error("failed to record failed run", "run_id", run.ID, "error", ferr)
		}
		return nil, err
	}

	for _, tr := range result.Results {
		tasksTotal.WithLabelValues(tr.Status).Inc()
	}
	batchesTotal.WithLabelValues(opts.Backend, model.RunCompleted).Inc()

	// Persistence failures don't discard results: the caller still gets the
	// full map, and the run record is best effort.
	if err := e.store.InsertTaskResults(ctx, run.ID, resultList(result)); err != nil {
		e.logger.Error("failed to persist task results", "run_id", run.ID, "error", err)
	}
	if err := e.store.FinishBatchRun(ctx, run.ID, model.RunCompleted, "", durationMS); err != nil {
		e.logger.Error("failed to record completed run", "run_id", run.ID, "error", err)
	}

	counts := result.CountByStatus()
	e.logger.Info("batch finished",
		"run_id", run.ID,
		"batch_id", b.ID,
		"success", counts[model.StatusSuccess],
		"failed", counts[model.StatusFailed],
		"missing", counts[model.StatusMissing],
		"duration_ms", durationMS,
	)
	return result, nil
}

// resultList flattens a result map into task-id order so the persistence
// transaction is deterministic.
func resultList(r *model.BatchResult) []model.TaskResult {
	ids := make([]int, 0, len(r.Results))
	for id := range r.Results {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	list := make([]model.TaskResult, 0, len(ids))
	for _, id := range ids {
		list = append(list, r.Results[id])
	}
	return list
}

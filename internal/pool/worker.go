package pool

import (
	"context"
	"log/slog"
)

// RunWorker is the worker-rank entry point: load the batch record, take the
// slice of tasks owned by rank, and run them one after another. Individual
// task failures are logged and swallowed — the launching side discovers them
// by polling outputs — so the worker exits cleanly after attempting
// everything. Only a fatal record problem is returned.
func RunWorker(ctx context.Context, recordPath string, rank, worldSize int, logger *slog.Logger) error {
	rec, err := LoadRecord(recordPath)
	if err != nil {
		return err
	}

	b, err := rec.Batch()
	if err != nil {
		return err
	}

	tasks := b.Tasks()
	indices := WorkerSlice(rank, worldSize, len(tasks))

	logger.Info("worker rank starting",
		"batch_id", b.ID,
		"rank", rank,
		"world_size", worldSize,
		"assigned", len(indices),
	)

	for _, i := range indices {
		t := tasks[i]
		if err := runTask(ctx, t); err != nil {
			logger.Warn("assigned task failed",
				"rank", rank,
				"task_id", t.ID(),
				"error", err,
			)
		}
	}

	logger.Info("worker rank finished", "rank", rank, "attempted", len(indices))
	return nil
}

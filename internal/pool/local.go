package pool

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/seantiz/atlas/internal/model"
)

// Local executes a batch with a pool of concurrent workers, each blocking on
// its task's external process, so parallelism is bounded by the worker count
// at the OS-process level. The shared queue rebalances work dynamically; no
// completion order is guaranteed, and task identity survives through the ids
// embedded in each task's own output paths.
type Local struct {
	workers int
	checker CompletionChecker
	logger  *slog.Logger
}

// NewLocal creates a local pool with the given worker count.
func NewLocal(workers int, logger *slog.Logger) *Local {
	return &Local{
		workers: workers,
		checker: FSChecker{},
		logger:  logger,
	}
}

// Run blocks until every task has finished or ctx is cancelled. A failure
// inside one task is caught and recorded as a failed result without
// affecting its siblings. Cancellation stops the queue and kills in-flight
// external processes; tasks that never reached a worker still receive a
// result carrying the cancellation error.
func (p *Local) Run(ctx context.Context, b *model.Batch) (*model.BatchResult, error) {
	tasks := b.Tasks()

	workers := min(p.workers, len(tasks))
	if workers < 1 {
		workers = 1
	}

	queue := make(chan model.Task)
	resultCh := make(chan model.TaskResult, len(tasks))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for t := range queue {
				start := time.Now()
				runErr := runTask(ctx, t)
				res := classify(b.WorkDir, t, runErr, p.checker)
				res.DurationMS = int(time.Since(start).Milliseconds())
				if runErr != nil {
					p.logger.Warn("task failed",
						"batch_id", b.ID,
						"task_id", t.ID(),
						"worker", worker,
						"error", runErr,
					)
				}
				resultCh <- res
			}
		}(w)
	}

feed:
	for _, t := range tasks {
		select {
		case queue <- t:
		case <-ctx.Done():
			break feed
		}
	}
	close(queue)
	wg.Wait()
	close(resultCh)

	result := model.NewBatchResult(b.ID)
	for res := range resultCh {
		result.Add(res)
	}

	// Tasks that never ran (cancellation) are still classified so the caller
	// always gets a full id-to-result map.
	for _, t := range tasks {
		if _, ok := result.Results[t.ID()]; !ok {
			result.Add(classify(b.WorkDir, t, ctx.Err(), p.checker))
		}
	}
	return result, nil
}

// runTask converts a panic inside a task into an error so one bad task
// cannot take down its siblings or the pool.
func runTask(ctx context.Context, t model.Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %d panicked: %v", t.ID(), r)
		}
	}()
	return t.Run(ctx)
}

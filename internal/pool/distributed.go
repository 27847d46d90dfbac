package pool

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/seantiz/atlas/internal/model"
)

// Post-run output polling bounds. Shared filesystems can lag a little behind
// rank termination, so the checker retries before declaring outputs missing.
const (
	defaultPollAttempts = 5
	defaultPollInterval = 2 * time.Second
)

// Distributed executes a batch by serializing it to shared storage and
// launching a fixed number of worker ranks through a cluster launcher. Each
// rank derives its slice of the batch deterministically and never reports
// status over a channel; completion is discovered by polling declared
// outputs after the launcher returns.
type Distributed struct {
	worldSize int
	launcher  Launcher
	checker   CompletionChecker
	logger    *slog.Logger
}

// NewDistributed creates a distributed pool that launches worldSize ranks.
func NewDistributed(worldSize int, l Launcher, logger *slog.Logger) *Distributed {
	return &Distributed{
		worldSize: worldSize,
		launcher:  l,
		checker:   FSChecker{Attempts: defaultPollAttempts, Interval: defaultPollInterval},
		logger:    logger,
	}
}

// Run writes the batch record into the batch working directory, launches the
// ranks, and classifies every task once the launcher reports all ranks
// terminated. One rank's crash affects only that rank's tasks: the others
// proceed with no cross-rank coordination, and the caller always receives a
// full id-to-result map. A missing classification conflates "never started"
// and "started then crashed" — output polling cannot tell them apart.
func (p *Distributed) Run(ctx context.Context, b *model.Batch) (*model.BatchResult, error) {
	rec, err := NewRecord(b)
	if err != nil {
		return nil, err
	}

	recordPath := filepath.Join(b.WorkDir, RecordName)
	if err := rec.Write(recordPath); err != nil {
		return nil, err
	}

	// Ranks beyond the batch length would idle; don't ask the launcher for them.
	world := p.worldSize
	if world > b.Len() {
		world = b.Len()
	}
	if world < 1 {
		world = 1
	}

	if err := p.launcher.Launch(ctx, world, recordPath); err != nil {
		return nil, err
	}

	result := model.NewBatchResult(b.ID)
	for _, t := range b.Tasks() {
		result.Add(classify(b.WorkDir, t, nil, p.checker))
	}

	if missing := result.MissingIDs(); len(missing) > 0 {
		p.logger.Warn("tasks missing declared outputs",
			"batch_id", b.ID,
			"missing_ids", missing,
		)
	}
	return result, nil
}

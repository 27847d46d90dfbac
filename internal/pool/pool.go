// Package pool provides the execution backends for task batches: an
// in-process local worker pool and a distributed pool driven by a cluster
// process launcher. Completion is observed by checking each task's declared
// output files — the lowest common denominator across heterogeneous
// launchers — behind the CompletionChecker abstraction.
package pool

import (
	"context"

	"github.com/seantiz/atlas/internal/model"
)

// Backend name constants for the registry.
const (
	BackendLocal       = "local"
	BackendDistributed = "distributed"
)

// Pool executes a batch and classifies every task. Implementations return an
// error only for fatal setup problems (serialization, launch); per-task
// failures are recorded in the result set and never abort the batch.
type Pool interface {
	Run(ctx context.Context, b *model.Batch) (*model.BatchResult, error)
}

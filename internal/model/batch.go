package model

import (
	"fmt"
	"slices"
)

// Batch is a fixed, ordered collection of tasks submitted together. Its
// length and task order never change after construction.
type Batch struct {
	// ID identifies the batch. It is regenerated for an in-memory batch and
	// preserved when a batch is reconstructed from a serialized record.
	ID string

	// WorkDir is the batch working directory. Task output paths are
	// interpreted relative to it.
	WorkDir string

	tasks []Task
}

// NewBatch validates the task sequence and seals it into a batch. Task ids
// must match their position, and every declared output path must be unique
// across the whole batch: no two tasks may write the same file.
func NewBatch(workDir string, tasks []Task) (*Batch, error) {
	owner := make(map[string]int)
	for i, t := range tasks {
		if t.ID() != i {
			return nil, fmt.Errorf("task at position %d has id %d: ids must be sequential from zero", i, t.ID())
		}
		for _, p := range t.ExpectedOutputs() {
			if prev, ok := owner[p]; ok {
				return nil, fmt.Errorf("output path %q declared by both task %d and task %d", p, prev, t.ID())
			}
			owner[p] = t.ID()
		}
	}

	return &Batch{
		ID:      NewID(),
		WorkDir: workDir,
		tasks:   slices.Clone(tasks),
	}, nil
}

// Tasks returns the ordered task sequence.
func (b *Batch) Tasks() []Task {
	return b.tasks
}

// Len returns the number of tasks in the batch.
func (b *Batch) Len() int {
	return len(b.tasks)
}

package pool

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/seantiz/atlas/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// markerTask is a configurable in-process task for pool tests. By default it
// writes its declared outputs into the batch working directory.
type markerTask struct {
	id      int
	workDir string
	outputs []string
	run     func(ctx context.Context) error
}

func (t *markerTask) ID() int { return t.id }

func (t *markerTask) Run(ctx context.Context) error {
	if t.run != nil {
		return t.run(ctx)
	}
	for _, p := range t.outputs {
		if err := os.WriteFile(filepath.Join(t.workDir, p), []byte("done\n"), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func (t *markerTask) ExpectedOutputs() []string { return t.outputs }

// makeMarkerBatch builds a batch of n marker tasks, each declaring one
// uniquely named output file.
func makeMarkerBatch(t *testing.T, dir string, n int) (*model.Batch, []*markerTask) {
	t.Helper()

	tasks := make([]*markerTask, n)
	modelTasks := make([]model.Task, n)
	for i := 0; i < n; i++ {
		tasks[i] = &markerTask{
			id:      i,
			workDir: dir,
			outputs: []string{fmt.Sprintf("marker_%03d.dat", i)},
		}
		modelTasks[i] = tasks[i]
	}

	b, err := model.NewBatch(dir, modelTasks)
	if err != nil {
		t.Fatalf("NewBatch: %v", err)
	}
	return b, tasks
}

package pool

import (
	"os"
	"path/filepath"
	"time"

	"github.com/seantiz/atlas/internal/model"
)

// CompletionChecker reports which of a task's declared outputs exist. It
// isolates filesystem polling so a transport-based completion signal could
// replace it without touching pool callers.
type CompletionChecker interface {
	// Observe returns the declared output paths found on disk and whether
	// the full expected set is present.
	Observe(workDir string, t model.Task) (found []string, complete bool)
}

// FSChecker observes outputs by stating the filesystem, retrying a bounded
// number of times to ride out shared-storage visibility lag after a
// distributed run.
type FSChecker struct {
	Attempts int           // stat passes per task; values below 1 mean one pass
	Interval time.Duration // delay between passes
}

func (c FSChecker) Observe(workDir string, t model.Task) ([]string, bool) {
	attempts := c.Attempts
	if attempts < 1 {
		attempts = 1
	}

	expected := t.ExpectedOutputs()
	for try := 0; ; try++ {
		var found []string
		for _, p := range expected {
			full := p
			if !filepath.IsAbs(p) {
				full = filepath.Join(workDir, p)
			}
			if _, err := os.Stat(full); err == nil {
				found = append(found, p)
			}
		}
		if len(found) == len(expected) {
			return found, true
		}
		if try+1 >= attempts {
			return found, false
		}
		time.Sleep(c.Interval)
	}
}

// classify converts a task's run outcome and observed outputs into a result.
// A run error wins over output state; otherwise the outputs decide between
// success and missing.
func classify(workDir string, t model.Task, runErr error, c CompletionChecker) model.TaskResult {
	found, complete := c.Observe(workDir, t)
	res := model.TaskResult{TaskID: t.ID(), Outputs: found}
	switch {
	case runErr != nil:
		res.Status = model.StatusFailed
		res.Error = runErr.Error()
	case complete:
		res.Status = model.StatusSuccess
	default:
		res.Status = model.StatusMissing
	}
	return res
}

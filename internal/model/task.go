package model

import "context"

// Task result status constants.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusMissing = "missing"
)

// Task is an independently executable batch unit. Success is observed via
// the declared output files, not the Run return value: a nil error only
// means the external process exited cleanly, and the outputs still decide
// the final classification.
type Task interface {
	// ID returns the task's stable sequential id within its batch.
	ID() int

	// Run executes the task synchronously. An error reports a local
	// execution failure (non-zero exit, timeout); it never aborts the batch.
	Run(ctx context.Context) error

	// ExpectedOutputs returns the task's output paths, relative to the batch
	// working directory. It is pure: usable before execution for planning
	// and after execution for verification.
	ExpectedOutputs() []string
}

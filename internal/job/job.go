// Package job implements the computation job: a single invocation of the
// external structure-computation binary, fed an input script on stdin and
// writing its output to a log file. A job's success is defined by the
// appearance of its declared output files, never by its return value.
package job

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"
)

// killGrace bounds how long Run waits for the stderr pipe to drain after the
// process is killed, so a straggler that escaped the process group cannot
// hold the job open.
const killGrace = 2 * time.Second

// Spec describes one computation job in a serializable form, so a batch can
// be handed to worker ranks through shared storage. Paths are relative to
// the batch working directory unless absolute.
type Spec struct {
	ID       int               `json:"id"`
	Script   string            `json:"script"`
	Log      string            `json:"log"`
	Binary   string            `json:"binary"`
	WorkDir  string            `json:"work_dir,omitempty"`
	Env      map[string]string `json:"env,omitempty"`
	TimeoutS int               `json:"timeout_s,omitempty"`
	Outputs  []string          `json:"outputs"`
}

// ExecError reports a job whose external process exited non-zero, timed out,
// or could not be started. It is local to the task: pools record it as a
// failed result and move on.
type ExecError struct {
	TaskID   int
	ExitCode int
	Err      error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("job %d: computation process failed (exit %d): %v", e.TaskID, e.ExitCode, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

// ComputationJob runs one computation binary invocation.
type ComputationJob struct {
	spec Spec
}

// New creates a computation job from its spec.
func New(spec Spec) *ComputationJob {
	return &ComputationJob{spec: spec}
}

// ID returns the job's stable sequential id within its batch.
func (j *ComputationJob) ID() int { return j.spec.ID }

// Spec returns the job's serializable description.
func (j *ComputationJob) Spec() Spec { return j.spec }

// ExpectedOutputs returns the output paths the job must produce to count as
// successful, relative to the batch working directory.
func (j *ComputationJob) ExpectedOutputs() []string { return j.spec.Outputs }

// Run executes the computation binary with the input script on stdin and the
// log file on stdout, blocking until the process exits. On a non-zero exit
// the process's error output is appended to the log file and an ExecError is
// returned. A per-job timeout, when set, is layered on the caller's context;
// on expiry the process is killed and the job resolves the same way.
func (j *ComputationJob) Run(ctx context.Context) error {
	if j.spec.TimeoutS > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(j.spec.TimeoutS)*time.Second)
		defer cancel()
	}

	script, err := os.Open(j.resolve(j.spec.Script))
	if err != nil {
		return &ExecError{TaskID: j.spec.ID, ExitCode: -1, Err: fmt.Errorf("open input script: %w", err)}
	}
	defer script.Close()

	logFile, err := os.Create(j.resolve(j.spec.Log))
	if err != nil {
		return &ExecError{TaskID: j.spec.ID, ExitCode: -1, Err: fmt.Errorf("create log file: %w", err)}
	}
	defer logFile.Close()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, j.spec.Binary)
	cmd.Dir = j.spec.WorkDir
	cmd.Stdin = script
	cmd.Stdout = logFile
	cmd.Stderr = &stderr

	// Computation binaries fork helpers that inherit the stderr pipe. Kill
	// the whole process group on cancellation so those children die with the
	// parent instead of keeping the pipe open, and cap the post-kill wait so
	// Run returns at the deadline even if something survives the group kill.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		if err == syscall.ESRCH {
			return os.ErrProcessDone
		}
		return err
	}
	cmd.WaitDelay = killGrace

	cmd.Env = os.Environ()
	for k, v := range j.spec.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	if err := cmd.Run(); err != nil {
		// Keep the error output next to the job's log so a failure can be
		// diagnosed from the batch directory alone.
		if stderr.Len() > 0 {
			fmt.Fprintf(logFile, "\n--- process error output ---\n%s", stderr.String())
		}

		exit := -1
		if cmd.ProcessState != nil {
			exit = cmd.ProcessState.ExitCode()
		}
		if ctx.Err() == context.DeadlineExceeded {
			return &ExecError{TaskID: j.spec.ID, ExitCode: exit, Err: fmt.Errorf("timed out after %ds", j.spec.TimeoutS)}
		}
		return &ExecError{TaskID: j.spec.ID, ExitCode: exit, Err: err}
	}

	return nil
}

// resolve anchors a relative path at the job's working directory.
func (j *ComputationJob) resolve(p string) string {
	if filepath.IsAbs(p) || j.spec.WorkDir == "" {
		return p
	}
	return filepath.Join(j.spec.WorkDir, p)
}

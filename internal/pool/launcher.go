package pool

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Launcher starts worldSize worker ranks against a batch record and blocks
// until every rank has terminated.
type Launcher interface {
	Launch(ctx context.Context, worldSize int, recordPath string) error
}

// procCountFlag maps supported launcher programs to their process-count flag.
var procCountFlag = map[string]string{
	"mpirun":  "-np",
	"mpiexec": "-n",
	"srun":    "-n",
}

// CommandLauncher launches ranks through a cluster process launcher, as
// `<program> <flag> <N> <worker> <record>`. Each rank receives its index and
// the world size from the launcher's environment — no other shared runtime
// state crosses the process boundary.
type CommandLauncher struct {
	Program string // launcher binary, e.g. "mpirun" or "srun"
	Worker  string // worker binary, e.g. "atlas-worker"
	Logger  *slog.Logger
}

// Launch runs the launcher and waits for all ranks to terminate. Failing to
// start the launcher is fatal and reported as a LaunchError. A non-zero exit
// after a successful start is not: a rank that died mid-batch surfaces that
// way, and its tasks are discovered as missing by output polling.
func (l *CommandLauncher) Launch(ctx context.Context, worldSize int, recordPath string) error {
	flag, ok := procCountFlag[filepath.Base(l.Program)]
	if !ok {
		return &LaunchError{
			Launcher:  l.Program,
			WorldSize: worldSize,
			Err:       fmt.Errorf("unsupported launcher program %q", l.Program),
		}
	}

	cmd := exec.CommandContext(ctx, l.Program, flag, strconv.Itoa(worldSize), l.Worker, recordPath)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	l.Logger.Info("launching worker ranks",
		"launcher", l.Program,
		"world_size", worldSize,
		"record", recordPath,
	)

	if err := cmd.Start(); err != nil {
		return &LaunchError{Launcher: l.Program, WorldSize: worldSize, Err: err}
	}

	if err := cmd.Wait(); err != nil {
		l.Logger.Warn("launcher exited non-zero",
			"launcher", l.Program,
			"error", err,
			"output", strings.TrimSpace(output.String()),
		)
	}
	return nil
}

// The atlas-worker binary is one rank of a distributed batch run. The
// cluster launcher starts it as `atlas-worker <batch-record>`; it reads its
// rank and world size from the launcher's environment, attempts every task
// in its deterministic slice, and exits 0 regardless of individual task
// outcomes — the launching process discovers failures by polling declared
// outputs. Only an unreadable batch record is a fatal exit.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/seantiz/atlas/internal/config"
	"github.com/seantiz/atlas/internal/pool"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: atlas-worker <batch-record>")
		os.Exit(1)
	}

	cfg := config.Load()
	logger := config.NewLogger(os.Stderr, cfg.LogLevel)

	rank, worldSize, err := pool.RankFromEnv()
	if err != nil {
		logger.Error("rank discovery failed", "error", err)
		os.Exit(1)
	}

	if err := pool.RunWorker(context.Background(), os.Args[1], rank, worldSize, logger); err != nil {
		logger.Error("worker failed", "rank", rank, "error", err)
		os.Exit(1)
	}
}

// The atlas binary drives the parallel job-execution engine: `atlas run`
// executes a batch described by a YAML manifest, `atlas serve` exposes the
// read-only status API over persisted runs.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "atlas",
	Short: "Parallel job-execution engine for structure-computation batches",
	Long: `atlas executes batches of independent computation jobs across local
worker processes or a distributed pool launched under a cluster launcher,
and reports per-task success or failure without aborting on partial failure.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "atlas:", err)
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/seantiz/atlas/internal/batch"
	"github.com/seantiz/atlas/internal/config"
	"github.com/seantiz/atlas/internal/engine"
	"github.com/seantiz/atlas/internal/model"
	"github.com/seantiz/atlas/internal/pool"
	"github.com/seantiz/atlas/internal/store"
)

var (
	runBackend string
	runWorkers int
)

var runCmd = &cobra.Command{
	Use:   "run <manifest>",
	Short: "Execute a batch described by a YAML manifest",
	Long: `Execute a batch described by a YAML manifest.

Exit codes:
  0  every task succeeded
  1  fatal setup, serialization, or launch error
  2  batch completed with failed or missing tasks`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	runCmd.Flags().StringVar(&runBackend, "backend", "", "override manifest backend (local or distributed)")
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "override manifest worker count")
	rootCmd.AddCommand(runCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	logger := config.NewLogger(os.Stderr, cfg.LogLevel)

	m, err := config.LoadManifest(args[0])
	if err != nil {
		return err
	}
	if runBackend != "" {
		m.Backend = runBackend
	}
	if runWorkers > 0 {
		m.Workers = runWorkers
	}

	templates := make([]batch.Template, 0, len(m.Templates))
	for _, t := range m.Templates {
		templates = append(templates, batch.Template{Kind: t.Kind, Suffixes: t.Suffixes})
	}

	items := make([]batch.Item, 0, len(m.Items))
	for _, it := range m.Items {
		items = append(items, batch.Item{
			Name:   it.Name,
			Kind:   it.Kind,
			Script: it.Script,
			Env:    it.Env,
		})
	}

	distributor := batch.NewDistributor(m.WorkDir, m.Binary, batch.NewTemplateSet(templates...), m.TimeoutS)
	b, err := distributor.Distribute(items)
	if err != nil {
		return err
	}

	db, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	registry := pool.NewRegistry()
	registry.Register(pool.BackendLocal, func(workers int) pool.Pool {
		return pool.NewLocal(workers, logger)
	})
	registry.Register(pool.BackendDistributed, func(workers int) pool.Pool {
		launcher := &pool.CommandLauncher{
			Program: cfg.Launcher,
			Worker:  cfg.WorkerBin,
			Logger:  logger,
		}
		return pool.NewDistributed(workers, launcher, logger)
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eng := engine.New(db, registry, logger)
	result, err := eng.RunBatch(ctx, b, engine.RunOptions{
		Backend: m.Backend,
		Workers: m.Workers,
	})
	if err != nil {
		return err
	}

	counts := result.CountByStatus()
	fmt.Printf("batch %s: %d success, %d failed, %d missing\n",
		result.BatchID,
		counts[model.StatusSuccess],
		counts[model.StatusFailed],
		counts[model.StatusMissing],
	)
	if missing := result.MissingIDs(); len(missing) > 0 {
		fmt.Printf("missing outputs for tasks: %v\n", missing)
	}
	if failed := result.FailedIDs(); len(failed) > 0 {
		fmt.Printf("failed tasks: %v\n", failed)
	}

	if counts[model.StatusFailed]+counts[model.StatusMissing] > 0 {
		os.Exit(2)
	}
	return nil
}

// Package main implements the standalone worker binary. It runs a single
// claim/process/commit loop against the shared database; any number of
// worker processes may run concurrently, with mutual exclusion carried by
// the claim query's row locking.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/trellisdata/trellis/internal/config"
	"github.com/trellisdata/trellis/internal/platform/gemini"
	"github.com/trellisdata/trellis/internal/platform/logger"
	"github.com/trellisdata/trellis/internal/platform/postgres"
	"github.com/trellisdata/trellis/internal/store"
	"github.com/trellisdata/trellis/internal/worker"
)

func main() {
	maxItems := flag.Int("max-items", 0,
		"process at most N instances, then exit (0 = run until interrupted)")
	regionID := flag.Int64("region", 0,
		"only claim instances for this region ID (0 = all regions)")
	idleSleep := flag.Duration("idle-sleep", 0,
		"sleep between claim attempts when the queue is empty (0 = use config)")
	flag.Parse()

	if err := run(*maxItems, *regionID, *idleSleep); err != nil {
		log.Fatalf("worker failed: %v", err)
	}
}

func run(maxItems int, regionID int64, idleSleep time.Duration) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}
	defer func() { _ = db.Close() }()

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Minute)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	generator, err := gemini.NewGenerator(
		ctx,
		appLogger.With("component", "generator"),
		cfg.LLM,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize generator: %w", err)
	}

	w, err := worker.New(worker.Deps{
		TxRunner:  store.NewDBRunner(db),
		Instances: postgres.NewInstanceStore(db),
		Progress:  postgres.NewProgressStore(db),
		Results:   postgres.NewResultStore(db),
		ErrorLog:  postgres.NewErrorLogStore(db),
		Catalog:   postgres.NewCatalogStore(db),
		Entities:  postgres.NewEntityStore(db),
		Generator: generator,
		Retry: worker.RetryPolicy{
			MaxRetries: cfg.LLM.MaxRetries,
			BaseDelay:  time.Duration(cfg.LLM.RetryBaseSeconds) * time.Second,
		},
		Logger: appLogger.With("component", "worker"),
	})
	if err != nil {
		return fmt.Errorf("failed to create worker: %w", err)
	}

	opts := worker.Options{
		MaxItems:  maxItems,
		IdleSleep: time.Duration(cfg.Worker.IdleSleepMS) * time.Millisecond,
		Throttle:  time.Duration(cfg.Worker.ThrottleMS) * time.Millisecond,
	}
	if idleSleep > 0 {
		opts.IdleSleep = idleSleep
	}
	if regionID > 0 {
		opts.RegionID = &regionID
	}

	appLogger.Info("worker starting",
		"max_items", maxItems,
		"region_id", regionID)

	stats, err := w.Run(ctx, opts)
	appLogger.Info("worker finished",
		"claimed", stats.Claimed,
		"done", stats.Done,
		"failed", stats.Failed,
		"stranded", stats.Stranded)
	fmt.Fprintf(os.Stdout, "claimed=%d done=%d failed=%d stranded=%d\n",
		stats.Claimed, stats.Done, stats.Failed, stats.Stranded)

	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

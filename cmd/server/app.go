package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/trellisdata/trellis/internal/config"
	"github.com/trellisdata/trellis/internal/platform/gemini"
	"github.com/trellisdata/trellis/internal/platform/postgres"
	"github.com/trellisdata/trellis/internal/service/auth"
	"github.com/trellisdata/trellis/internal/store"
	"github.com/trellisdata/trellis/internal/worker"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores (interfaces, so handlers and workers stay testable)
	txRunner  store.TxRunner
	instances store.InstanceStore
	progress  store.ProgressStore
	results   store.ResultStore
	errorLog  store.ErrorLogStore
	catalog   store.CatalogStore
	entities  store.EntityStore

	// Services
	jwtService auth.JWTService
	generator  *gemini.Generator

	// Background worker loops
	worker       *worker.Worker
	loopCancel   context.CancelFunc
	loopWG       sync.WaitGroup
	loopsStarted bool
}

// newApplication creates an application instance with all dependencies
// initialized. It accepts core dependencies that must be established before
// application initialization.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.txRunner = store.NewDBRunner(db)
	app.instances = postgres.NewInstanceStore(db)
	app.progress = postgres.NewProgressStore(db)
	app.results = postgres.NewResultStore(db)
	app.errorLog = postgres.NewErrorLogStore(db)
	app.catalog = postgres.NewCatalogStore(db)
	app.entities = postgres.NewEntityStore(db)

	app.generator, err = gemini.NewGenerator(
		ctx,
		logger.With("component", "generator"),
		cfg.LLM,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize generator: %w", err)
	}
	logger.Info("Generation client initialized", "model", cfg.LLM.ModelName)

	app.worker, err = worker.New(worker.Deps{
		TxRunner:  app.txRunner,
		Instances: app.instances,
		Progress:  app.progress,
		Results:   app.results,
		ErrorLog:  app.errorLog,
		Catalog:   app.catalog,
		Entities:  app.entities,
		Generator: app.generator,
		Retry: worker.RetryPolicy{
			MaxRetries: cfg.LLM.MaxRetries,
			BaseDelay:  time.Duration(cfg.LLM.RetryBaseSeconds) * time.Second,
		},
		Logger: logger.With("component", "worker"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create worker: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the background worker loops and the HTTP server, handling
// lifecycle and cleanup.
func (app *application) Run(ctx context.Context) error {
	app.startWorkerLoops(ctx)

	router := app.setupRouter()
	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// startWorkerLoops launches the configured number of unbounded worker
// loops. Each loop is sequential; mutual exclusion between loops (and
// between separate processes) is carried entirely by the claim query.
func (app *application) startWorkerLoops(ctx context.Context) {
	if app.config.Worker.Count <= 0 {
		app.logger.Info("Worker loops disabled", "count", app.config.Worker.Count)
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	app.loopCancel = cancel
	app.loopsStarted = true

	opts := worker.Options{
		IdleSleep: time.Duration(app.config.Worker.IdleSleepMS) * time.Millisecond,
		Throttle:  time.Duration(app.config.Worker.ThrottleMS) * time.Millisecond,
	}

	for i := 0; i < app.config.Worker.Count; i++ {
		app.loopWG.Add(1)
		loopLogger := app.logger.With("loop", i)
		go func() {
			defer app.loopWG.Done()
			stats, err := app.worker.Run(loopCtx, opts)
			if err != nil && loopCtx.Err() == nil {
				loopLogger.Error("worker loop exited with error", "error", err)
			}
			loopLogger.Info("worker loop stopped",
				"claimed", stats.Claimed,
				"done", stats.Done,
				"failed", stats.Failed,
				"stranded", stats.Stranded)
		}()
	}

	app.logger.Info("Worker loops started", "count", app.config.Worker.Count)
}

// cleanup handles graceful shutdown of application resources. Worker loops
// are cancelled first; any in-flight instance finishes its commit because
// ledger writes run on a context detached from loop cancellation.
func (app *application) cleanup() {
	if app.loopsStarted {
		app.loopCancel()
		app.loopWG.Wait()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}

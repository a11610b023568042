package worker

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/trellisdata/trellis/internal/domain"
	"github.com/trellisdata/trellis/internal/generation"
	"github.com/trellisdata/trellis/internal/platform/logger"
	"github.com/trellisdata/trellis/internal/store"
)

// Dependency validation errors
var (
	ErrNilTxRunner      = errors.New("tx runner cannot be nil")
	ErrNilInstanceStore = errors.New("instance store cannot be nil")
	ErrNilProgressStore = errors.New("progress store cannot be nil")
	ErrNilResultStore   = errors.New("result store cannot be nil")
	ErrNilErrorLogStore = errors.New("error log store cannot be nil")
	ErrNilCatalogStore  = errors.New("catalog store cannot be nil")
	ErrNilEntityStore   = errors.New("entity store cannot be nil")
	ErrNilGenerator     = errors.New("generator cannot be nil")
	ErrNilLogger        = errors.New("logger cannot be nil")
)

// Deps bundles everything a Worker needs. All resources are injected;
// the worker owns none of their lifecycles.
type Deps struct {
	TxRunner  store.TxRunner
	Instances store.InstanceStore
	Progress  store.ProgressStore
	Results   store.ResultStore
	ErrorLog  store.ErrorLogStore
	Catalog   store.CatalogStore
	Entities  store.EntityStore
	Generator generation.Generator
	Retry     RetryPolicy
	Logger    *slog.Logger
}

// Options controls one Run invocation.
type Options struct {
	// MaxItems bounds the run to N claimed instances. Zero means unbounded.
	// Bounded runs also exit when the queue drains, so an administrative
	// "process up to N" call always terminates.
	MaxItems int

	// RegionID narrows claims to one region. Nil means all regions.
	RegionID *int64

	// IdleSleep is how long an unbounded run sleeps when no work is pending.
	IdleSleep time.Duration

	// Throttle adds a pause after each completed instance. A cost control
	// against the generation service, not a correctness mechanism.
	Throttle time.Duration
}

// Stats accumulates the outcome of one Run.
type Stats struct {
	Claimed int `json:"claimed"`
	Done    int `json:"done"`
	Failed  int `json:"failed"`

	// Stranded counts instances whose terminal commit itself failed. They
	// remain running in the ledger and need an administrative reset; they
	// are not task failures.
	Stranded int `json:"stranded"`
}

// outcome is one instance's disposition after processing.
type outcome int

const (
	outcomeDone outcome = iota
	outcomeFailed
	outcomeStranded
)

// Worker runs the sequential claim/process/commit loop.
type Worker struct {
	txRunner  store.TxRunner
	instances store.InstanceStore
	progress  store.ProgressStore
	results   store.ResultStore
	errorLog  store.ErrorLogStore
	catalog   store.CatalogStore
	entities  store.EntityStore
	generator generation.Generator
	retry     RetryPolicy
	logger    *slog.Logger
}

// New creates a Worker, validating its dependencies.
func New(deps Deps) (*Worker, error) {
	switch {
	case deps.TxRunner == nil:
		return nil, ErrNilTxRunner
	case deps.Instances == nil:
		return nil, ErrNilInstanceStore
	case deps.Progress == nil:
		return nil, ErrNilProgressStore
	case deps.Results == nil:
		return nil, ErrNilResultStore
	case deps.ErrorLog == nil:
		return nil, ErrNilErrorLogStore
	case deps.Catalog == nil:
		return nil, ErrNilCatalogStore
	case deps.Entities == nil:
		return nil, ErrNilEntityStore
	case deps.Generator == nil:
		return nil, ErrNilGenerator
	case deps.Logger == nil:
		return nil, ErrNilLogger
	}

	return &Worker{
		txRunner:  deps.TxRunner,
		instances: deps.Instances,
		progress:  deps.Progress,
		results:   deps.Results,
		errorLog:  deps.ErrorLog,
		catalog:   deps.Catalog,
		entities:  deps.Entities,
		generator: deps.Generator,
		retry:     deps.Retry,
		logger:    deps.Logger,
	}, nil
}

// Run executes the loop until the budget is exhausted, the queue drains (for
// bounded runs), or ctx is cancelled. A cancellation takes effect between
// instances: the in-flight instance is always finished and committed, never
// abandoned mid-call. Failures of individual instances are committed and
// counted, never re-raised.
func (w *Worker) Run(ctx context.Context, opts Options) (Stats, error) {
	if opts.IdleSleep <= 0 {
		opts.IdleSleep = 5 * time.Second
	}
	filter := store.ClaimFilter{RegionID: opts.RegionID}

	var stats Stats
	for {
		if ctx.Err() != nil {
			w.logger.InfoContext(ctx, "worker stopping on shutdown signal",
				"claimed", stats.Claimed, "done", stats.Done,
				"failed", stats.Failed, "stranded", stats.Stranded)
			return stats, nil
		}
		if opts.MaxItems > 0 && stats.Claimed >= opts.MaxItems {
			return stats, nil
		}

		inst, err := w.claim(ctx, filter)
		if err != nil {
			if errors.Is(err, store.ErrNoPendingWork) {
				if opts.MaxItems > 0 {
					// Bounded runs exit on drain instead of waiting for work.
					return stats, nil
				}
				if !w.sleep(ctx, opts.IdleSleep) {
					return stats, nil
				}
				continue
			}
			if ctx.Err() != nil {
				return stats, nil
			}
			w.logger.ErrorContext(ctx, "claim failed", "error", err)
			if !w.sleep(ctx, opts.IdleSleep) {
				return stats, nil
			}
			continue
		}

		stats.Claimed++
		switch w.process(ctx, inst) {
		case outcomeDone:
			stats.Done++
		case outcomeFailed:
			stats.Failed++
		case outcomeStranded:
			stats.Stranded++
		}

		if opts.Throttle > 0 && !w.sleep(ctx, opts.Throttle) {
			return stats, nil
		}
	}
}

// claim atomically takes ownership of one pending instance and mirrors the
// pending -> running transition to the progress ledger in the same commit.
func (w *Worker) claim(ctx context.Context, filter store.ClaimFilter) (*domain.TaskInstance, error) {
	var claimed *domain.TaskInstance
	err := w.txRunner.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		inst, err := w.instances.WithTx(tx).ClaimNext(ctx, filter)
		if err != nil {
			return err
		}
		if err := w.progress.WithTx(tx).SetStatus(ctx, inst.Key, domain.InstanceStatusRunning, ""); err != nil {
			return err
		}
		claimed = inst
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// process handles one claimed instance end to end. The whole of it runs on
// a context that survives shutdown cancellation: a claimed instance is
// always finished and committed, never abandoned mid-call. The generation
// call stays bounded by its own request timeout, so the detachment cannot
// hang shutdown indefinitely.
func (w *Worker) process(ctx context.Context, inst *domain.TaskInstance) outcome {
	log := w.logger.With(
		"instance_id", inst.ID,
		"key", inst.Key.String(),
	)
	ctx = logger.WithLogger(context.WithoutCancel(ctx), log)

	def, err := w.catalog.GetDefinition(ctx, inst.Key.TaskID)
	if err != nil {
		return w.fail(ctx, log, inst, fmt.Errorf("definition lookup: %w", err))
	}
	occ, err := w.entities.GetOccupation(ctx, inst.Key.OccupationID)
	if err != nil {
		return w.fail(ctx, log, inst, fmt.Errorf("occupation lookup: %w", err))
	}
	region, err := w.entities.GetRegion(ctx, inst.Key.RegionID)
	if err != nil {
		return w.fail(ctx, log, inst, fmt.Errorf("region lookup: %w", err))
	}

	prompt := RenderTemplate(def.InputTemplate, TemplateValues(occ, region))

	completion, err := RunWithRetry(ctx, log, w.retry,
		func(ctx context.Context) (*generation.Completion, error) {
			return w.generator.Complete(ctx, prompt, def.RunPolicy)
		})
	if err != nil {
		return w.fail(ctx, log, inst, err)
	}

	// Validation failures are terminal: retrying an identical prompt is
	// unlikely to change a structural defect.
	doc, err := generation.ValidatePayload(completion.Payload, def.OutputFields)
	if err != nil {
		return w.fail(ctx, log, inst, err)
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return w.fail(ctx, log, inst, fmt.Errorf("%w: re-encode payload: %v",
			generation.ErrInvalidPayload, err))
	}

	if err := w.commitSuccess(ctx, inst, payload); err != nil {
		// Persistence failure: the transaction rolled back, nothing was
		// applied and the instance stays running until an administrative
		// reset. Do not report it done or failed.
		log.ErrorContext(ctx, "success commit failed, instance left running",
			"error", err)
		return outcomeStranded
	}

	log.InfoContext(ctx, "instance done", "attempts", inst.Attempts)
	return outcomeDone
}

// fail commits the terminal failure state.
func (w *Worker) fail(
	ctx context.Context,
	log *slog.Logger,
	inst *domain.TaskInstance,
	cause error,
) outcome {
	if err := w.commitFailure(ctx, inst, cause); err != nil {
		log.ErrorContext(ctx, "failure commit failed, instance left running",
			"cause", cause, "error", err)
		return outcomeStranded
	}
	log.WarnContext(ctx, "instance failed", "error", cause)
	return outcomeFailed
}

// sleep waits for d or until ctx is cancelled; it reports false on
// cancellation.
func (w *Worker) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}

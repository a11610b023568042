package store

import (
	"context"
	"database/sql"

	"github.com/trellisdata/trellis/internal/domain"
)

// ClaimFilter optionally narrows queue operations to one region.
// A nil RegionID means all regions.
type ClaimFilter struct {
	RegionID *int64
}

// StatusCounts aggregates instance counts per status.
type StatusCounts map[domain.InstanceStatus]int64

// InstanceStore defines the interface for the work ledger.
// Version: 1.0
type InstanceStore interface {
	// ClaimNext atomically claims one pending instance: it selects the
	// highest-priority (then oldest-enqueued) pending row not locked by a
	// concurrent claimant and transitions it to running in the same
	// operation. Returns ErrNoPendingWork when nothing is claimable.
	// Callers must not busy-loop on an empty result without backoff.
	ClaimNext(ctx context.Context, filter ClaimFilter) (*domain.TaskInstance, error)

	// MarkDone transitions a running instance to done and clears last_error.
	// Returns ErrUpdateFailed if the row does not exist.
	MarkDone(ctx context.Context, id int64) error

	// MarkFailed transitions a running instance to failed, records the
	// (already truncated) error summary and increments the attempts counter.
	MarkFailed(ctx context.Context, id int64, lastError string) error

	// GetByKey fetches the instance for one key triple.
	// Returns ErrInstanceNotFound if no such instance exists.
	GetByKey(ctx context.Context, key domain.InstanceKey) (*domain.TaskInstance, error)

	// CountByStatus aggregates instance counts per status, optionally
	// filtered by region.
	CountByStatus(ctx context.Context, filter ClaimFilter) (StatusCounts, error)

	// ResetToPending is the administrative recovery operation: it moves
	// instances in the given statuses back to pending and returns the number
	// of rows affected. The engine never calls this on the hot path.
	ResetToPending(ctx context.Context, statuses []domain.InstanceStatus, filter ClaimFilter) (int64, error)

	// SeedForDefinition creates a pending instance (and its paired progress
	// row) for every occupation x region pair that does not yet have one for
	// the given task definition. Existing rows are left untouched. Returns
	// the number of instances created.
	SeedForDefinition(ctx context.Context, taskID string, priority int) (int64, error)

	// WithTx returns a new InstanceStore instance that uses the provided transaction.
	// This allows for multiple operations to be executed within a single transaction.
	// The transaction should be created and managed by the caller.
	WithTx(tx *sql.Tx) InstanceStore
}

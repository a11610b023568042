package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/trellisdata/trellis/internal/domain"
)

// ProgressStore defines the interface for the read-optimized progress
// ledger. Every status transition on a task instance must be paired, in the
// same commit, with the corresponding progress update; callers compose the
// two stores through WithTx.
// Version: 1.0
type ProgressStore interface {
	// SetStatus upserts the progress row for one key. An empty lastError
	// clears the stored summary.
	SetStatus(ctx context.Context, key domain.InstanceKey, status domain.InstanceStatus, lastError string) error

	// CountByStatus aggregates progress rows per status, optionally filtered
	// by region. This is the read path used for reporting; it never contends
	// with the write-heavy work ledger.
	CountByStatus(ctx context.Context, filter ClaimFilter) (StatusCounts, error)

	// ResetToPending mirrors the administrative instance reset on the
	// progress ledger. Must run in the same transaction as the instance
	// reset.
	ResetToPending(ctx context.Context, statuses []domain.InstanceStatus, filter ClaimFilter) (int64, error)

	// WithTx returns a new ProgressStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ProgressStore
}

// ResultStore defines the interface for the results store: at most one
// validated payload per instance key, upsert-only.
// Version: 1.0
type ResultStore interface {
	// Upsert inserts or overwrites the payload for one key.
	Upsert(ctx context.Context, key domain.InstanceKey, payload json.RawMessage) error

	// GetByKey fetches the current payload for one key.
	// Returns ErrResultNotFound if no result exists.
	GetByKey(ctx context.Context, key domain.InstanceKey) (*domain.ResultPayload, error)

	// WithTx returns a new ResultStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ResultStore
}

// ErrorLogStore defines the interface for the append-only audit log of
// failed attempts. The engine only ever writes here; reads are for
// reporting and debugging.
// Version: 1.0
type ErrorLogStore interface {
	// Append records one failed attempt. Entries are never unique-constrained:
	// a key may accumulate many entries across resets and eventual success.
	Append(ctx context.Context, key domain.InstanceKey, message string, occurredAt time.Time) error

	// ListRecent returns the most recent entries, newest first.
	ListRecent(ctx context.Context, limit int) ([]domain.ErrorEntry, error)

	// WithTx returns a new ErrorLogStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ErrorLogStore
}

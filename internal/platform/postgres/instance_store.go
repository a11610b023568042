package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/trellisdata/trellis/internal/domain"
	"github.com/trellisdata/trellis/internal/platform/logger"
	"github.com/trellisdata/trellis/internal/store"
)

// InstanceStore implements the store.InstanceStore interface using PostgreSQL.
type InstanceStore struct {
	db store.DBTX
}

// NewInstanceStore creates a new PostgreSQL work ledger store.
// It accepts a database connection or transaction managed by the caller.
func NewInstanceStore(db store.DBTX) *InstanceStore {
	if db == nil {
		panic("db cannot be nil")
	}
	return &InstanceStore{db: db}
}

// Ensure InstanceStore implements store.InstanceStore interface
var _ store.InstanceStore = (*InstanceStore)(nil)

// WithTx returns a copy of the store bound to the given transaction.
func (s *InstanceStore) WithTx(tx *sql.Tx) store.InstanceStore {
	return &InstanceStore{db: tx}
}

// instanceColumns is the scan list shared by every query returning a full row.
const instanceColumns = `id, occupation_id, region_id, task_id, status, attempts, priority, last_error, updated_at`

// ClaimNext implements store.InstanceStore.ClaimNext.
//
// The subquery locks one pending row with FOR UPDATE SKIP LOCKED: rows
// already locked by another in-flight claimant are skipped rather than
// waited on, so no two concurrent callers can observe the same row. Higher
// priority wins; within a band, the lowest id (oldest enqueued) wins.
func (s *InstanceStore) ClaimNext(
	ctx context.Context,
	filter store.ClaimFilter,
) (*domain.TaskInstance, error) {
	query := `
		UPDATE task_instances
		SET status = 'running', updated_at = now()
		WHERE id = (
			SELECT id
			FROM task_instances
			WHERE status = 'pending'
			  AND ($1::bigint IS NULL OR region_id = $1)
			ORDER BY priority DESC, id ASC
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING ` + instanceColumns

	inst, err := scanInstance(s.db.QueryRowContext(ctx, query, filter.RegionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNoPendingWork
		}
		return nil, mapError(err, "claim next instance")
	}
	return inst, nil
}

// MarkDone implements store.InstanceStore.MarkDone.
func (s *InstanceStore) MarkDone(ctx context.Context, id int64) error {
	query := `
		UPDATE task_instances
		SET status = 'done', last_error = NULL, updated_at = now()
		WHERE id = $1
	`
	return s.execExpectingRow(ctx, query, "mark instance done", id)
}

// MarkFailed implements store.InstanceStore.MarkFailed. Attempts counts
// terminal failures only; absorbed retries never reach this method.
func (s *InstanceStore) MarkFailed(ctx context.Context, id int64, lastError string) error {
	query := `
		UPDATE task_instances
		SET status = 'failed', last_error = $2, attempts = attempts + 1, updated_at = now()
		WHERE id = $1
	`
	return s.execExpectingRow(ctx, query, "mark instance failed", id, lastError)
}

// GetByKey implements store.InstanceStore.GetByKey.
func (s *InstanceStore) GetByKey(
	ctx context.Context,
	key domain.InstanceKey,
) (*domain.TaskInstance, error) {
	query := `
		SELECT ` + instanceColumns + `
		FROM task_instances
		WHERE occupation_id = $1 AND region_id = $2 AND task_id = $3
	`
	inst, err := scanInstance(
		s.db.QueryRowContext(ctx, query, key.OccupationID, key.RegionID, key.TaskID),
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrInstanceNotFound
		}
		return nil, mapError(err, "get instance by key")
	}
	return inst, nil
}

// CountByStatus implements store.InstanceStore.CountByStatus.
func (s *InstanceStore) CountByStatus(
	ctx context.Context,
	filter store.ClaimFilter,
) (store.StatusCounts, error) {
	query := `
		SELECT status, count(*)
		FROM task_instances
		WHERE ($1::bigint IS NULL OR region_id = $1)
		GROUP BY status
	`
	rows, err := s.db.QueryContext(ctx, query, filter.RegionID)
	if err != nil {
		return nil, mapError(err, "count instances by status")
	}
	defer func() { _ = rows.Close() }()

	counts := make(store.StatusCounts)
	for rows.Next() {
		var raw string
		var n int64
		if err := rows.Scan(&raw, &n); err != nil {
			return nil, mapError(err, "scan instance count row")
		}
		status, err := domain.ParseInstanceStatus(raw)
		if err != nil {
			return nil, fmt.Errorf("count instances by status: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "iterate instance count rows")
	}
	return counts, nil
}

// ResetToPending implements store.InstanceStore.ResetToPending.
func (s *InstanceStore) ResetToPending(
	ctx context.Context,
	statuses []domain.InstanceStatus,
	filter store.ClaimFilter,
) (int64, error) {
	if len(statuses) == 0 {
		return 0, nil
	}
	raw := make([]string, len(statuses))
	for i, st := range statuses {
		if !st.IsValid() {
			return 0, fmt.Errorf("reset instances: %w: %q", domain.ErrInvalidInstanceStatus, st)
		}
		raw[i] = string(st)
	}

	query := `
		UPDATE task_instances
		SET status = 'pending', updated_at = now()
		WHERE status = ANY($1)
		  AND ($2::bigint IS NULL OR region_id = $2)
	`
	result, err := s.db.ExecContext(ctx, query, raw, filter.RegionID)
	if err != nil {
		return 0, mapError(err, "reset instances to pending")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, mapError(err, "reset instances rows affected")
	}

	logger.FromContext(ctx).Info("reset instances to pending",
		"statuses", raw,
		"count", affected)
	return affected, nil
}

// SeedForDefinition implements store.InstanceStore.SeedForDefinition. One
// statement creates the missing work ledger rows and their paired progress
// rows, so seeding honors the same pairing invariant as status transitions.
func (s *InstanceStore) SeedForDefinition(
	ctx context.Context,
	taskID string,
	priority int,
) (int64, error) {
	query := `
		WITH created AS (
			INSERT INTO task_instances (occupation_id, region_id, task_id, status, priority)
			SELECT o.id, r.id, $1, 'pending', $2
			FROM occupations o
			CROSS JOIN regions r
			ON CONFLICT (occupation_id, region_id, task_id) DO NOTHING
			RETURNING occupation_id, region_id, task_id
		)
		INSERT INTO progress_records (occupation_id, region_id, task_id, status)
		SELECT occupation_id, region_id, task_id, 'pending'
		FROM created
		ON CONFLICT (occupation_id, region_id, task_id)
		DO UPDATE SET status = 'pending', last_error = NULL, updated_at = now()
	`
	result, err := s.db.ExecContext(ctx, query, taskID, priority)
	if err != nil {
		return 0, mapError(err, "seed instances for definition")
	}
	created, err := result.RowsAffected()
	if err != nil {
		return 0, mapError(err, "seed instances rows affected")
	}

	logger.FromContext(ctx).Info("seeded task instances",
		"task_id", taskID,
		"created", created)
	return created, nil
}

// execExpectingRow runs an UPDATE that must affect exactly one row.
func (s *InstanceStore) execExpectingRow(
	ctx context.Context,
	query, operation string,
	args ...any,
) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(err, operation)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return mapError(err, operation)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", operation, store.ErrUpdateFailed)
	}
	return nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanInstance reads one full task instance row.
func scanInstance(row rowScanner) (*domain.TaskInstance, error) {
	var inst domain.TaskInstance
	var rawStatus string
	var lastError sql.NullString

	err := row.Scan(
		&inst.ID,
		&inst.Key.OccupationID,
		&inst.Key.RegionID,
		&inst.Key.TaskID,
		&rawStatus,
		&inst.Attempts,
		&inst.Priority,
		&lastError,
		&inst.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	status, err := domain.ParseInstanceStatus(rawStatus)
	if err != nil {
		return nil, err
	}
	inst.Status = status
	inst.LastError = lastError.String
	return &inst, nil
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/trellisdata/trellis/internal/domain"
	"github.com/trellisdata/trellis/internal/store"
)

// ProgressStore implements the store.ProgressStore interface using PostgreSQL.
type ProgressStore struct {
	db store.DBTX
}

// NewProgressStore creates a new PostgreSQL progress ledger store.
func NewProgressStore(db store.DBTX) *ProgressStore {
	if db == nil {
		panic("db cannot be nil")
	}
	return &ProgressStore{db: db}
}

// Ensure ProgressStore implements store.ProgressStore interface
var _ store.ProgressStore = (*ProgressStore)(nil)

// WithTx returns a copy of the store bound to the given transaction.
func (s *ProgressStore) WithTx(tx *sql.Tx) store.ProgressStore {
	return &ProgressStore{db: tx}
}

// SetStatus implements store.ProgressStore.SetStatus.
func (s *ProgressStore) SetStatus(
	ctx context.Context,
	key domain.InstanceKey,
	status domain.InstanceStatus,
	lastError string,
) error {
	if !status.IsValid() {
		return fmt.Errorf("set progress status: %w: %q", domain.ErrInvalidInstanceStatus, status)
	}

	query := `
		INSERT INTO progress_records (occupation_id, region_id, task_id, status, last_error, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), now())
		ON CONFLICT (occupation_id, region_id, task_id)
		DO UPDATE SET status = EXCLUDED.status,
		              last_error = EXCLUDED.last_error,
		              updated_at = now()
	`
	_, err := s.db.ExecContext(ctx, query,
		key.OccupationID, key.RegionID, key.TaskID, string(status), lastError)
	if err != nil {
		return mapError(err, "set progress status")
	}
	return nil
}

// CountByStatus implements store.ProgressStore.CountByStatus.
func (s *ProgressStore) CountByStatus(
	ctx context.Context,
	filter store.ClaimFilter,
) (store.StatusCounts, error) {
	query := `
		SELECT status, count(*)
		FROM progress_records
		WHERE ($1::bigint IS NULL OR region_id = $1)
		GROUP BY status
	`
	rows, err := s.db.QueryContext(ctx, query, filter.RegionID)
	if err != nil {
		return nil, mapError(err, "count progress by status")
	}
	defer func() { _ = rows.Close() }()

	counts := make(store.StatusCounts)
	for rows.Next() {
		var raw string
		var n int64
		if err := rows.Scan(&raw, &n); err != nil {
			return nil, mapError(err, "scan progress count row")
		}
		status, err := domain.ParseInstanceStatus(raw)
		if err != nil {
			return nil, fmt.Errorf("count progress by status: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "iterate progress count rows")
	}
	return counts, nil
}

// ResetToPending implements store.ProgressStore.ResetToPending.
func (s *ProgressStore) ResetToPending(
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
			return 0, fmt.Errorf("reset progress: %w: %q", domain.ErrInvalidInstanceStatus, st)
		}
		raw[i] = string(st)
	}

	query := `
		UPDATE progress_records
		SET status = 'pending', last_error = NULL, updated_at = now()
		WHERE status = ANY($1)
		  AND ($2::bigint IS NULL OR region_id = $2)
	`
	result, err := s.db.ExecContext(ctx, query, raw, filter.RegionID)
	if err != nil {
		return 0, mapError(err, "reset progress to pending")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, mapError(err, "reset progress rows affected")
	}
	return affected, nil
}

package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/trellisdata/trellis/internal/domain"
	"github.com/trellisdata/trellis/internal/store"
)

// ErrorLogStore implements the store.ErrorLogStore interface using PostgreSQL.
type ErrorLogStore struct {
	db store.DBTX
}

// NewErrorLogStore creates a new PostgreSQL error log store.
func NewErrorLogStore(db store.DBTX) *ErrorLogStore {
	if db == nil {
		panic("db cannot be nil")
	}
	return &ErrorLogStore{db: db}
}

// Ensure ErrorLogStore implements store.ErrorLogStore interface
var _ store.ErrorLogStore = (*ErrorLogStore)(nil)

// WithTx returns a copy of the store bound to the given transaction.
func (s *ErrorLogStore) WithTx(tx *sql.Tx) store.ErrorLogStore {
	return &ErrorLogStore{db: tx}
}

// Append implements store.ErrorLogStore.Append.
func (s *ErrorLogStore) Append(
	ctx context.Context,
	key domain.InstanceKey,
	message string,
	occurredAt time.Time,
) error {
	query := `
		INSERT INTO error_log (occupation_id, region_id, task_id, message, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		key.OccupationID, key.RegionID, key.TaskID, message, occurredAt.UTC())
	if err != nil {
		return mapError(err, "append error entry")
	}
	return nil
}

// ListRecent implements store.ErrorLogStore.ListRecent.
func (s *ErrorLogStore) ListRecent(ctx context.Context, limit int) ([]domain.ErrorEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, occupation_id, region_id, task_id, message, occurred_at
		FROM error_log
		ORDER BY occurred_at DESC, id DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, mapError(err, "list recent error entries")
	}
	defer func() { _ = rows.Close() }()

	var entries []domain.ErrorEntry
	for rows.Next() {
		var e domain.ErrorEntry
		if err := rows.Scan(
			&e.ID,
			&e.Key.OccupationID,
			&e.Key.RegionID,
			&e.Key.TaskID,
			&e.Message,
			&e.OccurredAt,
		); err != nil {
			return nil, mapError(err, "scan error entry row")
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "iterate error entry rows")
	}
	return entries, nil
}

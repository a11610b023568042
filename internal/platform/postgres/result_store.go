package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/trellisdata/trellis/internal/domain"
	"github.com/trellisdata/trellis/internal/store"
)

// ResultStore implements the store.ResultStore interface using PostgreSQL.
type ResultStore struct {
	db store.DBTX
}

// NewResultStore creates a new PostgreSQL results store.
func NewResultStore(db store.DBTX) *ResultStore {
	if db == nil {
		panic("db cannot be nil")
	}
	return &ResultStore{db: db}
}

// Ensure ResultStore implements store.ResultStore interface
var _ store.ResultStore = (*ResultStore)(nil)

// WithTx returns a copy of the store bound to the given transaction.
func (s *ResultStore) WithTx(tx *sql.Tx) store.ResultStore {
	return &ResultStore{db: tx}
}

// Upsert implements store.ResultStore.Upsert. Committing the same key twice
// overwrites the payload in place; the unique constraint on the key triple
// makes duplicate rows impossible.
func (s *ResultStore) Upsert(
	ctx context.Context,
	key domain.InstanceKey,
	payload json.RawMessage,
) error {
	query := `
		INSERT INTO result_payloads (occupation_id, region_id, task_id, payload, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		ON CONFLICT (occupation_id, region_id, task_id)
		DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()
	`
	_, err := s.db.ExecContext(ctx, query,
		key.OccupationID, key.RegionID, key.TaskID, []byte(payload))
	if err != nil {
		return mapError(err, "upsert result payload")
	}
	return nil
}

// GetByKey implements store.ResultStore.GetByKey.
func (s *ResultStore) GetByKey(
	ctx context.Context,
	key domain.InstanceKey,
) (*domain.ResultPayload, error) {
	query := `
		SELECT payload, created_at, updated_at
		FROM result_payloads
		WHERE occupation_id = $1 AND region_id = $2 AND task_id = $3
	`
	var payload []byte
	var createdAt, updatedAt time.Time
	err := s.db.QueryRowContext(ctx, query,
		key.OccupationID, key.RegionID, key.TaskID,
	).Scan(&payload, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrResultNotFound
		}
		return nil, mapError(err, "get result by key")
	}

	return &domain.ResultPayload{
		Key:       key,
		Payload:   payload,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

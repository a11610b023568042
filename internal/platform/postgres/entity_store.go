package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/trellisdata/trellis/internal/domain"
	"github.com/trellisdata/trellis/internal/store"
)

// EntityStore implements the store.EntityStore interface using PostgreSQL.
// Occupations and regions are written by the external import step; this
// store only reads them.
type EntityStore struct {
	db store.DBTX
}

// NewEntityStore creates a new PostgreSQL entity store.
func NewEntityStore(db store.DBTX) *EntityStore {
	if db == nil {
		panic("db cannot be nil")
	}
	return &EntityStore{db: db}
}

// Ensure EntityStore implements store.EntityStore interface
var _ store.EntityStore = (*EntityStore)(nil)

// WithTx returns a copy of the store bound to the given transaction.
func (s *EntityStore) WithTx(tx *sql.Tx) store.EntityStore {
	return &EntityStore{db: tx}
}

// GetOccupation implements store.EntityStore.GetOccupation.
func (s *EntityStore) GetOccupation(ctx context.Context, id int64) (*domain.Occupation, error) {
	query := `
		SELECT id, code, name, attributes, created_at
		FROM occupations
		WHERE id = $1
	`
	var occ domain.Occupation
	var attrs []byte
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&occ.ID, &occ.Code, &occ.Name, &attrs, &occ.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrOccupationNotFound
		}
		return nil, mapError(err, "get occupation")
	}
	if err := json.Unmarshal(attrs, &occ.Attributes); err != nil {
		return nil, fmt.Errorf("decode occupation attributes: %w", err)
	}
	return &occ, nil
}

// GetRegion implements store.EntityStore.GetRegion.
func (s *EntityStore) GetRegion(ctx context.Context, id int64) (*domain.Region, error) {
	query := `SELECT id, code, name FROM regions WHERE id = $1`
	var region domain.Region
	err := s.db.QueryRowContext(ctx, query, id).Scan(&region.ID, &region.Code, &region.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrRegionNotFound
		}
		return nil, mapError(err, "get region")
	}
	return &region, nil
}

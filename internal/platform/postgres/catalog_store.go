package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/trellisdata/trellis/internal/domain"
	"github.com/trellisdata/trellis/internal/platform/logger"
	"github.com/trellisdata/trellis/internal/store"
)

// CatalogStore implements the store.CatalogStore interface using PostgreSQL.
type CatalogStore struct {
	db store.DBTX
}

// NewCatalogStore creates a new PostgreSQL analysis catalog store.
func NewCatalogStore(db store.DBTX) *CatalogStore {
	if db == nil {
		panic("db cannot be nil")
	}
	return &CatalogStore{db: db}
}

// Ensure CatalogStore implements store.CatalogStore interface
var _ store.CatalogStore = (*CatalogStore)(nil)

// WithTx returns a copy of the store bound to the given transaction.
func (s *CatalogStore) WithTx(tx *sql.Tx) store.CatalogStore {
	return &CatalogStore{db: tx}
}

// GetDefinition implements store.CatalogStore.GetDefinition.
func (s *CatalogStore) GetDefinition(
	ctx context.Context,
	taskID string,
) (*domain.TaskDefinition, error) {
	query := `
		SELECT id, input_template, output_fields, run_policy, updated_at
		FROM task_definitions
		WHERE id = $1
	`
	def, err := scanDefinition(s.db.QueryRowContext(ctx, query, taskID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrDefinitionNotFound
		}
		return nil, mapError(err, "get task definition")
	}
	return def, nil
}

// UpsertDefinition implements store.CatalogStore.UpsertDefinition.
func (s *CatalogStore) UpsertDefinition(ctx context.Context, def *domain.TaskDefinition) error {
	if err := def.Validate(); err != nil {
		return fmt.Errorf("upsert task definition: %w", err)
	}

	fields, err := json.Marshal(def.OutputFields)
	if err != nil {
		return fmt.Errorf("upsert task definition: marshal output fields: %w", err)
	}
	policy, err := json.Marshal(def.RunPolicy)
	if err != nil {
		return fmt.Errorf("upsert task definition: marshal run policy: %w", err)
	}

	query := `
		INSERT INTO task_definitions (id, input_template, output_fields, run_policy, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (id)
		DO UPDATE SET input_template = EXCLUDED.input_template,
		              output_fields = EXCLUDED.output_fields,
		              run_policy = EXCLUDED.run_policy,
		              updated_at = now()
	`
	if _, err := s.db.ExecContext(ctx, query, def.ID, def.InputTemplate, fields, policy); err != nil {
		return mapError(err, "upsert task definition")
	}

	logger.FromContext(ctx).Info("published task definition", "task_id", def.ID)
	return nil
}

// ListDefinitions implements store.CatalogStore.ListDefinitions.
func (s *CatalogStore) ListDefinitions(ctx context.Context) ([]domain.TaskDefinition, error) {
	query := `
		SELECT id, input_template, output_fields, run_policy, updated_at
		FROM task_definitions
		ORDER BY id ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(err, "list task definitions")
	}
	defer func() { _ = rows.Close() }()

	var defs []domain.TaskDefinition
	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			return nil, mapError(err, "scan task definition row")
		}
		defs = append(defs, *def)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "iterate task definition rows")
	}
	return defs, nil
}

// scanDefinition reads one task definition row, decoding the jsonb columns.
func scanDefinition(row rowScanner) (*domain.TaskDefinition, error) {
	var def domain.TaskDefinition
	var fields, policy []byte

	if err := row.Scan(&def.ID, &def.InputTemplate, &fields, &policy, &def.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(fields, &def.OutputFields); err != nil {
		return nil, fmt.Errorf("decode output fields: %w", err)
	}
	if err := json.Unmarshal(policy, &def.RunPolicy); err != nil {
		return nil, fmt.Errorf("decode run policy: %w", err)
	}
	return &def, nil
}

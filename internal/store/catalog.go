package store

import (
	"context"
	"database/sql"

	"github.com/trellisdata/trellis/internal/domain"
)

// CatalogStore defines the interface for the analysis catalog. The queue
// engine treats the catalog as read-only and looks a definition up once per
// claimed instance; publishing is an administrative operation.
// Version: 1.0
type CatalogStore interface {
	// GetDefinition fetches one task definition by ID.
	// Returns ErrDefinitionNotFound if no such definition exists.
	GetDefinition(ctx context.Context, taskID string) (*domain.TaskDefinition, error)

	// UpsertDefinition publishes a definition. Republishing an existing ID
	// overwrites its template, output contract and run policy in place.
	UpsertDefinition(ctx context.Context, def *domain.TaskDefinition) error

	// ListDefinitions returns all published definitions ordered by ID.
	ListDefinitions(ctx context.Context) ([]domain.TaskDefinition, error)

	// WithTx returns a new CatalogStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) CatalogStore
}

// EntityStore provides read access to the imported occupation and region
// records used to render task inputs. Import itself is external to this
// system.
// Version: 1.0
type EntityStore interface {
	// GetOccupation fetches one occupation by ID.
	// Returns ErrOccupationNotFound if no such occupation exists.
	GetOccupation(ctx context.Context, id int64) (*domain.Occupation, error)

	// GetRegion fetches one region by ID.
	// Returns ErrRegionNotFound if no such region exists.
	GetRegion(ctx context.Context, id int64) (*domain.Region, error)

	// WithTx returns a new EntityStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) EntityStore
}

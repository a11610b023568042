package mocks

import (
	"context"
	"database/sql"

	"github.com/trellisdata/trellis/internal/domain"
	"github.com/trellisdata/trellis/internal/store"
)

// MockCatalogStore implements store.CatalogStore for testing.
type MockCatalogStore struct {
	GetDefinitionFn    func(ctx context.Context, taskID string) (*domain.TaskDefinition, error)
	UpsertDefinitionFn func(ctx context.Context, def *domain.TaskDefinition) error
	ListDefinitionsFn  func(ctx context.Context) ([]domain.TaskDefinition, error)

	Definition   *domain.TaskDefinition
	Definitions  []domain.TaskDefinition
	DefaultError error

	// Upserted records every published definition.
	Upserted []*domain.TaskDefinition
}

var _ store.CatalogStore = (*MockCatalogStore)(nil)

// GetDefinition implements store.CatalogStore.
func (m *MockCatalogStore) GetDefinition(ctx context.Context, taskID string) (*domain.TaskDefinition, error) {
	if m.GetDefinitionFn != nil {
		return m.GetDefinitionFn(ctx, taskID)
	}
	if m.Definition == nil {
		return nil, store.ErrDefinitionNotFound
	}
	return m.Definition, m.DefaultError
}

// UpsertDefinition implements store.CatalogStore.
func (m *MockCatalogStore) UpsertDefinition(ctx context.Context, def *domain.TaskDefinition) error {
	m.Upserted = append(m.Upserted, def)
	if m.UpsertDefinitionFn != nil {
		return m.UpsertDefinitionFn(ctx, def)
	}
	return m.DefaultError
}

// ListDefinitions implements store.CatalogStore.
func (m *MockCatalogStore) ListDefinitions(ctx context.Context) ([]domain.TaskDefinition, error) {
	if m.ListDefinitionsFn != nil {
		return m.ListDefinitionsFn(ctx)
	}
	return m.Definitions, m.DefaultError
}

// WithTx implements store.CatalogStore.
func (m *MockCatalogStore) WithTx(tx *sql.Tx) store.CatalogStore {
	return m
}

// MockEntityStore implements store.EntityStore for testing.
type MockEntityStore struct {
	GetOccupationFn func(ctx context.Context, id int64) (*domain.Occupation, error)
	GetRegionFn     func(ctx context.Context, id int64) (*domain.Region, error)

	Occupation   *domain.Occupation
	Region       *domain.Region
	DefaultError error
}

var _ store.EntityStore = (*MockEntityStore)(nil)

// GetOccupation implements store.EntityStore.
func (m *MockEntityStore) GetOccupation(ctx context.Context, id int64) (*domain.Occupation, error) {
	if m.GetOccupationFn != nil {
		return m.GetOccupationFn(ctx, id)
	}
	if m.Occupation == nil {
		return nil, store.ErrOccupationNotFound
	}
	return m.Occupation, m.DefaultError
}

// GetRegion implements store.EntityStore.
func (m *MockEntityStore) GetRegion(ctx context.Context, id int64) (*domain.Region, error) {
	if m.GetRegionFn != nil {
		return m.GetRegionFn(ctx, id)
	}
	if m.Region == nil {
		return nil, store.ErrRegionNotFound
	}
	return m.Region, m.DefaultError
}

// WithTx implements store.EntityStore.
func (m *MockEntityStore) WithTx(tx *sql.Tx) store.EntityStore {
	return m
}

package mocks

import (
	"context"
	"database/sql"

	"github.com/trellisdata/trellis/internal/domain"
	"github.com/trellisdata/trellis/internal/store"
)

// MockInstanceStore implements store.InstanceStore for testing.
type MockInstanceStore struct {
	// Custom behavior functions
	ClaimNextFn        func(ctx context.Context, filter store.ClaimFilter) (*domain.TaskInstance, error)
	MarkDoneFn         func(ctx context.Context, id int64) error
	MarkFailedFn       func(ctx context.Context, id int64, lastError string) error
	GetByKeyFn         func(ctx context.Context, key domain.InstanceKey) (*domain.TaskInstance, error)
	CountByStatusFn    func(ctx context.Context, filter store.ClaimFilter) (store.StatusCounts, error)
	ResetToPendingFn   func(ctx context.Context, statuses []domain.InstanceStatus, filter store.ClaimFilter) (int64, error)
	SeedForDefinitionFn func(ctx context.Context, taskID string, priority int) (int64, error)

	// Default return values
	Instance     *domain.TaskInstance
	Counts       store.StatusCounts
	ResetCount   int64
	SeededCount  int64
	DefaultError error

	// Recorded calls
	MarkedDone   []int64
	MarkedFailed []int64
	LastErrors   []string
}

var _ store.InstanceStore = (*MockInstanceStore)(nil)

// ClaimNext implements store.InstanceStore.
func (m *MockInstanceStore) ClaimNext(ctx context.Context, filter store.ClaimFilter) (*domain.TaskInstance, error) {
	if m.ClaimNextFn != nil {
		return m.ClaimNextFn(ctx, filter)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}
	if m.Instance == nil {
		return nil, store.ErrNoPendingWork
	}
	return m.Instance, nil
}

// MarkDone implements store.InstanceStore.
func (m *MockInstanceStore) MarkDone(ctx context.Context, id int64) error {
	m.MarkedDone = append(m.MarkedDone, id)
	if m.MarkDoneFn != nil {
		return m.MarkDoneFn(ctx, id)
	}
	return m.DefaultError
}

// MarkFailed implements store.InstanceStore.
func (m *MockInstanceStore) MarkFailed(ctx context.Context, id int64, lastError string) error {
	m.MarkedFailed = append(m.MarkedFailed, id)
	m.LastErrors = append(m.LastErrors, lastError)
	if m.MarkFailedFn != nil {
		return m.MarkFailedFn(ctx, id, lastError)
	}
	return m.DefaultError
}

// GetByKey implements store.InstanceStore.
func (m *MockInstanceStore) GetByKey(ctx context.Context, key domain.InstanceKey) (*domain.TaskInstance, error) {
	if m.GetByKeyFn != nil {
		return m.GetByKeyFn(ctx, key)
	}
	if m.Instance == nil {
		return nil, store.ErrInstanceNotFound
	}
	return m.Instance, m.DefaultError
}

// CountByStatus implements store.InstanceStore.
func (m *MockInstanceStore) CountByStatus(ctx context.Context, filter store.ClaimFilter) (store.StatusCounts, error) {
	if m.CountByStatusFn != nil {
		return m.CountByStatusFn(ctx, filter)
	}
	return m.Counts, m.DefaultError
}

// ResetToPending implements store.InstanceStore.
func (m *MockInstanceStore) ResetToPending(ctx context.Context, statuses []domain.InstanceStatus, filter store.ClaimFilter) (int64, error) {
	if m.ResetToPendingFn != nil {
		return m.ResetToPendingFn(ctx, statuses, filter)
	}
	return m.ResetCount, m.DefaultError
}

// SeedForDefinition implements store.InstanceStore.
func (m *MockInstanceStore) SeedForDefinition(ctx context.Context, taskID string, priority int) (int64, error) {
	if m.SeedForDefinitionFn != nil {
		return m.SeedForDefinitionFn(ctx, taskID, priority)
	}
	return m.SeededCount, m.DefaultError
}

// WithTx implements store.InstanceStore. The mock has no transaction state,
// so it returns itself.
func (m *MockInstanceStore) WithTx(tx *sql.Tx) store.InstanceStore {
	return m
}

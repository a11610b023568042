package mocks

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/trellisdata/trellis/internal/domain"
	"github.com/trellisdata/trellis/internal/store"
)

// ProgressUpdate records one SetStatus call for later assertions.
type ProgressUpdate struct {
	Key       domain.InstanceKey
	Status    domain.InstanceStatus
	LastError string
}

// MockProgressStore implements store.ProgressStore for testing.
type MockProgressStore struct {
	SetStatusFn      func(ctx context.Context, key domain.InstanceKey, status domain.InstanceStatus, lastError string) error
	CountByStatusFn  func(ctx context.Context, filter store.ClaimFilter) (store.StatusCounts, error)
	ResetToPendingFn func(ctx context.Context, statuses []domain.InstanceStatus, filter store.ClaimFilter) (int64, error)

	Counts       store.StatusCounts
	ResetCount   int64
	DefaultError error

	Updates []ProgressUpdate
}

var _ store.ProgressStore = (*MockProgressStore)(nil)

// SetStatus implements store.ProgressStore.
func (m *MockProgressStore) SetStatus(ctx context.Context, key domain.InstanceKey, status domain.InstanceStatus, lastError string) error {
	m.Updates = append(m.Updates, ProgressUpdate{Key: key, Status: status, LastError: lastError})
	if m.SetStatusFn != nil {
		return m.SetStatusFn(ctx, key, status, lastError)
	}
	return m.DefaultError
}

// CountByStatus implements store.ProgressStore.
func (m *MockProgressStore) CountByStatus(ctx context.Context, filter store.ClaimFilter) (store.StatusCounts, error) {
	if m.CountByStatusFn != nil {
		return m.CountByStatusFn(ctx, filter)
	}
	return m.Counts, m.DefaultError
}

// ResetToPending implements store.ProgressStore.
func (m *MockProgressStore) ResetToPending(ctx context.Context, statuses []domain.InstanceStatus, filter store.ClaimFilter) (int64, error) {
	if m.ResetToPendingFn != nil {
		return m.ResetToPendingFn(ctx, statuses, filter)
	}
	return m.ResetCount, m.DefaultError
}

// WithTx implements store.ProgressStore.
func (m *MockProgressStore) WithTx(tx *sql.Tx) store.ProgressStore {
	return m
}

// MockResultStore implements store.ResultStore for testing.
type MockResultStore struct {
	UpsertFn   func(ctx context.Context, key domain.InstanceKey, payload json.RawMessage) error
	GetByKeyFn func(ctx context.Context, key domain.InstanceKey) (*domain.ResultPayload, error)

	Result       *domain.ResultPayload
	DefaultError error

	// Upserted records every payload written, keyed by insertion order.
	Upserted []json.RawMessage
}

var _ store.ResultStore = (*MockResultStore)(nil)

// Upsert implements store.ResultStore.
func (m *MockResultStore) Upsert(ctx context.Context, key domain.InstanceKey, payload json.RawMessage) error {
	m.Upserted = append(m.Upserted, payload)
	if m.UpsertFn != nil {
		return m.UpsertFn(ctx, key, payload)
	}
	return m.DefaultError
}

// GetByKey implements store.ResultStore.
func (m *MockResultStore) GetByKey(ctx context.Context, key domain.InstanceKey) (*domain.ResultPayload, error) {
	if m.GetByKeyFn != nil {
		return m.GetByKeyFn(ctx, key)
	}
	if m.Result == nil {
		return nil, store.ErrResultNotFound
	}
	return m.Result, m.DefaultError
}

// WithTx implements store.ResultStore.
func (m *MockResultStore) WithTx(tx *sql.Tx) store.ResultStore {
	return m
}

// MockErrorLogStore implements store.ErrorLogStore for testing.
type MockErrorLogStore struct {
	AppendFn     func(ctx context.Context, key domain.InstanceKey, message string, occurredAt time.Time) error
	ListRecentFn func(ctx context.Context, limit int) ([]domain.ErrorEntry, error)

	Entries      []domain.ErrorEntry
	DefaultError error

	// Appended records every message written.
	Appended []string
}

var _ store.ErrorLogStore = (*MockErrorLogStore)(nil)

// Append implements store.ErrorLogStore.
func (m *MockErrorLogStore) Append(ctx context.Context, key domain.InstanceKey, message string, occurredAt time.Time) error {
	m.Appended = append(m.Appended, message)
	if m.AppendFn != nil {
		return m.AppendFn(ctx, key, message, occurredAt)
	}
	return m.DefaultError
}

// ListRecent implements store.ErrorLogStore.
func (m *MockErrorLogStore) ListRecent(ctx context.Context, limit int) ([]domain.ErrorEntry, error) {
	if m.ListRecentFn != nil {
		return m.ListRecentFn(ctx, limit)
	}
	return m.Entries, m.DefaultError
}

// WithTx implements store.ErrorLogStore.
func (m *MockErrorLogStore) WithTx(tx *sql.Tx) store.ErrorLogStore {
	return m
}

package mocks

import (
	"context"
	"database/sql"

	"github.com/trellisdata/trellis/internal/store"
)

// MockTxRunner implements store.TxRunner without a database. By default it
// invokes the function with a nil transaction and commits by returning its
// error; mocks obtained through WithTx(nil) must tolerate the nil handle.
type MockTxRunner struct {
	RunInTransactionFn func(ctx context.Context, fn store.TxFn) error

	// Calls counts RunInTransaction invocations.
	Calls int

	// FailWith, when set, is returned without invoking fn. Simulates a
	// transaction that cannot begin or commit.
	FailWith error
}

var _ store.TxRunner = (*MockTxRunner)(nil)

// RunInTransaction implements store.TxRunner.
func (m *MockTxRunner) RunInTransaction(ctx context.Context, fn store.TxFn) error {
	m.Calls++
	if m.RunInTransactionFn != nil {
		return m.RunInTransactionFn(ctx, fn)
	}
	if m.FailWith != nil {
		return m.FailWith
	}
	return fn(ctx, (*sql.Tx)(nil))
}

// Package store defines the persistence abstractions for the pipeline's
// ledgers: the analysis catalog, the occupation/region entities, the
// work ledger (task instances), the progress ledger, the results store and
// the append-only error log. Implementations live under
// internal/platform/postgres; all interfaces expose WithTx so the worker
// can compose multi-table writes into one atomic commit.
package store

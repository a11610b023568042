// Package postgres provides PostgreSQL implementations of the store
// interfaces. The work ledger's claim query relies on row-level locking
// with FOR UPDATE SKIP LOCKED so concurrent claimants skip rows held by
// in-flight transactions instead of blocking on them; everything else is
// plain single-row DML composed into per-instance transactions by the
// worker.
package postgres

package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity (e.g., a second instance for the same key triple).
	ErrDuplicate = errors.New("entity already exists")

	// ErrNoPendingWork is returned by ClaimNext when no pending instance is
	// visible to the caller. It is an expected outcome, not a fault: workers
	// respond with an idle sleep, never a busy loop.
	ErrNoPendingWork = errors.New("no pending task instances")

	// ErrUpdateFailed is returned when an update operation affects no rows,
	// for example because the target row does not exist.
	ErrUpdateFailed = errors.New("update failed")

	// ErrTransactionFailed is returned when a database transaction fails
	// to commit or when an operation within a transaction fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// Entity-specific "not found" errors

	// ErrDefinitionNotFound indicates the requested task definition does not exist.
	ErrDefinitionNotFound = fmt.Errorf("%w: task definition", ErrNotFound)

	// ErrOccupationNotFound indicates the requested occupation does not exist.
	ErrOccupationNotFound = fmt.Errorf("%w: occupation", ErrNotFound)

	// ErrRegionNotFound indicates the requested region does not exist.
	ErrRegionNotFound = fmt.Errorf("%w: region", ErrNotFound)

	// ErrInstanceNotFound indicates the requested task instance does not exist.
	ErrInstanceNotFound = fmt.Errorf("%w: task instance", ErrNotFound)

	// ErrResultNotFound indicates no result payload exists for the key.
	ErrResultNotFound = fmt.Errorf("%w: result payload", ErrNotFound)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

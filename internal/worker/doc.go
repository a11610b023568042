// Package worker implements the queue engine's control loop: claim one
// pending task instance from the work ledger, render its input from the
// catalog template and entity attributes, invoke the generation service
// under the retry controller, validate the response, and commit exactly one
// terminal state per instance atomically across the work ledger, progress
// ledger, results store and error log.
//
// One Worker runs one sequential loop. Concurrency is external: many
// workers (goroutines or separate processes) share a backlog safely because
// mutual exclusion on an instance is carried entirely by the claim query's
// row locking, never by in-process coordination.
package worker

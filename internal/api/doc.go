// Package api implements the administrative HTTP surface: progress and
// error-log reporting, bounded worker runs, administrative resets of failed
// or stuck instances, catalog publishing and instance seeding. The queue
// engine itself never depends on this package; it is a caller of the worker
// and a reader of the ledgers.
package api

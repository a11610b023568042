// Package domain contains the core entities of the trellis pipeline:
// task definitions from the analysis catalog, the occupation and region
// records they are applied to, and the ledger rows (task instances,
// progress records, result payloads, error entries) the queue engine
// maintains. Types here are pure data with validation; persistence
// lives in the store packages.
package domain

// Package mocks provides hand-written test doubles for the store and
// generation interfaces. Each mock exposes optional Fn fields to override
// individual methods; unset methods return the mock's default values.
package mocks

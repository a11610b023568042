// Package migrations embeds the goose SQL migrations for the trellis
// schema so binaries can apply them without a checkout.
package migrations

import "embed"

// FS holds the embedded migration files.
//
//go:embed *.sql
var FS embed.FS

package migrations

import "embed"

// FS contains embedded SQLite migrations for platform storage.
//
//go:embed *.sql
var FS embed.FS

package migrations

import "embed"

// FS contains embedded SQLite migrations for runner storage.
//
//go:embed *.sql
var FS embed.FS

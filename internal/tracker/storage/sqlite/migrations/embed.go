package migrations

import "embed"

// FS contains embedded SQLite migrations for the collection name index.
//
//go:embed *.sql
var FS embed.FS

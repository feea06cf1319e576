// Package migrations holds the goose migrations for the catalog database.
package migrations

import "embed"

// FS contains the SQL migrations. Go migrations register themselves on import.
//
//go:embed *.sql
var FS embed.FS

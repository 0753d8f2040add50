// Package migrations embeds the event journal schema into the binary.
package migrations

import "embed"

// FS holds every *.sql migration at its root; pass it to
// database.DB.Migrate with dir ".".
//
//go:embed *.sql
var FS embed.FS

// Dir is the directory within FS containing the migration files.
const Dir = "."

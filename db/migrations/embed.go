// Package migrations ships the schema with the migration binary.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

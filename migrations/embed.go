// Package migrations embeds the versioned PostgreSQL schema.
// Files follow the golang-migrate naming scheme NNNNNN_name.{up,down}.sql.
package migrations

import "embed"

// FS holds every migration file of the schema
//
//go:embed *.sql
var FS embed.FS

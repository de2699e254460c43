// Package migrations embeds the SQL schema files for the journal database.
package migrations

import "embed"

// FS holds every *.sql file in this directory.
//
//go:embed *.sql
var FS embed.FS

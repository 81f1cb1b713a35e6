// Package migrations contains the embedded SQL schema migrations.
//
// Table names are written as {{prefix}}name; the runner substitutes the
// environment's table prefix before handing the files to the migrator.
package migrations

import "embed"

// Files exposes the compiled-in migration SQL files.
//
//go:embed *.sql
var Files embed.FS

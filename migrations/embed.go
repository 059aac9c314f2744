// Package migrations embeds the SQL schema migrations so the binaries and
// integration tests apply exactly the files shipped with the source.
package migrations

import "embed"

// FS holds the *.up.sql and *.down.sql files of this directory
//
//go:embed *.sql
var FS embed.FS

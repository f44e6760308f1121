// Package migrations embeds the postgres schema migrations so the server and
// migrate binaries carry them.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

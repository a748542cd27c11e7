// Package migrations embeds the SQL schema migrations for the PostgreSQL
// tree store, consumed by golang-migrate through its iofs source driver.
package migrations

import "embed"

// FS holds the embedded migration files.
//
//go:embed *.sql
var FS embed.FS

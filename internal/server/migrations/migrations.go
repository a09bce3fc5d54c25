// Package migrations embeds the goose migrations of the bookmark database,
// one directory per SQL dialect.
package migrations

import "embed"

//go:embed sqlite/*.sql
var SQLite embed.FS

//go:embed postgres/*.sql
var Postgres embed.FS

const (
	SQLiteDir   = "sqlite"
	PostgresDir = "postgres"
)

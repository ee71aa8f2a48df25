package migrations

import "embed"

// SQLite holds the SQLite schema.
//
//go:embed sqlite/*.sql
var SQLite embed.FS

// Postgres holds the PostgreSQL schema.
//
//go:embed postgres/*.sql
var Postgres embed.FS

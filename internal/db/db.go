// Package db carries the schema migrations, embedded so the migrate binary
// and the integration tests always apply the same files.
package db

import "embed"

// Dialect is the goose dialect every migration consumer configures.
const Dialect = "postgres"

// Migrations is the embedded migration source tree.
//
//go:embed migrations/*.sql
var Migrations embed.FS

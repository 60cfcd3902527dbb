package mariadb

import (
	"context"
	"embed"
	"io/fs"

	"github.com/kozaktomas/facegate/internal/database"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var dialect = database.Dialect{
	CreateMigrationsTable: `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	RecordMigration: "INSERT INTO schema_migrations (version) VALUES (?)",
}

// Migrate applies all pending migrations. MariaDB commits DDL implicitly, so
// a failing file may leave part of its statements applied.
func (p *Pool) Migrate(ctx context.Context) error {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	return database.Migrate(ctx, p.db, sub, dialect)
}

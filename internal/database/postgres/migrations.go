package postgres

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
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)`,
	RecordMigration: "INSERT INTO schema_migrations (version) VALUES ($1)",
}

// Migrate applies all pending migrations.
func (p *Pool) Migrate(ctx context.Context) error {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	return database.Migrate(ctx, p.db, sub, dialect)
}

package migrations

import (
	"database/sql"
	"embed"

	"github.com/pkg/errors"
	migrate "github.com/rubenv/sql-migrate"
)

//go:embed *.sql
var files embed.FS

//nolint:ireturn
func Source() migrate.MigrationSource {
	return &migrate.EmbedFileSystemMigrationSource{
		FileSystem: files,
		Root:       ".",
	}
}

// Up applies all pending migrations and returns how many were applied.
func Up(db *sql.DB) (int, error) {
	n, err := migrate.Exec(db, "postgres", Source(), migrate.Up)
	if err != nil {
		return n, errors.Wrap(err, "failed to apply migrations")
	}

	return n, nil
}

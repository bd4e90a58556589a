package migrations

import (
	"database/sql"
	_ "embed"

	"github.com/polyscan/ctfindex/internal/db"
	"github.com/polyscan/ctfindex/internal/logger"
)

//go:embed 001_initial.sql
var mig001 string

func migrationList() []db.Migration {
	return []db.Migration{
		{
			ID:  "001_initial.sql",
			SQL: mig001,
		},
	}
}

// RunMigrations applies the full schema to the database at dbPath.
func RunMigrations(dbPath string) error {
	return db.RunMigrations(dbPath, migrationList())
}

// RunMigrationsDB applies the full schema on an already open database.
func RunMigrationsDB(log *logger.Logger, database *sql.DB) error {
	return db.RunMigrationsDB(log, database, migrationList())
}

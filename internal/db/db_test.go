package db

import (
	"path/filepath"
	"testing"

	"github.com/polyscan/ctfindex/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSQLiteDB(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := NewSQLiteDB(dbPath)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec("CREATE TABLE t (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestNewSQLiteDBFromConfig(t *testing.T) {
	cfg := config.DatabaseConfig{
		Path: filepath.Join(t.TempDir(), "test.db"),
	}
	cfg.ApplyDefaults()

	db, err := NewSQLiteDBFromConfig(cfg)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec("CREATE TABLE t (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)

	var fk int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 0, fk)
}

func TestDBTotalSize(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := NewSQLiteDB(dbPath)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec("CREATE TABLE t (id INTEGER PRIMARY KEY, payload TEXT)")
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		_, err = db.Exec("INSERT INTO t (payload) VALUES ('some payload data')")
		require.NoError(t, err)
	}

	size, err := DBTotalSize(dbPath)
	require.NoError(t, err)
	assert.Greater(t, size, int64(0))
}

func TestDBTotalSize_MissingFile(t *testing.T) {
	_, err := DBTotalSize(filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
}

func TestRunMigrationsDB(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	migrations := []Migration{
		{
			ID:     "001_test",
			Prefix: "test_",
			SQL: `-- +migrate Down
DROP TABLE IF EXISTS /*dbprefix*/items;

-- +migrate Up
CREATE TABLE /*dbprefix*/items (
	id INTEGER PRIMARY KEY,
	name VARCHAR NOT NULL
);`,
		},
	}

	require.NoError(t, RunMigrations(dbPath, migrations))

	db, err := NewSQLiteDB(dbPath)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec("INSERT INTO test_items (name) VALUES ('a')")
	require.NoError(t, err)

	// Running again is a no-op
	require.NoError(t, RunMigrations(dbPath, migrations))
}

func TestRunMigrationsDB_MissingSeparator(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	migrations := []Migration{
		{ID: "001_bad", SQL: "CREATE TABLE oops (id INTEGER)"},
	}

	err := RunMigrations(dbPath, migrations)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

package sqlite

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/modelreg/internal/versions/domain"
)

// TestNewDB_CreatesDirectory verifies that NewDB creates the parent directory if missing.
func TestNewDB_CreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "models", "nested", "registry.db")

	db, err := NewDB(dbPath)
	require.NoError(t, err, "NewDB should succeed even with nested non-existent directories")
	defer db.Close()

	info, err := os.Stat(filepath.Dir(dbPath))
	require.NoError(t, err, "Directory should exist after NewDB")
	require.True(t, info.IsDir())

	if runtime.GOOS != "windows" {
		require.Equal(t, os.FileMode(0o700), info.Mode().Perm(), "Directory should have 0700 permissions")
	}
}

// TestNewDB_RunsMigrations verifies that the model_versions table and its indexes exist.
func TestNewDB_RunsMigrations(t *testing.T) {
	db, err := NewDB(filepath.Join(t.TempDir(), "registry.db"))
	require.NoError(t, err)
	defer db.Close()

	var tableName string
	err = db.conn.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name='model_versions'",
	).Scan(&tableName)
	require.NoError(t, err, "model_versions table should exist after migrations")
	require.Equal(t, "model_versions", tableName)

	var unique int
	err = db.conn.QueryRow(
		`SELECT "unique" FROM pragma_index_list('model_versions') WHERE name = 'ix_model_versions_version_name'`,
	).Scan(&unique)
	require.NoError(t, err, "version_name index should exist")
	require.Equal(t, 1, unique, "version_name index should be unique")

	var version int
	err = db.conn.QueryRow("SELECT version FROM schema_migrations").Scan(&version)
	require.NoError(t, err)
	require.Equal(t, 1, version)
}

// TestNewDB_PreMigrationBackup verifies that a .bak file is written when reopening an existing database.
func TestNewDB_PreMigrationBackup(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "registry.db")

	db1, err := NewDB(dbPath)
	require.NoError(t, err)
	_, err = os.Stat(dbPath + ".bak")
	require.True(t, os.IsNotExist(err), "first open should not create a backup")
	require.NoError(t, db1.Close())

	db2, err := NewDB(dbPath)
	require.NoError(t, err)
	defer db2.Close()

	info, err := os.Stat(dbPath + ".bak")
	require.NoError(t, err, "Backup file should exist after second NewDB")
	require.Greater(t, info.Size(), int64(0))
}

// TestNewDB_Pragmas verifies WAL mode and the busy timeout.
func TestNewDB_Pragmas(t *testing.T) {
	db, err := NewDBWithOptions(filepath.Join(t.TempDir(), "registry.db"), Options{BusyTimeout: 2500 * time.Millisecond})
	require.NoError(t, err)
	defer db.Close()

	var journalMode string
	require.NoError(t, db.conn.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	require.Equal(t, "wal", journalMode)

	var busyTimeout int
	require.NoError(t, db.conn.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout))
	require.Equal(t, 2500, busyTimeout)
}

func TestNewDB_EmptyPath(t *testing.T) {
	_, err := NewDB("")
	require.Error(t, err)
}

// TestDB_Close verifies that the connection closes cleanly.
func TestDB_Close(t *testing.T) {
	db, err := NewDB(filepath.Join(t.TempDir(), "registry.db"))
	require.NoError(t, err)

	require.NoError(t, db.Close())
	require.Error(t, db.conn.Ping(), "Ping should fail after Close")

	var nilDB *DB
	require.NoError(t, nilDB.Close())
}

// TestDB_Accessors verifies Path and VersionRepository.
func TestDB_Accessors(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "registry.db")
	db, err := NewDB(dbPath)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.conn.Ping())
	require.Equal(t, dbPath, db.Path())

	var _ domain.Repository = db.VersionRepository()
}

// TestNewDB_MultipleCalls verifies that opening the same database twice is safe.
func TestNewDB_MultipleCalls(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "registry.db")

	db1, err := NewDB(dbPath)
	require.NoError(t, err)
	defer db1.Close()

	db2, err := NewDB(dbPath)
	require.NoError(t, err, "Second NewDB should succeed (WAL mode allows concurrent access)")
	defer db2.Close()

	var count1, count2 int
	require.NoError(t, db1.conn.QueryRow("SELECT COUNT(*) FROM model_versions").Scan(&count1))
	require.NoError(t, db2.conn.QueryRow("SELECT COUNT(*) FROM model_versions").Scan(&count2))
	require.Equal(t, count1, count2)
}

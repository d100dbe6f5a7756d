package db

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func schemaVersion(t *testing.T, db *sql.DB) int {
	t.Helper()
	var version int
	require.NoError(t, db.QueryRow(`SELECT version FROM schema_version`).Scan(&version))
	return version
}

func hasObject(t *testing.T, db *sql.DB, kind, name string) bool {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = ? AND name = ?`, kind, name).Scan(&n))
	return n == 1
}

func withMigrations(t *testing.T, migrations []string) {
	t.Helper()
	orig := All
	All = migrations
	t.Cleanup(func() { All = orig })
}

func TestMigrate_FreshIndex(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db))

	assert.Equal(t, len(All), schemaVersion(t, db))
	for _, table := range []string{"schema_version", "files", "features", "scenarios", "scenario_tags", "test_links"} {
		assert.True(t, hasObject(t, db, "table", table), table)
	}
	assert.True(t, hasObject(t, db, "index", "idx_scenario_tags_tag"))
}

func TestMigrate_EmptyListStartsAtZero(t *testing.T) {
	withMigrations(t, nil)

	db := openTestDB(t)
	require.NoError(t, Migrate(db))

	assert.True(t, hasObject(t, db, "table", "schema_version"))
	assert.Equal(t, 0, schemaVersion(t, db))
}

func TestMigrate_SecondRunIsNoop(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))

	assert.Equal(t, len(All), schemaVersion(t, db))
}

func TestMigrate_UpgradesOlderIndex(t *testing.T) {
	full := All
	db := openTestDB(t)

	withMigrations(t, full[:2])
	require.NoError(t, Migrate(db))
	assert.Equal(t, 2, schemaVersion(t, db))
	assert.False(t, hasObject(t, db, "table", "test_links"))

	All = full
	require.NoError(t, Migrate(db))
	assert.Equal(t, len(full), schemaVersion(t, db))
	assert.True(t, hasObject(t, db, "table", "test_links"))
}

func TestMigrate_StopsAtFailingStep(t *testing.T) {
	withMigrations(t, []string{
		`CREATE TABLE files (id INTEGER PRIMARY KEY)`,
		`CREATE TABLE files (id INTEGER PRIMARY KEY)`,
		`CREATE TABLE features (id INTEGER PRIMARY KEY)`,
	})

	db := openTestDB(t)
	require.Error(t, Migrate(db))

	assert.Equal(t, 1, schemaVersion(t, db))
	assert.False(t, hasObject(t, db, "table", "features"))
}

func TestMigrate_ScenarioColumns(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db))

	rows, err := db.Query(`SELECT name FROM pragma_table_info('scenarios')`)
	require.NoError(t, err)
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		cols = append(cols, name)
	}
	require.NoError(t, rows.Err())
	assert.Subset(t, cols, []string{"id", "feature_id", "name", "line", "steps"})
}

package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chriserin/vero/internal/config"
	"github.com/chriserin/vero/internal/db"
)

func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(orig) })
	return dir
}

func runInit(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, RunInit(&buf))
	return buf.String()
}

func writeVero(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join("vero", name), []byte(content), 0o644))
}

const loginSource = `PAGE LoginPage {
    FIELD email = "label=Email"
    FIELD submit = "#submit"

    login WITH user {
        FILL email WITH user
        CLICK submit
    }
}

FEATURE Login {
    USE LoginPage

    SCENARIO "sign in" @smoke {
        DO LoginPage.login WITH "admin"
    }

    SCENARIO "sign in twice" @smoke @slow {
        DO LoginPage.login WITH "admin"
        DO LoginPage.login WITH "guest"
    }
}
`

const checkoutSource = `PAGE CartPage {
    FIELD pay = "#pay"
}

FEATURE Checkout {
    USE CartPage

    SCENARIO "pay for cart" @regression {
        CLICK CartPage.pay
    }
}
`

func TestInit_CreatesConfig(t *testing.T) {
	dir := inTempDir(t)
	out := runInit(t)

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(dir), cfg.Project.Name)
	assert.Equal(t, []string{"vero"}, cfg.Source.Dirs)
	assert.Equal(t, "generated", cfg.Output.Dir)
	assert.Contains(t, out, "vero.toml created")
}

func TestInit_ConfigAlreadyExists(t *testing.T) {
	dir := inTempDir(t)
	original := "[source]\ndirs = [\"specs\"]\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vero.toml"), []byte(original), 0o644))

	out := runInit(t)

	data, err := os.ReadFile(filepath.Join(dir, "vero.toml"))
	require.NoError(t, err)
	assert.Equal(t, original, string(data))
	assert.Contains(t, out, "vero.toml already exists")

	info, err := os.Stat(filepath.Join(dir, "specs"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Contains(t, out, "specs/ created")
}

func TestInit_CreatesSourceDirectory(t *testing.T) {
	dir := inTempDir(t)
	out := runInit(t)

	info, err := os.Stat(filepath.Join(dir, "vero"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Contains(t, out, "vero/ created")
}

func TestInit_SourceDirectoryAlreadyExists(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "vero"), 0o755))

	out := runInit(t)

	assert.Contains(t, out, "vero/ already exists")
}

func TestInit_InitializesSQLiteDatabase(t *testing.T) {
	dir := inTempDir(t)
	out := runInit(t)

	dbPath := filepath.Join(dir, ".vero", "index.db")
	_, err := os.Stat(dbPath)
	require.NoError(t, err)

	sqlDB, err := db.Open(dbPath)
	require.NoError(t, err)
	defer sqlDB.Close()

	var mode string
	require.NoError(t, sqlDB.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
	assert.Contains(t, out, ".vero/index.db created")
}

func TestInit_DatabaseAlreadyExists(t *testing.T) {
	inTempDir(t)
	runInit(t)

	out := runInit(t)
	assert.Contains(t, out, ".vero/index.db already exists")
}

func TestInit_AppliesMigrations(t *testing.T) {
	inTempDir(t)
	runInit(t)

	sqlDB, err := db.Open(".vero/index.db")
	require.NoError(t, err)
	defer sqlDB.Close()

	var version int
	require.NoError(t, sqlDB.QueryRow("SELECT version FROM schema_version").Scan(&version))
	assert.Equal(t, len(db.All), version)
}

func TestInit_AddsToGitignore(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("node_modules"), 0o644))

	out := runInit(t)

	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	assert.Equal(t, "node_modules\n.vero/\n", string(data))
	assert.Contains(t, out, ".vero/ added to .gitignore")
}

func TestInit_GitignoreAlreadyHasEntry(t *testing.T) {
	dir := inTempDir(t)
	original := "node_modules\n.vero/\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(original), 0o644))

	out := runInit(t)

	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	assert.Equal(t, original, string(data))
	assert.Contains(t, out, ".vero/ already in .gitignore")
}

func TestInit_NoGitignoreExists(t *testing.T) {
	dir := inTempDir(t)
	out := runInit(t)

	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	assert.Equal(t, ".vero/\n", string(data))
	assert.Contains(t, out, ".gitignore created")
	assert.Contains(t, out, ".vero/ added to .gitignore")
}

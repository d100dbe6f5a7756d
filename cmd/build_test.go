package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chriserin/vero/internal/db"
)

func runBuild(t *testing.T, args ...string) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, RunBuild(&buf, args))
	return buf.String()
}

func TestBuild_WritesModules(t *testing.T) {
	dir := inTempDir(t)
	runInit(t)
	writeVero(t, "login.vero", loginSource)

	out := runBuild(t)

	page, err := os.ReadFile(filepath.Join(dir, "generated", "pages", "LoginPage.ts"))
	require.NoError(t, err)
	assert.Contains(t, string(page), "class LoginPage")

	spec, err := os.ReadFile(filepath.Join(dir, "generated", "tests", "Login.spec.ts"))
	require.NoError(t, err)
	assert.Contains(t, string(spec), "await loginPage.login('admin');")

	assert.Contains(t, out, "generated/pages/LoginPage.ts")
	assert.Contains(t, out, "generated/tests/Login.spec.ts")
	assert.Contains(t, out, "checked 1 file")
}

func TestBuild_BlockedByErrors(t *testing.T) {
	dir := inTempDir(t)
	runInit(t)
	writeVero(t, "login.vero", loginSource)
	writeVero(t, "checkout.vero", typoSource)

	var buf bytes.Buffer
	err := RunBuild(&buf, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build blocked: 1 error")
	assert.Contains(t, buf.String(), "vero/checkout.vero")

	_, err = os.Stat(filepath.Join(dir, "generated"))
	assert.True(t, os.IsNotExist(err))
}

func TestBuild_LinksIndexedScenarios(t *testing.T) {
	inTempDir(t)
	runInit(t)
	writeVero(t, "login.vero", loginSource)
	runSync(t)

	out := runBuild(t)
	assert.Contains(t, out, "linked 2 scenarios")

	sqlDB, err := db.Open(".vero/index.db")
	require.NoError(t, err)
	defer sqlDB.Close()

	var path string
	var line int
	require.NoError(t, sqlDB.QueryRow(`
		SELECT l.file_path, l.line_number
		FROM test_links l JOIN scenarios s ON s.id = l.scenario_id
		WHERE s.name = 'sign in'
	`).Scan(&path, &line))
	assert.Equal(t, "generated/tests/Login.spec.ts", path)
	assert.Greater(t, line, 0)
}

func TestBuild_RebuildReplacesLinks(t *testing.T) {
	inTempDir(t)
	runInit(t)
	writeVero(t, "login.vero", loginSource)
	runSync(t)
	runBuild(t)
	runBuild(t)

	sqlDB, err := db.Open(".vero/index.db")
	require.NoError(t, err)
	defer sqlDB.Close()

	var n int
	require.NoError(t, sqlDB.QueryRow("SELECT COUNT(*) FROM test_links").Scan(&n))
	assert.Equal(t, 2, n)
}

func TestBuild_WithoutIndexSkipsLinks(t *testing.T) {
	inTempDir(t)
	require.NoError(t, os.WriteFile("login.vero", []byte(loginSource), 0o644))

	out := runBuild(t, "login.vero")

	assert.NotContains(t, out, "linked")
	_, err := os.Stat(filepath.Join("generated", "tests", "Login.spec.ts"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(".vero", "index.db"))
	assert.True(t, os.IsNotExist(err))
}

func TestBuild_ConflictingModules(t *testing.T) {
	inTempDir(t)
	runInit(t)
	writeVero(t, "a.vero", `PAGE Shared {
    FIELD a = "#a"
}
`)
	writeVero(t, "b.vero", `PAGE Shared {
    FIELD b = "#b"
}
`)

	var buf bytes.Buffer
	err := RunBuild(&buf, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pages/Shared.ts is generated by both vero/a.vero and vero/b.vero")
}

func TestBuild_WritesRuntimeForHelpers(t *testing.T) {
	dir := inTempDir(t)
	runInit(t)
	writeVero(t, "ids.vero", `FEATURE Ids {
    SCENARIO "makes an id" {
        LOG UUID
    }
}
`)

	out := runBuild(t)

	assert.Contains(t, out, "generated/runtime/vero.ts")
	runtime, err := os.ReadFile(filepath.Join(dir, "generated", "runtime", "vero.ts"))
	require.NoError(t, err)
	assert.Contains(t, string(runtime), "uuid")
}

func TestBuild_CaseOnlyModuleConflict(t *testing.T) {
	inTempDir(t)
	runInit(t)
	writeVero(t, "a.vero", `PAGE Login {
    FIELD a = "#a"
}
`)
	writeVero(t, "b.vero", `PAGE login {
    FIELD b = "#b"
}
`)

	var buf bytes.Buffer
	err := RunBuild(&buf, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pages/Login.ts and pages/login.ts differ only in case")
}

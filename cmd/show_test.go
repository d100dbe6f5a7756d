package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShow_PrintsGeneratedModules(t *testing.T) {
	inTempDir(t)
	runInit(t)
	writeVero(t, "login.vero", loginSource)

	var buf bytes.Buffer
	require.NoError(t, RunShow(&buf, "vero/login.vero"))

	out := buf.String()
	assert.Contains(t, out, "// pages/LoginPage.ts")
	assert.Contains(t, out, "// tests/Login.spec.ts")
	assert.Contains(t, out, "await loginPage.login('admin');")
	assert.Less(t, strings.Index(out, "// pages/LoginPage.ts"), strings.Index(out, "// tests/Login.spec.ts"))
}

func TestShow_WritesNothing(t *testing.T) {
	dir := inTempDir(t)
	runInit(t)
	writeVero(t, "login.vero", loginSource)

	var buf bytes.Buffer
	require.NoError(t, RunShow(&buf, "vero/login.vero"))

	assert.NoDirExists(t, dir+"/generated")
}

func TestShow_BlockedByErrors(t *testing.T) {
	inTempDir(t)
	runInit(t)
	writeVero(t, "checkout.vero", typoSource)

	var buf bytes.Buffer
	err := RunShow(&buf, "vero/checkout.vero")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot preview vero/checkout.vero")
	assert.Contains(t, buf.String(), "Did you mean: pay")
	assert.NotContains(t, buf.String(), "// tests/")
}

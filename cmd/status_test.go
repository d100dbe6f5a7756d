package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runStatus(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, RunStatus(&buf))
	return buf.String()
}

func TestStatus_EmptyIndex(t *testing.T) {
	inTempDir(t)
	runInit(t)

	out := runStatus(t)

	assert.Contains(t, out, "Files: 0")
	assert.Contains(t, out, "Features: 0")
	assert.Contains(t, out, "Scenarios: 0")
	assert.NotContains(t, out, "Files with errors")
}

func TestStatus_Counts(t *testing.T) {
	inTempDir(t)
	runInit(t)
	writeVero(t, "login.vero", loginSource)
	writeVero(t, "checkout.vero", checkoutSource)
	runSync(t)

	out := runStatus(t)

	assert.Contains(t, out, "Files: 2")
	assert.Contains(t, out, "Features: 2")
	assert.Contains(t, out, "Scenarios: 3")
}

func TestStatus_TagCounts(t *testing.T) {
	inTempDir(t)
	runInit(t)
	writeVero(t, "login.vero", loginSource)
	writeVero(t, "plain.vero", `FEATURE Plain {
    SCENARIO "nothing to see" {
        LOG "hello"
    }
}
`)
	runSync(t)

	out := runStatus(t)

	assert.Contains(t, out, ": 2\n")
	assert.Contains(t, out, "@smoke")
	assert.Contains(t, out, "@slow")
	assert.Contains(t, out, "untagged")
	assert.Greater(t, strings.Index(out, "untagged"), strings.Index(out, "@slow"))
}

func TestStatus_FilesWithErrors(t *testing.T) {
	inTempDir(t)
	runInit(t)
	writeVero(t, "login.vero", loginSource)
	writeVero(t, "broken.vero", `FEATURE Broken {
    USE MissingPage
}
`)
	runSync(t)

	out := runStatus(t)

	assert.Contains(t, out, "Files with errors:")
	assert.Contains(t, out, "vero/broken.vero")
	assert.NotContains(t, out, "vero/login.vero")
}

func TestStatus_RequiresInit(t *testing.T) {
	inTempDir(t)

	var buf bytes.Buffer
	assert.EqualError(t, RunStatus(&buf), "run `vero init` first")
}

package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chriserin/vero/internal/diag"
	"github.com/chriserin/vero/internal/transpiler"
)

const source = `PAGE LoginPage {
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
}
`

func TestCompile_ValidProgram(t *testing.T) {
	r := Compile(source, Options{})

	require.True(t, r.Valid(), r.Result.Format())
	require.NoError(t, r.GenErr)
	require.NotNil(t, r.Output)
	assert.Contains(t, r.Output.Pages, "LoginPage")
	assert.Contains(t, r.Output.Features, "Login")
	assert.Contains(t, r.Output.Features["Login"], "await loginPage.login('admin');")
	assert.NotEmpty(t, r.Tokens)
	assert.Len(t, r.Program.Features, 1)
}

func TestCompile_LexicalErrorsComeFirst(t *testing.T) {
	r := Compile(`PAGE P {
    FIELD a = "#a
}
`, Options{})

	require.False(t, r.Valid())
	require.NotEmpty(t, r.Result.Diagnostics)
	assert.Equal(t, diag.UnterminatedString, r.Result.Diagnostics[0].Code)
	assert.Nil(t, r.Output)
	assert.NoError(t, r.GenErr)
}

func TestCompile_SemanticErrorsBlockGeneration(t *testing.T) {
	r := Compile(source+`
FEATURE Broken {
    USE LoginPage
    SCENARIO "typo" {
        CLICK LoginPage.sumbit
    }
}
`, Options{})

	require.False(t, r.Valid())
	assert.Nil(t, r.Output)
	require.Len(t, r.Result.Errors(), 1)
	d := r.Result.Errors()[0]
	assert.Equal(t, diag.UndefinedField, d.Code)
	require.NotEmpty(t, d.Suggestions)
	assert.Equal(t, "submit", d.Suggestions[0])
	assert.Equal(t, r.Result, r.Validated.Result)
}

func TestCompile_PassesCodegenOptions(t *testing.T) {
	r := Compile(`PAGE P {
    FIELD a = "#a"
}

FEATURE F {
    USE P
    SCENARIO "s" {
        SCROLL DOWN
    }
}
`, Options{Codegen: transpiler.Options{ScrollAmount: 120}})

	require.True(t, r.Valid(), r.Result.Format())
	require.NoError(t, r.GenErr)
	assert.Contains(t, r.Output.Features["F"], "mouse.wheel(0, 120)")
}

func TestCheck_StopsAfterValidation(t *testing.T) {
	r := Check(source, Options{})

	assert.True(t, r.Valid())
	assert.Nil(t, r.Output)
	assert.NotNil(t, r.Validated)
}

func TestCompile_SuggesterLimits(t *testing.T) {
	r := Check(source+`
FEATURE Broken {
    USE LoginPage
    SCENARIO "typo" {
        CLICK LoginPage.sumbit
    }
}
`, Options{Suggester: diag.Suggester{MaxDistance: 1, MaxResults: 1}})

	require.Len(t, r.Result.Errors(), 1)
	assert.Empty(t, r.Result.Errors()[0].Suggestions)
}

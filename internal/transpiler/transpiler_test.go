package transpiler

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chriserin/vero/internal/parser"
	"github.com/chriserin/vero/internal/validator"
)

func validated(t *testing.T, src string) *validator.Validated {
	t.Helper()
	prog, diags := parser.ParseSource(src)
	require.Empty(t, diags, "source must parse cleanly")
	return validator.Validate(prog, validator.Options{})
}

func transpile(t *testing.T, src string, opts Options) *Output {
	t.Helper()
	v := validated(t, src)
	require.True(t, v.Result.Valid, v.Result.Format())
	out, err := Transpile(v, opts)
	require.NoError(t, err)
	return out
}

// scenarioSource wraps body in a scenario of a feature that uses page P.
func scenarioSource(body string) string {
	return `PAGE P {
    FIELD a = "#a"
    FIELD msg = ".msg"
}

FEATURE F {
    USE P
    SCENARIO "s" {
` + body + `
    }
}
`
}

const loginPage = `PAGE LoginPage {
    FIELD email = "label=Email"
    FIELD password = "#password"
    FIELD submit = "role=button[name=\"Sign in\"]"
    TEXT defaultUser = "admin"

    login WITH user, pass {
        FILL email WITH user
        FILL password WITH pass
        CLICK submit
    }

    heading RETURNS TEXT {
        RETURN defaultUser
    }
}
`

func TestTranspile_PageObject(t *testing.T) {
	out := transpile(t, loginPage, Options{})

	want := `import type { Locator, Page } from '@playwright/test';

export class LoginPage {
  readonly page: Page;
  readonly email: Locator;
  readonly password: Locator;
  readonly submit: Locator;
  readonly defaultUser = 'admin';

  constructor(page: Page) {
    this.page = page;
    this.email = page.getByLabel('Email');
    this.password = page.locator('#password');
    this.submit = page.getByRole('button', { name: 'Sign in' });
  }

  async login(user: string, pass: string): Promise<void> {
    await this.email.fill(user);
    await this.password.fill(pass);
    await this.submit.click();
  }

  async heading(): Promise<string> {
    return this.defaultUser;
  }
}
`
	assert.Equal(t, want, out.Pages["LoginPage"])
	assert.Empty(t, out.Runtime)
}

func TestTranspile_FeatureSpec(t *testing.T) {
	out := transpile(t, loginPage+`
FEATURE Login {
    USE LoginPage
    SCENARIO "sign in" @smoke {
        OPEN "/login"
        DO LoginPage.login WITH "a", "b"
        VERIFY submit IS VISIBLE
        TEXT title = DO LoginPage.heading
        LOG title
    }
}`, Options{})

	want := `import { expect, test } from '@playwright/test';
import { LoginPage } from '../pages/LoginPage';

test.describe('Login', () => {
  test('sign in', { tag: ['@smoke'] }, async ({ page }) => {
    const loginPage = new LoginPage(page);
    try {
      await page.goto('/login');
      await loginPage.login('a', 'b');
      await expect(loginPage.submit).toBeVisible();
      const title = await loginPage.heading();
      console.log(title);
    } finally {
      await page.screenshot({ path: 'screenshots/Login/sign-in.png', fullPage: true });
    }
  });
});
`
	assert.Equal(t, want, out.Features["Login"])
	assert.Equal(t, []TestLocation{
		{Feature: "Login", Scenario: "sign in", Path: "tests/Login.spec.ts", Line: 5},
	}, out.Tests)
}

func TestTranspile_DownloadWithFilename(t *testing.T) {
	out := transpile(t, scenarioSource(`        DOWNLOAD FROM P.a AS "report.csv"
        DOWNLOAD FROM P.a`), Options{})

	spec := out.Features["F"]
	assert.Contains(t, spec, "const [download] = await Promise.all([")
	assert.Contains(t, spec, "page.waitForEvent('download'),")
	assert.Contains(t, spec, "p.a.click(),")
	assert.Contains(t, spec, "await download.saveAs('report.csv');")
	assert.Contains(t, spec, "await download.path();")
}

func TestTranspile_ScrollForms(t *testing.T) {
	out := transpile(t, scenarioSource(`        SCROLL DOWN
        SCROLL UP
        SCROLL TO P.a`), Options{ScrollAmount: 250})

	spec := out.Features["F"]
	assert.Contains(t, spec, "await page.mouse.wheel(0, 250);")
	assert.Contains(t, spec, "await page.mouse.wheel(0, -250);")
	assert.Contains(t, spec, "await p.a.scrollIntoViewIfNeeded();")
}

func TestTranspile_DefaultScrollAmount(t *testing.T) {
	out := transpile(t, scenarioSource(`        SCROLL DOWN`), Options{})
	assert.Contains(t, out.Features["F"], "await page.mouse.wheel(0, 500);")
}

func TestTranspile_PreservesStatementOrder(t *testing.T) {
	out := transpile(t, scenarioSource(`        CLICK P.a
        FILL P.a WITH 42
        REFRESH
        HOVER "Menu"
        LOG "done"`), Options{})

	spec := out.Features["F"]
	lines := []string{
		"await p.a.click();",
		"await p.a.fill(String(42));",
		"await page.reload();",
		"await page.getByText('Menu').hover();",
		"console.log('done');",
	}
	last := -1
	for _, l := range lines {
		i := strings.Index(spec, l)
		require.GreaterOrEqual(t, i, 0, "missing %q", l)
		assert.Greater(t, i, last, "%q out of order", l)
		last = i
	}
}

func TestTranspile_VerifyAndWaitForms(t *testing.T) {
	out := transpile(t, scenarioSource(`        VERIFY URL CONTAINS "/dashboard"
        VERIFY TITLE IS NOT "Error"
        VERIFY P.msg NOT CONTAINS "fail"
        VERIFY P.msg IS "hello"
        VERIFY "Welcome" IS HIDDEN
        WAIT 2 SECONDS
        WAIT 150 MILLISECONDS
        WAIT FOR NETWORK IDLE
        WAIT FOR URL CONTAINS "/x"
        WAIT FOR P.a`), Options{})

	spec := out.Features["F"]
	for _, want := range []string{
		"await expect.poll(() => page.url()).toContain('/dashboard');",
		"await expect(page).not.toHaveTitle('Error');",
		"await expect(p.msg).not.toContainText('fail');",
		"await expect(p.msg).toHaveText('hello');",
		"await expect(page.getByText('Welcome')).toBeHidden();",
		"await page.waitForTimeout(2000);",
		"await page.waitForTimeout(150);",
		"await page.waitForLoadState('networkidle');",
		"await page.waitForURL((u) => u.href.includes('/x'));",
		"await p.a.waitFor({ state: 'visible' });",
	} {
		assert.Contains(t, spec, want)
	}
}

func TestTranspile_Tabs(t *testing.T) {
	out := transpile(t, scenarioSource(`        SWITCH TO NEW TAB "/help"
        CLICK P.a
        SWITCH TO TAB 1
        CLOSE TAB`), Options{})

	spec := out.Features["F"]
	assert.Contains(t, spec, "async ({ page, context }) => {")
	assert.Contains(t, spec, "page = await context.newPage();")
	assert.Contains(t, spec, "await page.goto('/help');")
	assert.Contains(t, spec, "await new P(page).a.click();")
	assert.Contains(t, spec, "page = context.pages()[0];")
	assert.Contains(t, spec, "await page.close();")
	assert.NotContains(t, spec, "const p = new P(page);")
	assert.Contains(t, spec, "import { P } from '../pages/P';")
}

func TestTranspile_Hooks(t *testing.T) {
	out := transpile(t, `PAGE P {
    FIELD a = "#a"
}

FEATURE F {
    USE P
    BEFORE ALL {
        LOG "start"
    }
    BEFORE EACH {
        OPEN "/"
        CLICK a
    }
    SCENARIO "s" {
        CLICK a
    }
}`, Options{})

	spec := out.Features["F"]
	assert.Contains(t, spec, `  test.beforeAll(async ({ browser }) => {
    const page = await browser.newPage();
    try {
      console.log('start');
    } finally {
      await page.close();
    }
  });`)
	assert.Contains(t, spec, `  test.beforeEach(async ({ page }) => {
    const p = new P(page);
    await page.goto('/');
    await p.a.click();
  });`)
	assert.Contains(t, spec, "import { test } from '@playwright/test';")
}

func TestTranspile_PageActions(t *testing.T) {
	out := transpile(t, loginPage+`
PAGEACTIONS LoginFlow FOR LoginPage {
    signIn WITH user {
        FILL email WITH user
        DO login WITH user, "secret"
    }
}

FEATURE F {
    USE LoginFlow
    SCENARIO "s" {
        DO LoginFlow.signIn WITH "bob"
    }
}`, Options{})

	group := out.PageActions["LoginFlow"]
	assert.Contains(t, group, "import { LoginPage } from './LoginPage';")
	assert.Contains(t, group, "export class LoginFlow {")
	assert.Contains(t, group, "this.loginPage = new LoginPage(page);")
	assert.Contains(t, group, "await this.loginPage.email.fill(user);")
	assert.Contains(t, group, "await this.loginPage.login(user, 'secret');")

	spec := out.Features["F"]
	assert.Contains(t, spec, "const loginFlow = new LoginFlow(page);")
	assert.Contains(t, spec, "await loginFlow.signIn('bob');")
	assert.NotContains(t, spec, "const loginPage")

	var paths []string
	for _, f := range out.Files() {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{"pages/LoginFlow.ts", "pages/LoginPage.ts", "tests/F.spec.ts"}, paths)
}

func TestTranspile_RuntimeHelpers(t *testing.T) {
	src := scenarioSource(`        FILL P.a WITH GENERATE "[a-z]{5}"
        NUMBER n = RANDOM NUMBER FROM 1 TO 10
        LOG UUID`)

	out := transpile(t, src, Options{})
	spec := out.Features["F"]
	assert.Contains(t, spec, "import { fromRegex, randomNumber, uuid } from '../runtime/vero';")
	assert.Contains(t, spec, "await p.a.fill(fromRegex('[a-z]{5}'));")
	assert.Contains(t, spec, "const n = randomNumber(1, 10);")
	assert.Contains(t, spec, "console.log(uuid());")
	assert.Contains(t, out.Runtime, "import RandExp from 'randexp';")
	assert.Contains(t, out.Runtime, "export function randomNumber(min: number, max: number): number {")

	var paths []string
	for _, f := range out.Files() {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{"pages/P.ts", "runtime/vero.ts", "tests/F.spec.ts"}, paths)
	assert.Equal(t, []string{"fromRegex", "randomNumber", "uuid"}, out.Helpers)
	assert.Equal(t, out.Runtime, RuntimeModule(out.Helpers))
	assert.Empty(t, RuntimeModule([]string{"nope"}))

	custom := transpile(t, src, Options{RuntimeImport: "@acme/vero-runtime"})
	assert.Contains(t, custom.Features["F"], "from '@acme/vero-runtime';")
	assert.Empty(t, custom.Runtime)
}

func TestRuntimeHelperArity(t *testing.T) {
	m := newModule("")
	_, err := m.call("uuid", "x")
	assert.Error(t, err)
	_, err = m.call("missing")
	assert.Error(t, err)

	s, err := m.call("randomNumber", "1", "2")
	require.NoError(t, err)
	assert.Equal(t, "randomNumber(1, 2)", s)
	assert.True(t, m.helpers["randomNumber"])
}

func TestLoweringTableIsComplete(t *testing.T) {
	for k := parser.StmtKind(0); k < parser.NumStmtKinds; k++ {
		assert.NotNil(t, lowerings[k], "no lowering for %s", k)
	}
}

type unknownStatement struct{ parser.Pos }

func (unknownStatement) Kind() parser.StmtKind { return parser.NumStmtKinds }

func TestTranspile_UnknownStatementKindFails(t *testing.T) {
	v := validated(t, scenarioSource(`        CLICK P.a`))
	require.True(t, v.Result.Valid)

	s := v.Program.Features[0].Scenarios[0]
	s.Body = append(s.Body, unknownStatement{parser.Pos{Line: 99}})

	_, err := Transpile(v, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoLowering))
	assert.Contains(t, err.Error(), "line 99")
}

func TestTranspile_RefusesInvalidTree(t *testing.T) {
	v := validated(t, `FEATURE F {
    SCENARIO "s" {
        CLICK Missing.button
    }
}`)
	require.False(t, v.Result.Valid)

	out, err := Transpile(v, Options{})
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, ErrInvalidTree))

	_, err = Transpile(nil, Options{})
	assert.True(t, errors.Is(err, ErrInvalidTree))
}

func TestTranspile_CarriesNonErrorDiagnostics(t *testing.T) {
	out := transpile(t, `PAGE P {
    FIELD a = "#a"
}

FEATURE F {
    SCENARIO "s" {
        CLICK P.a
    }
}`, Options{})
	require.Len(t, out.Diagnostics, 1)
	assert.Contains(t, out.Features["F"], "await p.a.click();")
}

func TestJSString(t *testing.T) {
	assert.Equal(t, `'it\'s'`, jsString("it's"))
	assert.Equal(t, `'a\\b\nc'`, jsString("a\\b\nc"))
	assert.Equal(t, `'\x01'`, jsString("\x01"))
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "sign-in-as-admin", slug("Sign in as Admin!"))
	assert.Equal(t, "", slug("!!!"))
}

func TestTranspile_ReturnInsideRepeatFallsThrough(t *testing.T) {
	out := transpile(t, `PAGE P {
    FIELD a = "#a"

    retry RETURNS FLAG {
        REPEAT 3 TIMES {
            CLICK a
            RETURN TRUE
        }
    }

    done RETURNS FLAG {
        RETURN TRUE
    }
}
`, Options{})

	page := out.Pages["P"]
	assert.Contains(t, page, `  async retry(): Promise<boolean> {
    for (let i = 0; i < 3; i++) {
      await this.a.click();
      return true;
    }
    throw new Error('action retry did not return a value');
  }`)
	assert.Equal(t, 1, strings.Count(page, "throw new Error"))
}

func TestTranspile_LocalsDoNotShadowModuleNames(t *testing.T) {
	out := transpile(t, loginPage+`
FEATURE Login {
    USE LoginPage
    SCENARIO "s" {
        TEXT loginPage = "guest"
        TEXT uuid = "fixed"
        DO LoginPage.login WITH loginPage, uuid
        LOG UUID
    }
}`, Options{})

	spec := out.Features["Login"]
	assert.Contains(t, spec, "const loginPage = new LoginPage(page);")
	assert.Contains(t, spec, "const loginPage2 = 'guest';")
	assert.Contains(t, spec, "const uuid2 = 'fixed';")
	assert.Contains(t, spec, "await loginPage.login(loginPage2, uuid2);")
	assert.Contains(t, spec, "console.log(uuid());")
}

func TestTranspile_InstanceDoesNotShadowClass(t *testing.T) {
	out := transpile(t, `PAGE login {
    FIELD a = "#a"
}

FEATURE F {
    USE login
    SCENARIO "s" {
        CLICK login.a
    }
}`, Options{})

	spec := out.Features["F"]
	assert.Contains(t, spec, "const login2 = new login(page);")
	assert.Contains(t, spec, "await login2.a.click();")
}

func TestTranspile_ParamsDoNotShadowHelpers(t *testing.T) {
	out := transpile(t, `PAGE P {
    FIELD a = "#a"

    fill WITH uuid {
        FILL a WITH uuid
        LOG UUID
    }
}
`, Options{})

	page := out.Pages["P"]
	assert.Contains(t, page, "async fill(uuid2: string): Promise<void> {")
	assert.Contains(t, page, "await this.a.fill(uuid2);")
	assert.Contains(t, page, "console.log(uuid());")
}

func TestTranspile_BeforeEachTabCarriesIntoScenarios(t *testing.T) {
	out := transpile(t, `PAGE P {
    FIELD a = "#a"
}

FEATURE F {
    USE P
    BEFORE EACH {
        SWITCH TO NEW TAB "/help"
    }
    AFTER EACH {
        CLICK P.a
    }
    SCENARIO "s" {
        CLICK P.a
        CLOSE TAB
    }
}`, Options{})

	spec := out.Features["F"]
	assert.Equal(t, 3, strings.Count(spec, "async ({ page, context }) => {"))
	assert.Equal(t, 2, strings.Count(spec, "\n    page = context.pages()[context.pages().length - 1];\n"))
	adopt := strings.Index(spec, "  test('s', async ({ page, context }) => {\n    page = context.pages()[context.pages().length - 1];\n    try {\n      await new P(page).a.click();")
	assert.GreaterOrEqual(t, adopt, 0, spec)
	assert.NotContains(t, spec, "const p = new P(page);")
}

func TestTranspile_EvidencePathsAreUnique(t *testing.T) {
	out := transpile(t, `FEATURE Login {
    SCENARIO "Login works" {
        LOG "a"
    }
    SCENARIO "Login works!" {
        LOG "b"
    }
}`, Options{})

	spec := out.Features["Login"]
	assert.Contains(t, spec, "path: 'screenshots/Login/login-works.png'")
	assert.Contains(t, spec, "path: 'screenshots/Login/login-works-5.png'")
}

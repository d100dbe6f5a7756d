package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chriserin/vero/internal/diag"
	"github.com/chriserin/vero/internal/lexer"
)

func codes(diags []diag.Diagnostic) []diag.Code {
	out := make([]diag.Code, len(diags))
	for i, d := range diags {
		out[i] = d.Code
	}
	return out
}

func stmtKinds(body []Statement) []StmtKind {
	out := make([]StmtKind, len(body))
	for i, s := range body {
		out[i] = s.Kind()
	}
	return out
}

func parseScenario(t *testing.T, body string) *Scenario {
	t.Helper()
	prog, diags := ParseSource("FEATURE F {\n  SCENARIO \"s\" {\n" + body + "\n  }\n}\n")
	require.Empty(t, diags)
	require.Len(t, prog.Features, 1)
	require.Len(t, prog.Features[0].Scenarios, 1)
	return prog.Features[0].Scenarios[0]
}

func TestParse_Page(t *testing.T) {
	prog, diags := ParseSource(`PAGE LoginPage {
    FIELD email = "Email"
    FIELD submit = "button"
    TEXT greeting = "hi"
    LIST items = ["a", "b"]

    login WITH user, pass RETURNS FLAG {
        FILL email WITH user
        CLICK submit
        RETURN TRUE
    }
}`)
	require.Empty(t, diags)
	require.Len(t, prog.Pages, 1)

	page := prog.Pages[0]
	assert.Equal(t, "LoginPage", page.Name)
	assert.Equal(t, 1, page.Line)
	require.Len(t, page.Fields, 2)
	assert.Equal(t, "email", page.Fields[0].Name)
	assert.Equal(t, "Email", page.Fields[0].Selector)
	assert.Equal(t, 2, page.Fields[0].Line)

	require.Len(t, page.Variables, 2)
	assert.Equal(t, TypeText, page.Variables[0].Type)
	list, ok := page.Variables[1].Value.(*ListLit)
	require.True(t, ok)
	assert.Len(t, list.Items, 2)

	require.Len(t, page.Actions, 1)
	action := page.Actions[0]
	assert.Equal(t, "login", action.Name)
	assert.Equal(t, []Param{{Pos: Pos{Line: 7, Col: 15, End: 19}, Name: "user"}, {Pos: Pos{Line: 7, Col: 21, End: 25}, Name: "pass"}}, action.Params)
	assert.Equal(t, TypeFlag, action.Returns)
	assert.Equal(t, []StmtKind{StmtFill, StmtClick, StmtReturn}, stmtKinds(action.Body))
}

func TestParse_FeatureWithHooksAndTags(t *testing.T) {
	prog, diags := ParseSource(`FEATURE Login {
    USE LoginPage
    BEFORE EACH {
        OPEN "https://example.com"
    }
    SCENARIO "valid login" @smoke @auth {
        DO LoginPage.login WITH "a", "b"
        VERIFY LoginPage.email IS VISIBLE
    }
    AFTER ALL {
        LOG "done"
    }
}`)
	require.Empty(t, diags)
	require.Len(t, prog.Features, 1)

	f := prog.Features[0]
	assert.Equal(t, "Login", f.Name)
	require.Len(t, f.Uses, 1)
	assert.Equal(t, "LoginPage", f.Uses[0].Name)

	require.Len(t, f.Hooks, 2)
	assert.Equal(t, BeforeEach, f.Hooks[0].Kind)
	assert.Equal(t, AfterAll, f.Hooks[1].Kind)
	assert.True(t, f.Hooks[1].Kind.IsAll())

	require.Len(t, f.Scenarios, 1)
	s := f.Scenarios[0]
	assert.Equal(t, "valid login", s.Name)
	assert.Equal(t, []string{"@smoke", "@auth"}, s.Tags)
	assert.Equal(t, 6, s.Line)

	do := s.Body[0].(*Do)
	assert.Equal(t, "LoginPage", do.Call.Page)
	assert.Equal(t, "login", do.Call.Action)
	assert.Len(t, do.Call.Args, 2)

	verify := s.Body[1].(*Verify)
	assert.Equal(t, StateVisible, verify.State)
	assert.False(t, verify.Negated)
}

func TestParse_PageActions(t *testing.T) {
	prog, diags := ParseSource(`PAGEACTIONS Auth FOR LoginPage {
    signIn WITH name {
        FILL LoginPage.email WITH name
    }
}`)
	require.Empty(t, diags)
	require.Len(t, prog.PageActions, 1)
	group := prog.PageActions[0]
	assert.Equal(t, "Auth", group.Name)
	assert.Equal(t, "LoginPage", group.For)
	require.Len(t, group.Actions, 1)
	assert.Equal(t, "signIn", group.Actions[0].Name)
}

func TestParse_EveryStatementFormInSourceOrder(t *testing.T) {
	s := parseScenario(t, `
    CLICK P.a
    FILL P.a WITH "x"
    OPEN "/home" IN NEW TAB
    VERIFY P.a IS NOT VISIBLE
    DO P.go
    WAIT 2 SECONDS
    REFRESH
    UNCHECK P.a
    HOVER "Menu"
    PRESS "Enter" ON P.a
    SELECT "US" FROM P.a
    UPLOAD "f.txt" TO P.a
    LOG "hi"
    TAKE SCREENSHOT AS "s.png"
    SCROLL TO P.a
    DOWNLOAD FROM P.a AS "r.csv"
    SET COOKIE "k" TO "v"
    GET STORAGE "k" AS token
    SWITCH TO TAB 1
    REPEAT 3 TIMES { CLICK P.a }
    TEXT name = "bob"
    RETURN name`)

	require.Len(t, s.Body, int(NumStmtKinds))
	for i, stmt := range s.Body {
		assert.Equal(t, StmtKind(i), stmt.Kind(), "statement %d", i)
	}
	assert.True(t, s.Body[2].(*Open).NewTab)
	assert.True(t, s.Body[7].(*Check).Uncheck)
	assert.True(t, s.Body[8].(*Hover).Target.Literal)
	assert.Equal(t, "s.png", s.Body[13].(*Screenshot).Filename)
	assert.Equal(t, "r.csv", s.Body[15].(*Download).SaveAs)
	assert.Equal(t, "token", s.Body[17].(*Storage).Into)
	assert.Len(t, s.Body[19].(*Repeat).Body, 1)
}

func TestParse_VerifyForms(t *testing.T) {
	s := parseScenario(t, `
    VERIFY URL CONTAINS "/dashboard"
    VERIFY TITLE IS NOT "Error"
    VERIFY P.msg NOT CONTAINS "fail"
    VERIFY P.msg IS "hello"
    VERIFY "Welcome" IS HIDDEN`)

	v := s.Body[0].(*Verify)
	assert.Equal(t, SubjectURL, v.Subject)
	assert.Equal(t, OpContains, v.Op)

	v = s.Body[1].(*Verify)
	assert.Equal(t, SubjectTitle, v.Subject)
	assert.Equal(t, OpIs, v.Op)
	assert.True(t, v.Negated)

	v = s.Body[2].(*Verify)
	assert.Equal(t, OpContains, v.Op)
	assert.True(t, v.Negated)
	assert.Equal(t, "msg", v.Target.Name)

	v = s.Body[3].(*Verify)
	assert.Equal(t, StateNone, v.State)
	assert.Equal(t, "hello", v.Value.(*StringLit).Value)

	v = s.Body[4].(*Verify)
	assert.True(t, v.Target.Literal)
	assert.Equal(t, StateHidden, v.State)
}

func TestParse_WaitForms(t *testing.T) {
	s := parseScenario(t, `
    WAIT 500 MILLISECONDS
    WAIT 1
    WAIT FOR NAVIGATION
    WAIT FOR NETWORK IDLE
    WAIT FOR URL CONTAINS "/done"
    WAIT FOR P.spinner`)

	modes := make([]WaitMode, len(s.Body))
	for i, stmt := range s.Body {
		modes[i] = stmt.(*Wait).Mode
	}
	assert.Equal(t, []WaitMode{WaitDuration, WaitDuration, WaitNavigation, WaitNetworkIdle, WaitURL, WaitTarget}, modes)
	assert.Equal(t, Milliseconds, s.Body[0].(*Wait).Unit)
	assert.Equal(t, Seconds, s.Body[1].(*Wait).Unit)
	assert.Equal(t, OpContains, s.Body[4].(*Wait).URLOp)
	assert.Equal(t, "spinner", s.Body[5].(*Wait).Target.Name)
}

func TestParse_ScrollForms(t *testing.T) {
	s := parseScenario(t, `
    SCROLL DOWN
    SCROLL UP
    SCROLL TO Page.footer`)

	assert.Equal(t, ScrollDown, s.Body[0].(*Scroll).Direction)
	assert.Equal(t, ScrollUp, s.Body[1].(*Scroll).Direction)
	to := s.Body[2].(*Scroll)
	assert.Equal(t, ScrollToTarget, to.Direction)
	assert.Equal(t, "Page", to.Target.Page)
	assert.Equal(t, "footer", to.Target.Name)
}

func TestParse_BrowserStateAndTabs(t *testing.T) {
	s := parseScenario(t, `
    CLEAR COOKIES
    GET COOKIE "session" AS sid
    CLEAR STORAGE
    SWITCH TO NEW TAB "https://example.com"
    CLOSE TAB`)

	c := s.Body[0].(*Cookie)
	assert.Equal(t, StateClear, c.Op)
	c = s.Body[1].(*Cookie)
	assert.Equal(t, StateGet, c.Op)
	assert.Equal(t, "sid", c.Into)
	assert.Equal(t, StateClear, s.Body[2].(*Storage).Op)

	tab := s.Body[3].(*Tab)
	assert.Equal(t, TabNew, tab.Op)
	assert.NotNil(t, tab.URL)
	assert.Equal(t, TabClose, s.Body[4].(*Tab).Op)
}

func TestParse_Expressions(t *testing.T) {
	s := parseScenario(t, `
    FILL P.a WITH GENERATE "[a-z]{5}"
    FILL P.b WITH RANDOM NUMBER FROM 1 TO 10
    FILL P.c WITH UUID
    FILL P.d WITH LoginPage.user
    NUMBER total = DO CartPage.total WITH 1`)

	assert.Equal(t, "[a-z]{5}", s.Body[0].(*Fill).Value.(*Generate).Pattern)
	rnd := s.Body[1].(*Fill).Value.(*RandomNumber)
	assert.Equal(t, 1.0, rnd.Min.(*NumberLit).Value)
	assert.Equal(t, 10.0, rnd.Max.(*NumberLit).Value)
	assert.IsType(t, &UUID{}, s.Body[2].(*Fill).Value)
	ref := s.Body[3].(*Fill).Value.(*VarRef)
	assert.Equal(t, "LoginPage", ref.Page)
	assert.Equal(t, "user", ref.Name)

	let := s.Body[4].(*Let)
	assert.Equal(t, TypeNumber, let.Type)
	require.NotNil(t, let.Call)
	assert.Equal(t, "total", let.Call.Action)
}

func TestParse_RecoversFromMultipleErrors(t *testing.T) {
	prog, diags := ParseSource(`FEATURE F {
  SCENARIO "s" {
    CLIK P.a
    FILL P.a "x"
    SELECT "US" P.b
    REPEAT 3 { REFRESH }
    CLICK P.c
  }
}`)
	assert.Equal(t, []diag.Code{diag.UnknownKeyword, diag.MissingWith, diag.MissingFrom, diag.MissingTimes}, codes(diags))
	assert.Equal(t, []int{3, 4, 5, 6}, []int{diags[0].Line, diags[1].Line, diags[2].Line, diags[3].Line})
	require.NotEmpty(t, diags[0].Suggestions)
	assert.Equal(t, "CLICK", diags[0].Suggestions[0])

	require.Len(t, prog.Features, 1)
	body := prog.Features[0].Scenarios[0].Body
	assert.Equal(t, []StmtKind{StmtFill, StmtSelect, StmtRepeat, StmtClick}, stmtKinds(body))
}

func TestParse_MissingClosingBraces(t *testing.T) {
	prog, diags := ParseSource(`FEATURE F {
  SCENARIO "s" {
    CLICK P.a
`)
	require.Len(t, diags, 2)
	assert.Equal(t, diag.MissingBrace, diags[0].Code)
	assert.Equal(t, 2, diags[0].Line)
	assert.Equal(t, diag.MissingBrace, diags[1].Code)
	assert.Equal(t, 1, diags[1].Line)

	require.Len(t, prog.Features, 1)
	assert.Len(t, prog.Features[0].Scenarios[0].Body, 1)
}

func TestParse_IncompleteStatement(t *testing.T) {
	prog, diags := ParseSource(`FEATURE F {
  SCENARIO "s" {
    CLICK
  }
  SCENARIO "t" {
    REFRESH
  }
}`)
	require.Len(t, diags, 1)
	assert.Equal(t, diag.IncompleteStatement, diags[0].Code)
	require.Len(t, prog.Features[0].Scenarios, 2)
	assert.Empty(t, prog.Features[0].Scenarios[0].Body)
}

func TestParse_MissingFor(t *testing.T) {
	prog, diags := ParseSource(`PAGEACTIONS Auth LoginPage {
}`)
	require.Len(t, diags, 1)
	assert.Equal(t, diag.MissingKeyword, diags[0].Code)
	assert.Equal(t, "LoginPage", prog.PageActions[0].For)
}

func TestParse_UnknownTopLevelWord(t *testing.T) {
	prog, diags := ParseSource(`Paeg X { }
PAGE P {
    FIELD a = "x"
}`)
	require.Len(t, diags, 1)
	assert.Equal(t, diag.UnknownKeyword, diags[0].Code)
	assert.Contains(t, diags[0].Suggestions, "PAGE")
	require.Len(t, prog.Pages, 1)
	assert.Equal(t, "P", prog.Pages[0].Name)
}

func TestParse_Idempotent(t *testing.T) {
	tokens, _ := lexer.Tokenize(`PAGE P { FIELD a = "x" }
FEATURE F { USE P SCENARIO "s" @smoke { CLICK P.a WAIT 1 SECONDS } }`)
	a, da := Parse(tokens)
	b, db := Parse(tokens)
	assert.Equal(t, a, b)
	assert.Equal(t, da, db)
}

func TestSummarize(t *testing.T) {
	prog, diags := ParseSource(`PAGE P { FIELD a = "x" }
FEATURE Checkout {
  SCENARIO "pay" @smoke {
    CLICK P.a
    REFRESH
  }
  SCENARIO "refund" { }
}`)
	fs := Summarize(prog, "vero/checkout.vero", diags)

	assert.Equal(t, "checkout", fs.Name)
	assert.Equal(t, []string{"P"}, fs.Pages)
	assert.Equal(t, []string{"Checkout"}, fs.Features)
	require.Len(t, fs.Scenarios, 2)
	assert.Equal(t, ScenarioSummary{Feature: "Checkout", Name: "pay", Tags: []string{"@smoke"}, Line: 3, Steps: 2}, fs.Scenarios[0])
	assert.Empty(t, fs.Errors)
}

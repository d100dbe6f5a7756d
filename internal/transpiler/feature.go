package transpiler

import (
	"fmt"
	"path"
	"strings"

	"github.com/chriserin/vero/internal/parser"
	"github.com/chriserin/vero/internal/validator"
)

var hookFuncs = map[parser.HookKind]string{
	parser.BeforeAll:  "test.beforeAll",
	parser.BeforeEach: "test.beforeEach",
	parser.AfterAll:   "test.afterAll",
	parser.AfterEach:  "test.afterEach",
}

type featureGen struct {
	v       *validator.Validated
	opts    Options
	mod     *module
	w       *writer
	feature *parser.Feature
	scope   validator.FeatureScope

	// eachTab is set when a BEFORE EACH hook can leave another tab
	// current. Scenarios and AFTER EACH hooks then start on the last tab.
	eachTab  bool
	evidence map[string]bool
}

// featureModule renders a FEATURE as a test.describe block. Hooks become
// test hooks and every scenario a test whose last act is an evidence
// screenshot taken in a finally block.
func featureModule(v *validator.Validated, opts Options, f *parser.Feature, used map[string]bool) (string, error) {
	fg := &featureGen{
		v:        v,
		opts:     opts,
		mod:      newModule(""),
		w:        &writer{indent: 1},
		feature:  f,
		scope:    v.Scope(f),
		evidence: make(map[string]bool),
	}
	for _, h := range f.Hooks {
		if h.Kind == parser.BeforeEach && hasTabs(h.Body) {
			fg.eachTab = true
		}
	}

	first := true
	sep := func() {
		if !first {
			fg.w.line("")
		}
		first = false
	}
	for _, h := range f.Hooks {
		sep()
		adopt := fg.eachTab && h.Kind == parser.AfterEach
		if err := fg.callback(hookFuncs[h.Kind]+"(", h.Body, h.Kind.IsAll(), adopt, ""); err != nil {
			return "", fmt.Errorf("%s: %w", h.Kind, err)
		}
	}
	for _, s := range f.Scenarios {
		sep()
		head := fmt.Sprintf("test(%s, ", jsString(s.Name))
		if len(s.Tags) > 0 {
			tags := make([]string, len(s.Tags))
			for i, t := range s.Tags {
				tags[i] = jsString(t)
			}
			head += fmt.Sprintf("{ tag: [%s] }, ", strings.Join(tags, ", "))
		}
		if err := fg.callback(head, s.Body, false, fg.eachTab, fg.evidencePath(s)); err != nil {
			return "", fmt.Errorf("scenario %q: %w", s.Name, err)
		}
	}

	var w writer
	if fg.mod.expect {
		w.line("import { expect, test } from '@playwright/test';")
	} else {
		w.line("import { test } from '@playwright/test';")
	}
	fg.mod.imports(&w, "../pages", opts.RuntimeImport)
	w.line("")
	w.openf("test.describe(%s, () => {", jsString(f.Name))
	w.raw(fg.w.String())
	w.close("});")

	fg.mod.mergeHelpers(used)
	return w.String(), nil
}

// testLocations finds the test() line of every scenario of f in src.
func testLocations(f *parser.Feature, src string) []TestLocation {
	lines := strings.Split(src, "\n")
	var out []TestLocation
	next := 0
	for _, s := range f.Scenarios {
		prefix := "  test(" + jsString(s.Name) + ", "
		for i := next; i < len(lines); i++ {
			if strings.HasPrefix(lines[i], prefix) {
				out = append(out, TestLocation{Feature: f.Name, Scenario: s.Name, Path: specPath(f.Name), Line: i + 1})
				next = i + 1
				break
			}
		}
	}
	return out
}

// evidencePath is the screenshot file of s. Scenarios whose names slug
// alike get their line number appended.
func (fg *featureGen) evidencePath(s *parser.Scenario) string {
	name := slug(s.Name)
	switch {
	case name == "":
		name = fmt.Sprintf("scenario-%d", s.Line)
	case fg.evidence[name]:
		name = fmt.Sprintf("%s-%d", name, s.Line)
	}
	fg.evidence[name] = true
	return path.Join(fg.opts.ScreenshotDir, fg.feature.Name, name+".png")
}

// callback writes one hook or test callback. all selects the per-feature
// form, which opens its own page from the browser fixture. adopt starts the
// body on the last open tab. A non-empty evidence path wraps the body in
// try/finally with a full-page screenshot.
func (fg *featureGen) callback(head string, stmts []parser.Statement, all, adopt bool, evidence string) error {
	tabs := !all && (adopt || hasTabs(stmts))
	wrapped := all || evidence != ""

	inner := &writer{indent: fg.w.indent + 1}
	if wrapped {
		inner.indent++
	}
	g := &gen{
		v:         fg.v,
		opts:      fg.opts,
		mod:       fg.mod,
		w:         inner,
		pageVar:   "page",
		instances: make(map[string]string),
		used:      make(map[string]bool),
		tabs:      tabs,
	}
	g.resetNames()
	for _, names := range [][]string{fg.scope.Pages, fg.scope.Groups} {
		for _, name := range names {
			g.instances[name] = g.claim(instanceName(name))
		}
	}
	if err := g.body(stmts); err != nil {
		return err
	}

	fixtures := "{ page }"
	switch {
	case all:
		fixtures = "{ browser }"
	case tabs:
		fixtures = "{ page, context }"
	}
	fg.w.openf("%sasync (%s) => {", head, fixtures)
	if all {
		fg.w.line("const page = await browser.newPage();")
	}
	if adopt && !all {
		fg.w.line("page = context.pages()[context.pages().length - 1];")
	}
	for _, names := range [][]string{fg.scope.Pages, fg.scope.Groups} {
		for _, name := range names {
			if g.used[name] {
				fg.mod.useClass(name)
				fg.w.linef("const %s = new %s(page);", g.instances[name], name)
			}
		}
	}

	if !wrapped {
		fg.w.raw(inner.String())
		fg.w.close("});")
		return nil
	}
	fg.w.open("try {")
	fg.w.raw(inner.String())
	fg.w.next("} finally {")
	if all {
		fg.w.line("await page.close();")
	} else {
		fg.w.linef("await page.screenshot({ path: %s, fullPage: true });", jsString(evidence))
	}
	fg.w.close("}")
	fg.w.close("});")
	return nil
}

// hasTabs reports whether stmts can replace the current page.
func hasTabs(stmts []parser.Statement) bool {
	for _, s := range stmts {
		switch s := s.(type) {
		case *parser.Tab:
			return true
		case *parser.Open:
			if s.NewTab {
				return true
			}
		case *parser.Repeat:
			if hasTabs(s.Body) {
				return true
			}
		}
	}
	return false
}

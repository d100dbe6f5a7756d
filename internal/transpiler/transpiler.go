// Package transpiler turns a validated Vero program into Playwright
// TypeScript: one page-object class per PAGE and PAGEACTIONS block and one
// spec module per FEATURE.
package transpiler

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/chriserin/vero/internal/diag"
	"github.com/chriserin/vero/internal/parser"
	"github.com/chriserin/vero/internal/validator"
)

var (
	// ErrInvalidTree is returned for programs that still carry error
	// diagnostics or references the validator did not resolve.
	ErrInvalidTree = errors.New("program is not valid")
	// ErrNoLowering is returned for a statement kind with no lowering rule.
	ErrNoLowering = errors.New("no lowering for statement")
)

const (
	DefaultScrollAmount  = 500
	DefaultRuntimeImport = "../runtime/vero"
	DefaultScreenshotDir = "screenshots"
)

// Options control generated code. Zero values take the defaults.
type Options struct {
	// ScrollAmount is the wheel delta in pixels for SCROLL UP and DOWN.
	ScrollAmount int
	// RuntimeImport is the module specifier generated files import helpers
	// from, relative to pages/ and tests/.
	RuntimeImport string
	// ScreenshotDir prefixes every screenshot path.
	ScreenshotDir string
}

func (o Options) withDefaults() Options {
	if o.ScrollAmount <= 0 {
		o.ScrollAmount = DefaultScrollAmount
	}
	if o.RuntimeImport == "" {
		o.RuntimeImport = DefaultRuntimeImport
	}
	if o.ScreenshotDir == "" {
		o.ScreenshotDir = DefaultScreenshotDir
	}
	return o
}

// Output holds generated modules keyed by declaration name. Runtime is the
// helper module, empty when no helper is used or when helpers come from a
// custom RuntimeImport.
type Output struct {
	Pages       map[string]string
	PageActions map[string]string
	Features    map[string]string
	Runtime     string
	Helpers     []string // runtime helpers the modules import, sorted
	Tests       []TestLocation
	Diagnostics []diag.Diagnostic
}

// TestLocation is where a scenario's test() call lands in the generated
// spec. Line is 1-based.
type TestLocation struct {
	Feature  string
	Scenario string
	Path     string
	Line     int
}

// RuntimePath is where the helper module is written, relative to the
// output directory.
const RuntimePath = "runtime/vero.ts"

// File is a generated module and its path relative to the output directory.
type File struct {
	Path    string
	Content string
}

// Files lists every generated module sorted by path.
func (o *Output) Files() []File {
	var files []File
	for name, src := range o.Pages {
		files = append(files, File{Path: "pages/" + name + ".ts", Content: src})
	}
	for name, src := range o.PageActions {
		files = append(files, File{Path: "pages/" + name + ".ts", Content: src})
	}
	for name, src := range o.Features {
		files = append(files, File{Path: specPath(name), Content: src})
	}
	if o.Runtime != "" {
		files = append(files, File{Path: RuntimePath, Content: o.Runtime})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files
}

func specPath(feature string) string {
	return "tests/" + feature + ".spec.ts"
}

// Transpile generates code for v. It refuses programs with error
// diagnostics; warnings and below are carried into the output.
func Transpile(v *validator.Validated, opts Options) (*Output, error) {
	if v == nil || v.Program == nil {
		return nil, fmt.Errorf("%w: nothing to transpile", ErrInvalidTree)
	}
	if !v.Result.Valid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTree, v.Result.Summary())
	}
	opts = opts.withDefaults()

	out := &Output{
		Pages:       make(map[string]string),
		PageActions: make(map[string]string),
		Features:    make(map[string]string),
		Diagnostics: v.Result.Diagnostics,
	}
	used := make(map[string]bool)

	for _, p := range v.Program.Pages {
		src, err := pageModule(v, opts, p, used)
		if err != nil {
			return nil, fmt.Errorf("page %s: %w", p.Name, err)
		}
		out.Pages[p.Name] = src
	}
	for _, g := range v.Program.PageActions {
		src, err := groupModule(v, opts, g, used)
		if err != nil {
			return nil, fmt.Errorf("page actions %s: %w", g.Name, err)
		}
		out.PageActions[g.Name] = src
	}
	for _, f := range v.Program.Features {
		src, err := featureModule(v, opts, f, used)
		if err != nil {
			return nil, fmt.Errorf("feature %s: %w", f.Name, err)
		}
		out.Features[f.Name] = src
		out.Tests = append(out.Tests, testLocations(f, src)...)
	}

	for name := range used {
		out.Helpers = append(out.Helpers, name)
	}
	sort.Strings(out.Helpers)
	if opts.RuntimeImport == DefaultRuntimeImport {
		out.Runtime = runtimeModule(used)
	}
	return out, nil
}

// module collects what one generated file needs to import.
type module struct {
	self    string
	classes map[string]bool
	helpers map[string]bool
	expect  bool
}

func newModule(self string) *module {
	return &module{self: self, classes: make(map[string]bool), helpers: make(map[string]bool)}
}

func (m *module) useClass(name string) {
	if name != m.self {
		m.classes[name] = true
	}
}

// imports writes the class and runtime imports. dir is the path from the
// importing file to pages/.
func (m *module) imports(w *writer, dir, runtime string) {
	classes := make([]string, 0, len(m.classes))
	for name := range m.classes {
		classes = append(classes, name)
	}
	sort.Strings(classes)
	for _, name := range classes {
		w.linef("import { %s } from '%s/%s';", name, dir, name)
	}

	if len(m.helpers) > 0 {
		names := make([]string, 0, len(m.helpers))
		for name := range m.helpers {
			names = append(names, name)
		}
		sort.Strings(names)
		w.linef("import { %s } from %s;", strings.Join(names, ", "), jsString(runtime))
	}
}

func (m *module) mergeHelpers(into map[string]bool) {
	for name := range m.helpers {
		into[name] = true
	}
}

// gen is the state for lowering one statement body.
type gen struct {
	v    *validator.Validated
	opts Options
	mod  *module
	w    *writer

	page    *parser.Page        // owner of a page action
	group   *parser.PageActions // owner of a group action
	pageVar string              // expression for the current Playwright page

	// instances maps page and group names to the local holding an
	// instance inside a feature callback. used records the ones read.
	instances map[string]string
	used      map[string]bool

	// tabs is set when the body can replace the current page.
	tabs  bool
	depth int

	// names maps Vero locals and parameters to TypeScript identifiers.
	// taken holds every identifier bound in the emitted body or module.
	names map[string]string
	taken map[string]bool
}

// resetNames starts a fresh body. Class names and runtime helpers are
// module-level bindings, so they are never handed out.
func (g *gen) resetNames() {
	g.names = make(map[string]string)
	g.taken = map[string]bool{"Page": true, "Locator": true}
	for _, p := range g.v.Program.Pages {
		g.taken[p.Name] = true
	}
	for _, pa := range g.v.Program.PageActions {
		g.taken[pa.Name] = true
	}
	for name := range helpers {
		g.taken[name] = true
	}
}

// claim binds base, or base with the first free numeric suffix.
func (g *gen) claim(base string) string {
	if g.taken == nil {
		g.resetNames()
	}
	name := ident(base)
	for n := 2; g.taken[name]; n++ {
		name = fmt.Sprintf("%s%d", base, n)
	}
	g.taken[name] = true
	return name
}

// local is the identifier for the Vero local or parameter name.
func (g *gen) local(name string) string {
	if id, ok := g.names[name]; ok {
		return id
	}
	id := g.claim(name)
	g.names[name] = id
	return id
}

func (g *gen) invalid(pos parser.Pos, format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrInvalidTree, pos.Line, fmt.Sprintf(format, args...))
}

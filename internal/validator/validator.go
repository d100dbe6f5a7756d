// Package validator resolves every reference in a parsed program and
// reports semantic diagnostics. It never modifies the program; the
// resolutions it computes are returned alongside it in a Validated.
package validator

import (
	"github.com/chriserin/vero/internal/diag"
	"github.com/chriserin/vero/internal/lexer"
	"github.com/chriserin/vero/internal/parser"
	"github.com/chriserin/vero/internal/selector"
)

// Options configure validation. Zero values use the default vocabulary
// and suggester.
type Options struct {
	Vocabulary lexer.Vocabulary
	Suggester  diag.Suggester
}

// FieldKey names a field on a page.
type FieldKey struct {
	Page  string
	Field string
}

// TargetRef is a resolved element target. Page and Field are empty for a
// literal text target.
type TargetRef struct {
	Page    string
	Field   string
	Locator selector.Locator
}

// ActionRef is a resolved action call. Owner is a page name, or a
// page-action group name when Group is set.
type ActionRef struct {
	Owner  string
	Group  bool
	Action *parser.ActionDef
}

type BindingScope int

const (
	ScopeLocal BindingScope = iota
	ScopeParam
	ScopePage
)

// Binding is a resolved variable reference. Page is set for ScopePage.
type Binding struct {
	Scope BindingScope
	Page  string
	Name  string
	Type  parser.VarType
}

// FeatureScope lists the pages and page-action groups a feature's bodies
// can reach, in first-use order. Pages referenced without USE are
// appended after the used ones.
type FeatureScope struct {
	Pages  []string
	Groups []string
}

// Validated is a program together with its validation result and the
// resolutions computed while validating it.
type Validated struct {
	Program  *parser.Program
	Result   diag.ValidationResult
	Locators map[FieldKey]selector.Locator

	pages    map[string]*parser.Page
	groups   map[string]*parser.PageActions
	targets  map[*parser.Target]TargetRef
	calls    map[*parser.Call]ActionRef
	vars     map[*parser.VarRef]Binding
	features map[*parser.Feature]*FeatureScope
}

func (v *Validated) Target(t *parser.Target) (TargetRef, bool) {
	r, ok := v.targets[t]
	return r, ok
}

func (v *Validated) Call(c *parser.Call) (ActionRef, bool) {
	r, ok := v.calls[c]
	return r, ok
}

func (v *Validated) Var(r *parser.VarRef) (Binding, bool) {
	b, ok := v.vars[r]
	return b, ok
}

func (v *Validated) Page(name string) (*parser.Page, bool) {
	p, ok := v.pages[name]
	return p, ok
}

func (v *Validated) Group(name string) (*parser.PageActions, bool) {
	g, ok := v.groups[name]
	return g, ok
}

// Scope returns the pages and groups reachable from f.
func (v *Validated) Scope(f *parser.Feature) FeatureScope {
	if s, ok := v.features[f]; ok {
		return *s
	}
	return FeatureScope{}
}

// Validate checks prog. The returned Validated is usable for lookups even
// when the result holds errors.
func Validate(prog *parser.Program, opts Options) *Validated {
	if prog == nil {
		prog = &parser.Program{}
	}
	vocab := opts.Vocabulary
	if len(vocab.Words()) == 0 {
		vocab = lexer.DefaultVocabulary()
	}

	v := &validator{
		keywords:  vocab.Words(),
		suggester: opts.Suggester,
		out: &Validated{
			Program:  prog,
			Locators: make(map[FieldKey]selector.Locator),
			pages:    make(map[string]*parser.Page),
			groups:   make(map[string]*parser.PageActions),
			targets:  make(map[*parser.Target]TargetRef),
			calls:    make(map[*parser.Call]ActionRef),
			vars:     make(map[*parser.VarRef]Binding),
			features: make(map[*parser.Feature]*FeatureScope),
		},
		pages:    make(map[string]*pageSymbols),
		groups:   make(map[string]*groupSymbols),
		features: make(map[string]*parser.Feature),
	}
	v.run(prog)
	v.out.Result = diag.NewValidationResult(v.diags)
	return v.out
}

type validator struct {
	keywords  []string
	suggester diag.Suggester
	out       *Validated
	diags     []diag.Diagnostic

	pages      map[string]*pageSymbols
	pageNames  []string
	groups     map[string]*groupSymbols
	groupNames []string
	features   map[string]*parser.Feature
}

func (v *validator) run(prog *parser.Program) {
	v.collect(prog)
	for _, page := range prog.Pages {
		v.checkPage(page)
	}
	for _, group := range prog.PageActions {
		v.checkGroup(group)
	}
	for _, f := range prog.Features {
		v.checkFeature(f)
	}
}

func (v *validator) report(code diag.Code, pos parser.Pos, msg string) {
	v.diags = append(v.diags, diag.New(code, msg, pos.Line, pos.Col, pos.End))
}

// reportUnresolved reports an unresolved name with suggestions drawn from
// the reserved words and the names in scope.
func (v *validator) reportUnresolved(code diag.Code, pos parser.Pos, name, msg string, inScope []string) {
	candidates := make([]string, 0, len(v.keywords)+len(inScope))
	candidates = append(candidates, inScope...)
	candidates = append(candidates, v.keywords...)
	d := diag.New(code, msg, pos.Line, pos.Col, pos.End).
		WithToken(name).
		WithSuggestions(v.suggester.Suggest(name, candidates))
	v.diags = append(v.diags, d)
}

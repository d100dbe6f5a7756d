package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chriserin/vero/internal/diag"
	"github.com/chriserin/vero/internal/parser"
	"github.com/chriserin/vero/internal/selector"
)

type pageSymbols struct {
	page    *parser.Page
	fields  map[string]*parser.Field
	vars    map[string]*parser.Variable
	actions map[string]*parser.ActionDef
}

func (s *pageSymbols) fieldNames() []string {
	out := make([]string, 0, len(s.page.Fields))
	for _, f := range s.page.Fields {
		out = append(out, f.Name)
	}
	return out
}

func (s *pageSymbols) varNames() []string {
	out := make([]string, 0, len(s.page.Variables))
	for _, v := range s.page.Variables {
		out = append(out, v.Name)
	}
	return out
}

type groupSymbols struct {
	group   *parser.PageActions
	actions map[string]*parser.ActionDef
}

func actionNames(actions []*parser.ActionDef) []string {
	out := make([]string, 0, len(actions))
	for _, a := range actions {
		out = append(out, a.Name)
	}
	return out
}

// reservedNames cannot name a page or page-action group. Each becomes an
// exported class and an import in every spec that uses it.
var reservedNames = func() map[string]bool {
	m := make(map[string]bool)
	for _, w := range strings.Fields(`break case catch class const continue debugger default delete do
		else enum export extends false finally for function if import in instanceof new null
		return super switch this throw true try typeof var void while with yield let static
		implements interface package private protected public await async arguments eval
		undefined NaN Infinity
		Page Locator test expect page context browser download
		Promise String Number Boolean Object Array JSON Math Date Error RegExp Symbol
		console window document globalThis
		fromRegex randomNumber uuid`) {
		m[w] = true
	}
	return m
}()

type decl struct {
	kind string
	name string
	pos  parser.Pos
}

func (d decl) fileKey() string {
	if d.kind == "feature" {
		return "tests/" + strings.ToLower(d.name)
	}
	return "pages/" + strings.ToLower(d.name)
}

// collect builds the top-level symbol tables. Pages, page-action groups
// and features share one namespace; the later declaration of a duplicate
// is reported and dropped.
func (v *validator) collect(prog *parser.Program) {
	var decls []decl
	for _, p := range prog.Pages {
		decls = append(decls, decl{"page", p.Name, p.Pos})
	}
	for _, g := range prog.PageActions {
		decls = append(decls, decl{"page actions", g.Name, g.Pos})
	}
	for _, f := range prog.Features {
		decls = append(decls, decl{"feature", f.Name, f.Pos})
	}
	sort.SliceStable(decls, func(i, j int) bool {
		if decls[i].pos.Line != decls[j].pos.Line {
			return decls[i].pos.Line < decls[j].pos.Line
		}
		return decls[i].pos.Col < decls[j].pos.Col
	})
	first := make(map[string]decl)
	folded := make(map[string]decl)
	for _, d := range decls {
		if prev, ok := first[d.name]; ok {
			v.report(diag.DuplicateIdentifier, d.pos,
				fmt.Sprintf("Duplicate identifier '%s': already declared as %s on line %d", d.name, prev.kind, prev.pos.Line))
			continue
		}
		// Generated file names must stay distinct on case-insensitive
		// file systems.
		key := d.fileKey()
		if prev, ok := folded[key]; ok {
			v.report(diag.DuplicateIdentifier, d.pos,
				fmt.Sprintf("Duplicate identifier '%s': differs only in case from %s '%s' on line %d", d.name, prev.kind, prev.name, prev.pos.Line))
			continue
		}
		if d.kind != "feature" && reservedNames[d.name] {
			v.report(diag.ReservedName, d.pos,
				fmt.Sprintf("'%s' cannot name a %s: it is reserved in generated code", d.name, d.kind))
		}
		first[d.name] = d
		folded[key] = d
	}
	owns := func(kind, name string, pos parser.Pos) bool {
		d := first[name]
		return d.kind == kind && d.pos == pos
	}

	for _, p := range prog.Pages {
		if !owns("page", p.Name, p.Pos) {
			continue
		}
		syms := v.pageSymbols(p)
		for name, f := range syms.fields {
			v.out.Locators[FieldKey{Page: p.Name, Field: name}] = selector.Infer(f.Selector)
		}
		v.pages[p.Name] = syms
		v.pageNames = append(v.pageNames, p.Name)
		v.out.pages[p.Name] = p
	}
	for _, g := range prog.PageActions {
		if !owns("page actions", g.Name, g.Pos) {
			continue
		}
		syms := &groupSymbols{group: g, actions: make(map[string]*parser.ActionDef)}
		seen := make(map[string]parser.Pos)
		for _, a := range g.Actions {
			if prev, dup := seen[a.Name]; dup {
				v.duplicate(a.Name, a.Pos, prev)
				continue
			}
			seen[a.Name] = a.Pos
			syms.actions[a.Name] = a
		}
		v.groups[g.Name] = syms
		v.groupNames = append(v.groupNames, g.Name)
		v.out.groups[g.Name] = g
	}
	for _, f := range prog.Features {
		if owns("feature", f.Name, f.Pos) {
			v.features[f.Name] = f
		}
	}
}

// pageSymbols indexes a page's members. Fields, variables and actions
// share the page namespace.
func (v *validator) pageSymbols(p *parser.Page) *pageSymbols {
	syms := &pageSymbols{
		page:    p,
		fields:  make(map[string]*parser.Field),
		vars:    make(map[string]*parser.Variable),
		actions: make(map[string]*parser.ActionDef),
	}

	type member struct {
		name string
		pos  parser.Pos
		add  func()
	}
	var members []member
	for _, f := range p.Fields {
		members = append(members, member{f.Name, f.Pos, func() { syms.fields[f.Name] = f }})
	}
	for _, vr := range p.Variables {
		members = append(members, member{vr.Name, vr.Pos, func() { syms.vars[vr.Name] = vr }})
	}
	for _, a := range p.Actions {
		members = append(members, member{a.Name, a.Pos, func() { syms.actions[a.Name] = a }})
	}
	sort.SliceStable(members, func(i, j int) bool { return members[i].pos.Line < members[j].pos.Line })

	seen := make(map[string]parser.Pos)
	for _, m := range members {
		if prev, dup := seen[m.name]; dup {
			v.duplicate(m.name, m.pos, prev)
			continue
		}
		seen[m.name] = m.pos
		m.add()
	}
	return syms
}

func (v *validator) duplicate(name string, pos, prev parser.Pos) {
	v.report(diag.DuplicateIdentifier, pos,
		fmt.Sprintf("Duplicate identifier '%s': first declared on line %d", name, prev.Line))
}

func (v *validator) checkPage(p *parser.Page) {
	syms, ok := v.pages[p.Name]
	if !ok || syms.page != p {
		return
	}

	for _, f := range p.Fields {
		if syms.fields[f.Name] == f && strings.TrimSpace(f.Selector) == "" {
			v.report(diag.EmptySelector, f.Pos, fmt.Sprintf("Field '%s' has an empty selector", f.Name))
		}
	}

	for _, vr := range p.Variables {
		if got := literalType(vr.Value); got != vr.Type {
			v.report(diag.TypeMismatch, vr.Pos,
				fmt.Sprintf("Variable '%s' is declared %s but its value is %s", vr.Name, vr.Type, got))
		}
	}

	for _, a := range p.Actions {
		if syms.actions[a.Name] != a {
			continue
		}
		v.checkAction(&bodyContext{page: syms}, a)
	}
}

func (v *validator) checkGroup(g *parser.PageActions) {
	syms, ok := v.groups[g.Name]
	if !ok || syms.group != g {
		return
	}

	target, ok := v.pages[g.For]
	if !ok && g.For != "" {
		d := diag.New(diag.InvalidPageActionsFor,
			fmt.Sprintf("PAGEACTIONS %s is FOR '%s', which is not a page", g.Name, g.For),
			g.ForPos.Line, g.ForPos.Col, g.ForPos.End).
			WithToken(g.For).
			WithSuggestions(v.suggester.Suggest(g.For, v.pageNames))
		v.diags = append(v.diags, d)
	}

	for _, a := range g.Actions {
		if syms.actions[a.Name] != a {
			continue
		}
		v.checkAction(&bodyContext{page: target, group: syms}, a)
	}
}

func (v *validator) checkAction(ctx *bodyContext, a *parser.ActionDef) {
	ctx.action = a
	ctx.scope = newScope(nil)
	for _, param := range a.Params {
		if prev, dup := ctx.scope.lookup(param.Name); dup {
			v.duplicate(param.Name, param.Pos, prev.pos)
			continue
		}
		ctx.scope.declare(param.Name, local{pos: param.Pos, binding: Binding{Scope: ScopeParam, Name: param.Name}})
	}

	v.checkBody(ctx, a.Body)

	if a.Returns != parser.TypeNone && !returns(a.Body) {
		v.report(diag.InvalidReturn, a.Pos,
			fmt.Sprintf("Action '%s' declares RETURNS %s but never returns a value", a.Name, a.Returns))
	}
}

// returns reports whether body can return a value, looking into REPEAT
// bodies.
func returns(body []parser.Statement) bool {
	for _, s := range body {
		switch s := s.(type) {
		case *parser.Return:
			return true
		case *parser.Repeat:
			if returns(s.Body) {
				return true
			}
		}
	}
	return false
}

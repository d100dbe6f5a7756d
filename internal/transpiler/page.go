package transpiler

import (
	"fmt"
	"strings"

	"github.com/chriserin/vero/internal/parser"
	"github.com/chriserin/vero/internal/validator"
)

// pageModule renders a PAGE as a page-object class: one Locator member per
// field, one readonly member per variable and one method per action.
func pageModule(v *validator.Validated, opts Options, p *parser.Page, used map[string]bool) (string, error) {
	mod := newModule(p.Name)
	body := &writer{indent: 1}
	g := &gen{v: v, opts: opts, mod: mod, w: body, page: p, pageVar: "this.page"}

	body.line("readonly page: Page;")
	for _, f := range p.Fields {
		body.linef("readonly %s: Locator;", member(f.Name))
	}
	for _, vr := range p.Variables {
		value, err := g.expr(vr.Value)
		if err != nil {
			return "", fmt.Errorf("variable %s: %w", vr.Name, err)
		}
		body.linef("readonly %s = %s;", member(vr.Name), value)
	}

	body.line("")
	body.open("constructor(page: Page) {")
	body.line("this.page = page;")
	for _, f := range p.Fields {
		loc, ok := v.Locators[validator.FieldKey{Page: p.Name, Field: f.Name}]
		if !ok {
			return "", g.invalid(f.Pos, "no locator for field %q", f.Name)
		}
		body.linef("this.%s = page.%s;", member(f.Name), locatorCall(loc))
	}
	body.close("}")

	for _, a := range p.Actions {
		if err := g.action(a); err != nil {
			return "", fmt.Errorf("action %s: %w", a.Name, err)
		}
	}

	types := []string{"Page"}
	if len(p.Fields) > 0 {
		types = []string{"Locator", "Page"}
	}
	mod.mergeHelpers(used)
	return classModule(mod, opts, types, p.Name, body), nil
}

// groupModule renders a PAGEACTIONS block as a class holding an instance
// of the page it is FOR.
func groupModule(v *validator.Validated, opts Options, pa *parser.PageActions, used map[string]bool) (string, error) {
	if _, ok := v.Page(pa.For); !ok {
		return "", fmt.Errorf("%w: line %d: %q is not a page", ErrInvalidTree, pa.Line, pa.For)
	}
	mod := newModule(pa.Name)
	mod.useClass(pa.For)
	body := &writer{indent: 1}
	g := &gen{v: v, opts: opts, mod: mod, w: body, group: pa, pageVar: "this.page"}
	target := instanceName(pa.For)

	body.line("readonly page: Page;")
	body.linef("readonly %s: %s;", target, pa.For)
	body.line("")
	body.open("constructor(page: Page) {")
	body.line("this.page = page;")
	body.linef("this.%s = new %s(page);", target, pa.For)
	body.close("}")

	for _, a := range pa.Actions {
		if err := g.action(a); err != nil {
			return "", fmt.Errorf("action %s: %w", a.Name, err)
		}
	}

	mod.mergeHelpers(used)
	return classModule(mod, opts, []string{"Page"}, pa.Name, body), nil
}

func (g *gen) action(a *parser.ActionDef) error {
	g.resetNames()
	params := make([]string, len(a.Params))
	for i, p := range a.Params {
		params[i] = g.local(p.Name) + ": string"
	}
	g.w.line("")
	g.w.openf("async %s(%s): Promise<%s> {", member(a.Name), strings.Join(params, ", "), tsType(a.Returns))
	if err := g.body(a.Body); err != nil {
		return err
	}
	if a.Returns != parser.TypeNone && !endsWithReturn(a.Body) {
		g.w.linef("throw new Error(%s);", jsString("action "+a.Name+" did not return a value"))
	}
	g.w.close("}")
	return nil
}

// endsWithReturn reports whether the last top-level statement of body is a
// RETURN, so TypeScript sees every path return.
func endsWithReturn(body []parser.Statement) bool {
	return len(body) > 0 && body[len(body)-1].Kind() == parser.StmtReturn
}

func classModule(mod *module, opts Options, types []string, name string, body *writer) string {
	var w writer
	if mod.expect {
		names := []string{"expect"}
		for _, t := range types {
			names = append(names, "type "+t)
		}
		w.linef("import { %s } from '@playwright/test';", strings.Join(names, ", "))
	} else {
		w.linef("import type { %s } from '@playwright/test';", strings.Join(types, ", "))
	}
	mod.imports(&w, ".", opts.RuntimeImport)
	w.line("")
	w.linef("export class %s {", name)
	w.raw(body.String())
	w.line("}")
	return w.String()
}

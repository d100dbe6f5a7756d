package validator

import (
	"fmt"
	"unicode/utf8"

	"github.com/chriserin/vero/internal/diag"
	"github.com/chriserin/vero/internal/parser"
	"github.com/chriserin/vero/internal/selector"
)

// qualifierPos is the span of the page part of `Page.name` starting at pos.
func qualifierPos(pos parser.Pos, qualifier string) parser.Pos {
	return parser.Pos{Line: pos.Line, Col: pos.Col, End: pos.Col + utf8.RuneCountInString(qualifier)}
}

// contextPages are the pages bare names resolve against: the owning page
// inside an action, the used pages inside a feature.
func (v *validator) contextPages(ctx *bodyContext) []*pageSymbols {
	if ctx.page != nil {
		return []*pageSymbols{ctx.page}
	}
	if ctx.feature == nil {
		return nil
	}
	out := make([]*pageSymbols, 0, len(ctx.feature.pageOrder))
	for _, name := range ctx.feature.pageOrder {
		out = append(out, v.pages[name])
	}
	return out
}

// usePage notes a qualified reference to page. Inside a feature a page
// that was not brought in with USE is reported once and added to the
// feature's reachable pages.
func (v *validator) usePage(ctx *bodyContext, page string, pos parser.Pos) {
	fc := ctx.feature
	if fc == nil {
		return
	}
	if !fc.usedPages[page] && !fc.warned[page] {
		fc.warned[page] = true
		v.report(diag.PageNotUsed, pos, fmt.Sprintf("Page '%s' is used in feature %s without USE %s", page, fc.feature.Name, page))
	}
	fc.reach(page, false)
}

func (v *validator) useGroup(ctx *bodyContext, group string, pos parser.Pos) {
	fc := ctx.feature
	if fc == nil {
		return
	}
	if !fc.usedGroups[group] && !fc.warned[group] {
		fc.warned[group] = true
		v.report(diag.PageNotUsed, pos, fmt.Sprintf("Page actions '%s' are used in feature %s without USE %s", group, fc.feature.Name, group))
	}
	fc.reach(group, true)
}

func (v *validator) target(ctx *bodyContext, t *parser.Target) {
	if t == nil {
		return
	}
	if t.Literal {
		v.out.targets[t] = TargetRef{Locator: selector.Locator{Strategy: selector.Text, Value: t.Text}}
		return
	}

	if t.Page != "" {
		syms, ok := v.pages[t.Page]
		if !ok {
			v.reportUnresolved(diag.UndefinedPage, qualifierPos(t.Pos, t.Page), t.Page,
				fmt.Sprintf("Undefined page '%s'", t.Page), v.pageNames)
			return
		}
		v.usePage(ctx, t.Page, qualifierPos(t.Pos, t.Page))
		if _, ok := syms.fields[t.Name]; !ok {
			v.reportUnresolved(diag.UndefinedField, t.Pos, t.Name,
				fmt.Sprintf("Page '%s' has no field '%s'", t.Page, t.Name), syms.fieldNames())
			return
		}
		v.recordTarget(t, t.Page)
		return
	}

	var candidates []string
	for _, syms := range v.contextPages(ctx) {
		if _, ok := syms.fields[t.Name]; ok {
			v.recordTarget(t, syms.page.Name)
			return
		}
		candidates = append(candidates, syms.fieldNames()...)
	}
	v.reportUnresolved(diag.UndefinedField, t.Pos, t.Name, fmt.Sprintf("Undefined field '%s'", t.Name), candidates)
}

func (v *validator) recordTarget(t *parser.Target, page string) {
	key := FieldKey{Page: page, Field: t.Name}
	v.out.targets[t] = TargetRef{Page: page, Field: t.Name, Locator: v.out.Locators[key]}
}

// call resolves an action call and checks its arguments. It returns nil
// when the action cannot be found.
func (v *validator) call(ctx *bodyContext, c *parser.Call) *parser.ActionDef {
	if c == nil {
		return nil
	}
	for _, arg := range c.Args {
		v.expr(ctx, arg)
	}

	ref, ok := v.resolveCall(ctx, c)
	if !ok {
		return nil
	}
	v.out.calls[c] = ref

	if got, want := len(c.Args), len(ref.Action.Params); got != want {
		v.report(diag.ArgumentCountMismatch, c.Pos,
			fmt.Sprintf("Action '%s' takes %d argument(s), got %d", ref.Action.Name, want, got))
	}
	return ref.Action
}

func (v *validator) resolveCall(ctx *bodyContext, c *parser.Call) (ActionRef, bool) {
	if c.Page != "" {
		qpos := qualifierPos(c.Pos, c.Page)
		if syms, ok := v.pages[c.Page]; ok {
			v.usePage(ctx, c.Page, qpos)
			if a, ok := syms.actions[c.Action]; ok {
				return ActionRef{Owner: c.Page, Action: a}, true
			}
			v.reportUnresolved(diag.UndefinedAction, c.Pos, c.Action,
				fmt.Sprintf("Page '%s' has no action '%s'", c.Page, c.Action), actionNames(syms.page.Actions))
			return ActionRef{}, false
		}
		if syms, ok := v.groups[c.Page]; ok {
			v.useGroup(ctx, c.Page, qpos)
			if a, ok := syms.actions[c.Action]; ok {
				return ActionRef{Owner: c.Page, Group: true, Action: a}, true
			}
			v.reportUnresolved(diag.UndefinedAction, c.Pos, c.Action,
				fmt.Sprintf("Page actions '%s' have no action '%s'", c.Page, c.Action), actionNames(syms.group.Actions))
			return ActionRef{}, false
		}
		var candidates []string
		candidates = append(candidates, v.pageNames...)
		candidates = append(candidates, v.groupNames...)
		v.reportUnresolved(diag.UndefinedPageActions, qpos, c.Page,
			fmt.Sprintf("'%s' is neither a page nor page actions", c.Page), candidates)
		return ActionRef{}, false
	}

	var candidates []string
	if ctx.group != nil {
		if a, ok := ctx.group.actions[c.Action]; ok {
			return ActionRef{Owner: ctx.group.group.Name, Group: true, Action: a}, true
		}
		candidates = append(candidates, actionNames(ctx.group.group.Actions)...)
	}
	for _, syms := range v.contextPages(ctx) {
		if a, ok := syms.actions[c.Action]; ok {
			return ActionRef{Owner: syms.page.Name, Action: a}, true
		}
		candidates = append(candidates, actionNames(syms.page.Actions)...)
	}
	if ctx.feature != nil {
		for _, name := range ctx.feature.groupOrder {
			syms := v.groups[name]
			if a, ok := syms.actions[c.Action]; ok {
				return ActionRef{Owner: name, Group: true, Action: a}, true
			}
			candidates = append(candidates, actionNames(syms.group.Actions)...)
		}
	}
	v.reportUnresolved(diag.UndefinedAction, c.Pos, c.Action, fmt.Sprintf("Undefined action '%s'", c.Action), candidates)
	return ActionRef{}, false
}

// expr resolves the references in e and returns its static type, or
// TypeNone when the type is unknown.
func (v *validator) expr(ctx *bodyContext, e parser.Expr) parser.VarType {
	switch e := e.(type) {
	case nil:
		return parser.TypeNone
	case *parser.StringLit, *parser.Generate, *parser.UUID:
		return parser.TypeText
	case *parser.NumberLit:
		return parser.TypeNumber
	case *parser.BoolLit:
		return parser.TypeFlag
	case *parser.ListLit:
		for _, item := range e.Items {
			v.expr(ctx, item)
		}
		return parser.TypeList
	case *parser.RandomNumber:
		v.number(ctx, e.Min, "RANDOM NUMBER")
		v.number(ctx, e.Max, "RANDOM NUMBER")
		return parser.TypeNumber
	case *parser.VarRef:
		b, ok := v.varRef(ctx, e)
		if !ok {
			return parser.TypeNone
		}
		v.out.vars[e] = b
		return b.Type
	}
	return parser.TypeNone
}

func (v *validator) varRef(ctx *bodyContext, r *parser.VarRef) (Binding, bool) {
	if r.Page != "" {
		syms, ok := v.pages[r.Page]
		if !ok {
			v.reportUnresolved(diag.UndefinedPage, qualifierPos(r.Pos, r.Page), r.Page,
				fmt.Sprintf("Undefined page '%s'", r.Page), v.pageNames)
			return Binding{}, false
		}
		v.usePage(ctx, r.Page, qualifierPos(r.Pos, r.Page))
		vr, ok := syms.vars[r.Name]
		if !ok {
			v.reportUnresolved(diag.UndefinedVariable, r.Pos, r.Name,
				fmt.Sprintf("Page '%s' has no variable '%s'", r.Page, r.Name), syms.varNames())
			return Binding{}, false
		}
		return Binding{Scope: ScopePage, Page: r.Page, Name: r.Name, Type: vr.Type}, true
	}

	if l, ok := ctx.scope.lookup(r.Name); ok {
		return l.binding, true
	}
	candidates := ctx.scope.visible()
	for _, syms := range v.contextPages(ctx) {
		if vr, ok := syms.vars[r.Name]; ok {
			return Binding{Scope: ScopePage, Page: syms.page.Name, Name: r.Name, Type: vr.Type}, true
		}
		candidates = append(candidates, syms.varNames()...)
	}
	v.reportUnresolved(diag.UndefinedVariable, r.Pos, r.Name, fmt.Sprintf("Undefined variable '%s'", r.Name), candidates)
	return Binding{}, false
}

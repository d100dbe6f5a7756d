package validator

import (
	"fmt"

	"github.com/chriserin/vero/internal/diag"
	"github.com/chriserin/vero/internal/parser"
)

func (v *validator) checkFeature(f *parser.Feature) {
	fc := &featureContext{
		feature:    f,
		scope:      &FeatureScope{},
		usedPages:  make(map[string]bool),
		usedGroups: make(map[string]bool),
		warned:     make(map[string]bool),
	}
	v.out.features[f] = fc.scope

	seenUse := make(map[string]parser.Pos)
	for _, use := range f.Uses {
		if prev, dup := seenUse[use.Name]; dup {
			v.duplicate(use.Name, use.Pos, prev)
			continue
		}
		seenUse[use.Name] = use.Pos
		v.use(fc, use, map[string]bool{f.Name: true})
	}

	// Tabs opened by BEFORE EACH are open in every scenario. AFTER EACH
	// runs after a scenario that may have opened its own.
	eachTab := false
	for _, h := range f.Hooks {
		ctx := &bodyContext{feature: fc, hook: h, scope: newScope(nil), tabOpen: h.Kind == parser.AfterEach}
		v.checkBody(ctx, h.Body)
		if h.Kind == parser.BeforeEach && ctx.tabOpen {
			eachTab = true
		}
	}

	seenScenario := make(map[string]parser.Pos)
	for _, s := range f.Scenarios {
		if prev, dup := seenScenario[s.Name]; dup {
			v.report(diag.DuplicateIdentifier, s.Pos,
				fmt.Sprintf("Duplicate scenario %q in feature %s: first declared on line %d", s.Name, f.Name, prev.Line))
		} else {
			seenScenario[s.Name] = s.Pos
		}
		if len(s.Body) == 0 {
			v.report(diag.EmptyScenario, s.Pos, fmt.Sprintf("Scenario %q has no steps", s.Name))
		}
		ctx := &bodyContext{feature: fc, scope: newScope(nil), tabOpen: eachTab}
		v.checkBody(ctx, s.Body)
	}
}

// use brings a page, a page-action group (with its page) or another
// feature's uses into fc. visiting guards against cycles between features.
func (v *validator) use(fc *featureContext, use parser.Use, visiting map[string]bool) {
	if _, ok := v.pages[use.Name]; ok {
		fc.addPage(use.Name)
		return
	}
	if g, ok := v.groups[use.Name]; ok {
		fc.addGroup(use.Name)
		if _, ok := v.pages[g.group.For]; ok {
			fc.addPage(g.group.For)
		}
		return
	}
	if other, ok := v.features[use.Name]; ok {
		if visiting[use.Name] {
			return
		}
		visiting[use.Name] = true
		for _, u := range other.Uses {
			v.use(fc, u, visiting)
		}
		return
	}

	var candidates []string
	candidates = append(candidates, v.pageNames...)
	candidates = append(candidates, v.groupNames...)
	for _, f := range v.out.Program.Features {
		if v.features[f.Name] == f {
			candidates = append(candidates, f.Name)
		}
	}
	v.reportUnresolved(diag.UndefinedPage, use.Pos, use.Name,
		fmt.Sprintf("USE '%s' names no page, page actions or feature", use.Name), candidates)
}

func (v *validator) checkBody(ctx *bodyContext, body []parser.Statement) {
	unreachable := false
	for i, s := range body {
		v.checkStatement(ctx, s)
		if !unreachable && s.Kind() == parser.StmtReturn && i+1 < len(body) {
			unreachable = true
			v.report(diag.UnreachableStatement, body[i+1].Position(), "Statement after RETURN is never executed")
		}
	}
}

func (v *validator) checkStatement(ctx *bodyContext, stmt parser.Statement) {
	switch s := stmt.(type) {
	case *parser.Click:
		v.target(ctx, s.Target)
	case *parser.Fill:
		v.target(ctx, s.Target)
		v.expr(ctx, s.Value)
	case *parser.Open:
		v.expr(ctx, s.URL)
		if s.NewTab && v.tabAllowed(ctx, s.Pos, "OPEN ... IN NEW TAB") {
			ctx.tabOpen = true
		}
	case *parser.Verify:
		if s.Subject == parser.SubjectTarget {
			v.target(ctx, s.Target)
		}
		v.expr(ctx, s.Value)
	case *parser.Do:
		v.call(ctx, s.Call)
	case *parser.Wait:
		switch s.Mode {
		case parser.WaitDuration:
			v.number(ctx, s.Duration, "WAIT")
		case parser.WaitURL:
			v.expr(ctx, s.URL)
		case parser.WaitTarget:
			v.target(ctx, s.Target)
		}
	case *parser.Check:
		v.target(ctx, s.Target)
	case *parser.Hover:
		v.target(ctx, s.Target)
	case *parser.Press:
		v.expr(ctx, s.Key)
		if s.Target != nil {
			v.target(ctx, s.Target)
		}
	case *parser.Select:
		v.expr(ctx, s.Value)
		v.target(ctx, s.Target)
	case *parser.Upload:
		v.expr(ctx, s.File)
		v.target(ctx, s.Target)
	case *parser.Log:
		v.expr(ctx, s.Message)
	case *parser.Scroll:
		if s.Direction == parser.ScrollToTarget {
			v.target(ctx, s.Target)
		}
	case *parser.Download:
		v.target(ctx, s.Target)
	case *parser.Cookie:
		v.browserState(ctx, s.Op, s.Key, s.Value, s.Into, s.IntoPos)
	case *parser.Storage:
		v.browserState(ctx, s.Op, s.Key, s.Value, s.Into, s.IntoPos)
	case *parser.Tab:
		v.checkTab(ctx, s)
	case *parser.Repeat:
		v.number(ctx, s.Count, "REPEAT")
		outer := ctx.scope
		ctx.scope = newScope(outer)
		v.checkBody(ctx, s.Body)
		ctx.scope = outer
	case *parser.Let:
		v.checkLet(ctx, s)
	case *parser.Return:
		v.checkReturn(ctx, s)
	}
}

func (v *validator) browserState(ctx *bodyContext, op parser.StateOp, key, value parser.Expr, into string, intoPos parser.Pos) {
	v.expr(ctx, key)
	v.expr(ctx, value)
	if op == parser.StateGet {
		v.declare(ctx, into, intoPos, parser.TypeText)
	}
}

// tabAllowed reports INVALID_TAB_CONTEXT for tab operations inside action
// definitions and BEFORE/AFTER ALL hooks, which have no per-test page.
func (v *validator) tabAllowed(ctx *bodyContext, pos parser.Pos, what string) bool {
	switch {
	case ctx.action != nil:
		v.report(diag.InvalidTabContext, pos, fmt.Sprintf("%s is not allowed inside action '%s'", what, ctx.action.Name))
		return false
	case ctx.inAllHook():
		v.report(diag.InvalidTabContext, pos, fmt.Sprintf("%s is not allowed in %s", what, ctx.hook.Kind))
		return false
	}
	return true
}

func (v *validator) checkTab(ctx *bodyContext, s *parser.Tab) {
	switch s.Op {
	case parser.TabNew:
		v.expr(ctx, s.URL)
		if v.tabAllowed(ctx, s.Pos, "SWITCH TO NEW TAB") {
			ctx.tabOpen = true
		}
	case parser.TabSwitch:
		v.number(ctx, s.Index, "SWITCH TO TAB")
		if !v.tabAllowed(ctx, s.Pos, "SWITCH TO TAB") {
			return
		}
		if !ctx.tabOpen {
			v.report(diag.InvalidTabContext, s.Pos, "SWITCH TO TAB used before any new tab was opened")
			return
		}
		if n, ok := s.Index.(*parser.NumberLit); ok && (n.Value < 1 || n.Value != float64(int(n.Value))) {
			v.report(diag.InvalidTabContext, n.Pos, fmt.Sprintf("Tab number must be a whole number from 1, got %s", n.Raw))
		}
	case parser.TabClose:
		if v.tabAllowed(ctx, s.Pos, "CLOSE TAB") && !ctx.tabOpen {
			v.report(diag.InvalidTabContext, s.Pos, "CLOSE TAB used before any new tab was opened")
		}
	}
}

func (v *validator) checkLet(ctx *bodyContext, s *parser.Let) {
	if s.Call != nil {
		if a := v.call(ctx, s.Call); a != nil {
			switch {
			case a.Returns == parser.TypeNone:
				v.report(diag.TypeMismatch, s.Call.Pos, fmt.Sprintf("Action '%s' does not return a value", a.Name))
			case a.Returns != s.Type:
				v.report(diag.TypeMismatch, s.Call.Pos,
					fmt.Sprintf("'%s' is declared %s but action '%s' returns %s", s.Name, s.Type, a.Name, a.Returns))
			}
		}
	} else if got := v.expr(ctx, s.Value); got != parser.TypeNone && got != s.Type {
		v.report(diag.TypeMismatch, s.Value.Position(),
			fmt.Sprintf("'%s' is declared %s but its value is %s", s.Name, s.Type, got))
	}
	v.declare(ctx, s.Name, s.NamePos, s.Type)
}

func (v *validator) checkReturn(ctx *bodyContext, s *parser.Return) {
	got := v.expr(ctx, s.Value)
	switch {
	case ctx.action == nil:
		v.report(diag.InvalidReturn, s.Pos, "RETURN is only allowed inside an action")
	case ctx.action.Returns == parser.TypeNone:
		v.report(diag.InvalidReturn, s.Pos, fmt.Sprintf("Action '%s' has no RETURNS clause", ctx.action.Name))
	case got != parser.TypeNone && got != ctx.action.Returns:
		v.report(diag.TypeMismatch, s.Value.Position(),
			fmt.Sprintf("Action '%s' returns %s but the value is %s", ctx.action.Name, ctx.action.Returns, got))
	}
}

// declare adds a local to the innermost scope, reporting a name already
// visible as a local or parameter.
func (v *validator) declare(ctx *bodyContext, name string, pos parser.Pos, typ parser.VarType) {
	if prev, dup := ctx.scope.lookup(name); dup {
		v.duplicate(name, pos, prev.pos)
		return
	}
	ctx.scope.declare(name, local{pos: pos, binding: Binding{Scope: ScopeLocal, Name: name, Type: typ}})
}

func (v *validator) number(ctx *bodyContext, e parser.Expr, what string) {
	if got := v.expr(ctx, e); got != parser.TypeNone && got != parser.TypeNumber {
		v.report(diag.TypeMismatch, e.Position(), fmt.Sprintf("%s expects a NUMBER, got %s", what, got))
	}
}

func literalType(e parser.Expr) parser.VarType {
	switch e.(type) {
	case *parser.StringLit:
		return parser.TypeText
	case *parser.NumberLit:
		return parser.TypeNumber
	case *parser.BoolLit:
		return parser.TypeFlag
	case *parser.ListLit:
		return parser.TypeList
	}
	return parser.TypeNone
}

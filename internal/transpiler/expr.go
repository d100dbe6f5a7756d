package transpiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chriserin/vero/internal/parser"
	"github.com/chriserin/vero/internal/selector"
	"github.com/chriserin/vero/internal/validator"
)

// locatorCall is the Playwright call that finds l, without its receiver.
func locatorCall(l selector.Locator) string {
	switch l.Strategy {
	case selector.Role:
		if l.Name != "" {
			return fmt.Sprintf("getByRole(%s, { name: %s })", jsString(l.Value), jsString(l.Name))
		}
		return fmt.Sprintf("getByRole(%s)", jsString(l.Value))
	case selector.Text:
		return fmt.Sprintf("getByText(%s)", jsString(l.Value))
	case selector.Label:
		return fmt.Sprintf("getByLabel(%s)", jsString(l.Value))
	case selector.Placeholder:
		return fmt.Sprintf("getByPlaceholder(%s)", jsString(l.Value))
	case selector.TestID:
		return fmt.Sprintf("getByTestId(%s)", jsString(l.Value))
	case selector.XPath:
		return fmt.Sprintf("locator(%s)", jsString("xpath="+l.Value))
	}
	return fmt.Sprintf("locator(%s)", jsString(l.Value))
}

// owner is the expression for an instance of the page or group name as
// seen from the body being generated.
func (g *gen) owner(name string, group bool) string {
	switch {
	case g.page != nil && !group && name == g.page.Name:
		return "this"
	case g.group != nil && group && name == g.group.Name:
		return "this"
	case g.group != nil && !group && name == g.group.For:
		return "this." + instanceName(name)
	}
	if local, ok := g.instances[name]; ok && !g.tabs {
		g.used[name] = true
		return local
	}
	g.mod.useClass(name)
	return fmt.Sprintf("new %s(%s)", name, g.pageVar)
}

func (g *gen) target(t *parser.Target) (string, error) {
	ref, ok := g.v.Target(t)
	if !ok {
		return "", g.invalid(t.Pos, "unresolved target %q", t.Name)
	}
	if ref.Page == "" {
		return g.pageVar + "." + locatorCall(ref.Locator), nil
	}
	return g.owner(ref.Page, false) + "." + member(ref.Field), nil
}

// typeOf is the static type of e. Parameters are untyped and arrive as
// strings, so they count as TEXT.
func (g *gen) typeOf(e parser.Expr) parser.VarType {
	switch e := e.(type) {
	case *parser.StringLit, *parser.Generate, *parser.UUID:
		return parser.TypeText
	case *parser.NumberLit, *parser.RandomNumber:
		return parser.TypeNumber
	case *parser.BoolLit:
		return parser.TypeFlag
	case *parser.ListLit:
		return parser.TypeList
	case *parser.VarRef:
		b, ok := g.v.Var(e)
		if !ok {
			return parser.TypeNone
		}
		if b.Scope == validator.ScopeParam || b.Type == parser.TypeNone {
			return parser.TypeText
		}
		return b.Type
	}
	return parser.TypeNone
}

func (g *gen) expr(e parser.Expr) (string, error) {
	switch e := e.(type) {
	case *parser.StringLit:
		return jsString(e.Value), nil
	case *parser.NumberLit:
		return e.Raw, nil
	case *parser.BoolLit:
		return strconv.FormatBool(e.Value), nil
	case *parser.ListLit:
		items := make([]string, len(e.Items))
		for i, item := range e.Items {
			s, err := g.expr(item)
			if err != nil {
				return "", err
			}
			items[i] = s
		}
		return "[" + strings.Join(items, ", ") + "]", nil
	case *parser.VarRef:
		return g.varRef(e)
	case *parser.Generate:
		return g.mod.call("fromRegex", jsString(e.Pattern))
	case *parser.RandomNumber:
		lo, err := g.number(e.Min)
		if err != nil {
			return "", err
		}
		hi, err := g.number(e.Max)
		if err != nil {
			return "", err
		}
		return g.mod.call("randomNumber", lo, hi)
	case *parser.UUID:
		return g.mod.call("uuid")
	case nil:
		return "", fmt.Errorf("%w: missing expression", ErrInvalidTree)
	}
	return "", g.invalid(e.Position(), "unsupported expression %T", e)
}

func (g *gen) varRef(r *parser.VarRef) (string, error) {
	b, ok := g.v.Var(r)
	if !ok {
		return "", g.invalid(r.Pos, "unresolved variable %q", r.Name)
	}
	if b.Scope == validator.ScopePage {
		return g.owner(b.Page, false) + "." + member(b.Name), nil
	}
	return g.local(b.Name), nil
}

// text renders e where Playwright expects a string.
func (g *gen) text(e parser.Expr) (string, error) {
	s, err := g.expr(e)
	if err != nil {
		return "", err
	}
	if g.typeOf(e) == parser.TypeText {
		return s, nil
	}
	return "String(" + s + ")", nil
}

// number renders e where a number is expected.
func (g *gen) number(e parser.Expr) (string, error) {
	s, err := g.expr(e)
	if err != nil {
		return "", err
	}
	if g.typeOf(e) == parser.TypeNumber {
		return s, nil
	}
	return "Number(" + s + ")", nil
}

// args renders call arguments. Action parameters are strings.
func (g *gen) args(es []parser.Expr) (string, error) {
	out := make([]string, len(es))
	for i, e := range es {
		s, err := g.text(e)
		if err != nil {
			return "", err
		}
		out[i] = s
	}
	return strings.Join(out, ", "), nil
}

func (g *gen) call(c *parser.Call) (string, error) {
	ref, ok := g.v.Call(c)
	if !ok {
		return "", g.invalid(c.Pos, "unresolved action %q", c.Action)
	}
	args, err := g.args(c.Args)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("await %s.%s(%s)", g.owner(ref.Owner, ref.Group), member(ref.Action.Name), args), nil
}

// tsType is the TypeScript type of a Vero value type.
func tsType(t parser.VarType) string {
	switch t {
	case parser.TypeText:
		return "string"
	case parser.TypeNumber:
		return "number"
	case parser.TypeFlag:
		return "boolean"
	case parser.TypeList:
		return "unknown[]"
	}
	return "void"
}

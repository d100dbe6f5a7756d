// Package parser builds the Vero AST from a token stream. Parsing never
// stops at the first problem: every error is recorded as a diagnostic and
// the parser skips to the next statement or block boundary.
package parser

import (
	"fmt"
	"strconv"

	"github.com/chriserin/vero/internal/diag"
	"github.com/chriserin/vero/internal/lexer"
)

var (
	topLevel = set("PAGE", "PAGEACTIONS", "FEATURE")

	// statementStarts are the keywords that can begin a statement.
	statementStarts = set(
		"CLICK", "FILL", "OPEN", "VERIFY", "DO", "WAIT", "REFRESH", "CHECK",
		"UNCHECK", "HOVER", "PRESS", "SELECT", "UPLOAD", "LOG", "TAKE", "SCROLL",
		"DOWNLOAD", "SET", "GET", "CLEAR", "SWITCH", "CLOSE", "REPEAT",
		"TEXT", "NUMBER", "FLAG", "LIST", "RETURN",
	)

	// A body that runs into one of these was never closed.
	bodyStops    = set("PAGE", "PAGEACTIONS", "FEATURE", "USE", "BEFORE", "AFTER", "SCENARIO", "FIELD")
	featureStops = set("PAGE", "PAGEACTIONS", "FEATURE", "FIELD")
	pageStops    = set("PAGE", "PAGEACTIONS", "FEATURE", "USE", "BEFORE", "AFTER", "SCENARIO")
)

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// Options configure a parse. The zero value uses the default suggester.
type Options struct {
	Suggester diag.Suggester
}

// Parse builds a Program from tokens. The program holds every declaration
// that could be recovered, even when diagnostics are returned.
func Parse(tokens []lexer.Token) (*Program, []diag.Diagnostic) {
	return ParseWith(tokens, Options{})
}

// ParseWith is Parse with explicit options.
func ParseWith(tokens []lexer.Token, opts Options) (*Program, []diag.Diagnostic) {
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != lexer.EOF {
		tokens = append(append([]lexer.Token(nil), tokens...), lexer.Token{Kind: lexer.EOF})
	}
	p := &parser{tokens: tokens, suggester: opts.Suggester}
	return p.parseProgram(), p.diags
}

// ParseSource lexes and parses source with default settings, returning
// lexical and syntax diagnostics in that order.
func ParseSource(source string) (*Program, []diag.Diagnostic) {
	tokens, lexDiags := lexer.Tokenize(source)
	prog, parseDiags := Parse(tokens)
	return prog, append(lexDiags, parseDiags...)
}

type parser struct {
	tokens    []lexer.Token
	pos       int
	diags     []diag.Diagnostic
	suggester diag.Suggester
}

func (p *parser) parseProgram() *Program {
	prog := &Program{}
	for !p.atEnd() {
		tok := p.peek()
		switch {
		case tok.Is("PAGE"):
			if page := p.parsePage(); page != nil {
				prog.Pages = append(prog.Pages, page)
			}
		case tok.Is("PAGEACTIONS"):
			if group := p.parsePageActions(); group != nil {
				prog.PageActions = append(prog.PageActions, group)
			}
		case tok.Is("FEATURE"):
			if f := p.parseFeature(); f != nil {
				prog.Features = append(prog.Features, f)
			}
		case tok.Kind == lexer.Identifier:
			p.unknownKeyword(tok, "Expected PAGE, PAGEACTIONS or FEATURE", sortedKeys(topLevel))
			p.syncTopLevel()
		default:
			p.errorAt(diag.UnexpectedToken, tok, fmt.Sprintf("Unexpected %s; expected PAGE, PAGEACTIONS or FEATURE", tok))
			p.syncTopLevel()
		}
	}
	return prog
}

// ── Declarations ──

func (p *parser) parsePage() *Page {
	p.advance() // PAGE
	name, ok := p.expectName("page name after PAGE")
	if !ok {
		p.syncTopLevel()
		return nil
	}
	page := &Page{Pos: posOf(name), Name: name.Text}
	open, _ := p.expectOpenBrace("PAGE " + name.Text)

	for {
		tok := p.peek()
		switch {
		case tok.Is("}"):
			p.advance()
			return page
		case tok.Kind == lexer.EOF || (tok.Kind == lexer.Keyword && pageStops[tok.Text]):
			p.missingBrace(open, "PAGE "+page.Name)
			return page
		case tok.Is("FIELD"):
			if f := p.parseField(); f != nil {
				page.Fields = append(page.Fields, f)
			}
		case isTypeKeyword(tok):
			if v := p.parseVariable(); v != nil {
				page.Variables = append(page.Variables, v)
			}
		case tok.Kind == lexer.Identifier:
			if a := p.parseActionDef(); a != nil {
				page.Actions = append(page.Actions, a)
			}
		default:
			p.errorAt(diag.UnexpectedToken, tok, fmt.Sprintf("Unexpected %s in PAGE %s; expected FIELD, a variable or an action", tok, page.Name))
			p.syncMember(pageStops)
		}
	}
}

func (p *parser) parseField() *Field {
	p.advance() // FIELD
	name, ok := p.expectName("field name after FIELD")
	if !ok {
		p.syncMember(pageStops)
		return nil
	}
	if !p.expectOperator("=", "after field name") {
		p.syncMember(pageStops)
		return nil
	}
	sel := p.peek()
	if sel.Kind != lexer.String {
		p.errorAt(diag.IncompleteStatement, sel, fmt.Sprintf("Expected a selector string for field '%s'", name.Text))
		p.syncMember(pageStops)
		return nil
	}
	p.advance()
	return &Field{Pos: posOf(name), Name: name.Text, Selector: sel.Text}
}

func (p *parser) parseVariable() *Variable {
	typ := varType(p.advance())
	name, ok := p.expectName("variable name")
	if !ok {
		p.syncMember(pageStops)
		return nil
	}
	if !p.expectOperator("=", "after variable name") {
		p.syncMember(pageStops)
		return nil
	}
	value := p.parseLiteral()
	if value == nil {
		p.syncMember(pageStops)
		return nil
	}
	return &Variable{Pos: posOf(name), Type: typ, Name: name.Text, Value: value}
}

// parseActionDef parses `name [WITH a, b] [RETURNS TYPE] { ... }`.
func (p *parser) parseActionDef() *ActionDef {
	name := p.advance()
	action := &ActionDef{Pos: posOf(name), Name: name.Text}

	if !p.check("WITH") && !p.check("RETURNS") && !p.check("{") {
		p.unknownKeyword(name, fmt.Sprintf("Unknown page member '%s'", name.Text), []string{"FIELD", "TEXT", "NUMBER", "FLAG", "LIST"})
		p.syncMember(pageStops)
		return nil
	}

	if p.match("WITH") {
		for {
			param := p.peek()
			if param.Kind != lexer.Identifier {
				p.errorAt(diag.IncompleteStatement, param, fmt.Sprintf("Expected a parameter name in action '%s'", name.Text))
				break
			}
			p.advance()
			action.Params = append(action.Params, Param{Pos: posOf(param), Name: param.Text})
			if !p.match(",") {
				break
			}
		}
	}

	if p.match("RETURNS") {
		if isTypeKeyword(p.peek()) {
			action.Returns = varType(p.advance())
		} else {
			p.errorAt(diag.MissingKeyword, p.peek(), "Expected TEXT, NUMBER, FLAG or LIST after RETURNS")
		}
	}

	open, _ := p.expectOpenBrace("action " + name.Text)
	action.Body = p.parseBody(open, "action "+name.Text)
	return action
}

func (p *parser) parsePageActions() *PageActions {
	p.advance() // PAGEACTIONS
	name, ok := p.expectName("name after PAGEACTIONS")
	if !ok {
		p.syncTopLevel()
		return nil
	}
	group := &PageActions{Pos: posOf(name), Name: name.Text}

	if p.match("FOR") {
		target, ok := p.expectName("page name after FOR")
		if ok {
			group.For = target.Text
			group.ForPos = posOf(target)
		}
	} else {
		p.errorAt(diag.MissingKeyword, p.peek(), fmt.Sprintf("Expected FOR <Page> after PAGEACTIONS %s", name.Text))
		// PAGEACTIONS Name Page { ... }
		if p.peek().Kind == lexer.Identifier && p.peekAt(1).Is("{") {
			target := p.advance()
			group.For = target.Text
			group.ForPos = posOf(target)
		}
	}

	open, _ := p.expectOpenBrace("PAGEACTIONS " + name.Text)
	for {
		tok := p.peek()
		switch {
		case tok.Is("}"):
			p.advance()
			return group
		case tok.Kind == lexer.EOF || (tok.Kind == lexer.Keyword && pageStops[tok.Text]):
			p.missingBrace(open, "PAGEACTIONS "+group.Name)
			return group
		case tok.Kind == lexer.Identifier:
			if a := p.parseActionDef(); a != nil {
				group.Actions = append(group.Actions, a)
			}
		default:
			p.errorAt(diag.UnexpectedToken, tok, fmt.Sprintf("Unexpected %s in PAGEACTIONS %s; expected an action definition", tok, group.Name))
			p.syncMember(pageStops)
		}
	}
}

func (p *parser) parseFeature() *Feature {
	p.advance() // FEATURE
	name, ok := p.expectName("feature name after FEATURE")
	if !ok {
		p.syncTopLevel()
		return nil
	}
	feature := &Feature{Pos: posOf(name), Name: name.Text}
	open, _ := p.expectOpenBrace("FEATURE " + name.Text)

	for {
		tok := p.peek()
		switch {
		case tok.Is("}"):
			p.advance()
			return feature
		case tok.Kind == lexer.EOF || (tok.Kind == lexer.Keyword && featureStops[tok.Text]):
			p.missingBrace(open, "FEATURE "+feature.Name)
			return feature
		case tok.Is("USE"):
			p.advance()
			if ref, ok := p.expectName("page or feature name after USE"); ok {
				feature.Uses = append(feature.Uses, Use{Pos: posOf(ref), Name: ref.Text})
			} else {
				p.syncMember(featureStops)
			}
		case tok.Is("BEFORE"), tok.Is("AFTER"):
			if h := p.parseHook(); h != nil {
				feature.Hooks = append(feature.Hooks, h)
			}
		case tok.Is("SCENARIO"):
			if s := p.parseScenario(); s != nil {
				feature.Scenarios = append(feature.Scenarios, s)
			}
		case tok.Kind == lexer.Identifier:
			p.unknownKeyword(tok, fmt.Sprintf("Unknown feature member '%s'", tok.Text), []string{"USE", "BEFORE", "AFTER", "SCENARIO"})
			p.syncMember(featureStops)
		default:
			p.errorAt(diag.UnexpectedToken, tok, fmt.Sprintf("Unexpected %s in FEATURE %s; expected USE, BEFORE, AFTER or SCENARIO", tok, feature.Name))
			p.syncMember(featureStops)
		}
	}
}

func (p *parser) parseHook() *Hook {
	when := p.advance()
	var kind HookKind
	switch {
	case p.check("ALL"):
		kind = BeforeAll
		if when.Text == "AFTER" {
			kind = AfterAll
		}
	case p.check("EACH"):
		kind = BeforeEach
		if when.Text == "AFTER" {
			kind = AfterEach
		}
	default:
		p.errorAt(diag.MissingKeyword, p.peek(), fmt.Sprintf("Expected ALL or EACH after %s", when.Text))
		p.syncMember(featureStops)
		return nil
	}
	p.advance()
	hook := &Hook{Pos: posOf(when), Kind: kind}
	open, _ := p.expectOpenBrace(kind.String())
	hook.Body = p.parseBody(open, kind.String())
	return hook
}

func (p *parser) parseScenario() *Scenario {
	kw := p.advance()
	name := p.peek()
	if name.Kind != lexer.String && name.Kind != lexer.Identifier {
		p.errorAt(diag.IncompleteStatement, name, "Expected a scenario name after SCENARIO")
		p.syncMember(featureStops)
		return nil
	}
	p.advance()
	scenario := &Scenario{Pos: posOf(kw), Name: name.Text}

	for p.check("@") {
		p.advance()
		tag := p.peek()
		if tag.Kind != lexer.Identifier && tag.Kind != lexer.Keyword {
			p.errorAt(diag.UnexpectedToken, tag, "Expected a tag name after '@'")
			break
		}
		p.advance()
		scenario.Tags = append(scenario.Tags, "@"+tag.Text)
	}

	open, _ := p.expectOpenBrace(fmt.Sprintf("SCENARIO %q", scenario.Name))
	scenario.Body = p.parseBody(open, fmt.Sprintf("SCENARIO %q", scenario.Name))
	return scenario
}

// parseBody parses statements up to the closing brace. open is the opening
// brace token, used to report an unclosed body.
func (p *parser) parseBody(open lexer.Token, owner string) []Statement {
	var body []Statement
	for {
		tok := p.peek()
		switch {
		case tok.Is("}"):
			p.advance()
			return body
		case tok.Kind == lexer.EOF || (tok.Kind == lexer.Keyword && bodyStops[tok.Text]):
			p.missingBrace(open, owner)
			return body
		}
		start := p.pos
		if stmt := p.parseStatement(); stmt != nil {
			body = append(body, stmt)
		} else {
			p.syncStatement(start)
		}
	}
}

// ── Literals ──

// parseLiteral parses a variable initializer: string, number, boolean or list.
func (p *parser) parseLiteral() Expr {
	tok := p.peek()
	switch {
	case tok.Kind == lexer.String:
		p.advance()
		return &StringLit{Pos: posOf(tok), Value: tok.Text}
	case tok.Kind == lexer.Number:
		p.advance()
		return numberLit(tok)
	case tok.Is("TRUE"), tok.Is("FALSE"):
		p.advance()
		return &BoolLit{Pos: posOf(tok), Value: tok.Text == "TRUE"}
	case tok.Is("["):
		p.advance()
		list := &ListLit{Pos: posOf(tok)}
		for !p.check("]") {
			item := p.parseLiteral()
			if item == nil {
				return nil
			}
			list.Items = append(list.Items, item)
			if !p.match(",") {
				break
			}
		}
		if !p.match("]") {
			p.errorAt(diag.UnexpectedToken, p.peek(), "Expected ']' to close list")
			return nil
		}
		return list
	}
	p.errorAt(diag.IncompleteStatement, tok, "Expected a literal value")
	return nil
}

func numberLit(tok lexer.Token) *NumberLit {
	// Malformed numbers were already reported by the lexer.
	v, _ := strconv.ParseFloat(tok.Text, 64)
	return &NumberLit{Pos: posOf(tok), Value: v, Raw: tok.Text}
}

// ── Token helpers ──

func (p *parser) peek() lexer.Token {
	return p.peekAt(0)
}

func (p *parser) peekAt(n int) lexer.Token {
	if p.pos+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+n]
}

func (p *parser) advance() lexer.Token {
	tok := p.peek()
	if tok.Kind != lexer.EOF {
		p.pos++
	}
	return tok
}

func (p *parser) previous() lexer.Token {
	if p.pos == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.pos-1]
}

func (p *parser) check(s string) bool {
	return p.peek().Is(s)
}

func (p *parser) match(s string) bool {
	if p.check(s) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) atEnd() bool {
	return p.peek().Kind == lexer.EOF
}

func (p *parser) expectName(what string) (lexer.Token, bool) {
	tok := p.peek()
	if tok.Kind != lexer.Identifier {
		p.errorAt(diag.IncompleteStatement, tok, fmt.Sprintf("Expected %s, found %s", what, tok))
		return tok, false
	}
	return p.advance(), true
}

func (p *parser) expectOperator(op, where string) bool {
	if p.match(op) {
		return true
	}
	p.errorAt(diag.UnexpectedToken, p.peek(), fmt.Sprintf("Expected '%s' %s", op, where))
	return false
}

// expectOpenBrace consumes '{'. When it is missing the error is reported
// and parsing continues as if it had been present.
func (p *parser) expectOpenBrace(owner string) (lexer.Token, bool) {
	if p.check("{") {
		return p.advance(), true
	}
	tok := p.peek()
	p.errorAt(diag.MissingBrace, tok, fmt.Sprintf("Expected '{' after %s", owner))
	return p.previous(), false
}

func isTypeKeyword(tok lexer.Token) bool {
	return tok.Is("TEXT") || tok.Is("NUMBER") || tok.Is("FLAG") || tok.Is("LIST")
}

func varType(tok lexer.Token) VarType {
	switch tok.Text {
	case "TEXT":
		return TypeText
	case "NUMBER":
		return TypeNumber
	case "FLAG":
		return TypeFlag
	case "LIST":
		return TypeList
	}
	return TypeNone
}

func posOf(tok lexer.Token) Pos {
	return Pos{Line: tok.Line, Col: tok.StartCol, End: tok.EndCol}
}

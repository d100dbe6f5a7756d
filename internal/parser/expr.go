package parser

import (
	"fmt"

	"github.com/chriserin/vero/internal/diag"
	"github.com/chriserin/vero/internal/lexer"
)

func isExprStart(tok lexer.Token) bool {
	switch tok.Kind {
	case lexer.String, lexer.Number, lexer.Identifier:
		return true
	case lexer.Keyword:
		switch tok.Text {
		case "TRUE", "FALSE", "GENERATE", "RANDOM", "UUID":
			return true
		}
	}
	return false
}

func isTargetStart(tok lexer.Token) bool {
	return tok.Kind == lexer.String || tok.Kind == lexer.Identifier
}

// parseExpr parses a value expression. what describes the expected value
// for the diagnostic reported when none is found; nothing is consumed then.
func (p *parser) parseExpr(what string) Expr {
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
	case tok.Kind == lexer.Identifier:
		p.advance()
		if p.check(".") && p.peekAt(1).Kind == lexer.Identifier {
			p.advance()
			name := p.advance()
			return &VarRef{Pos: Pos{Line: tok.Line, Col: tok.StartCol, End: name.EndCol}, Page: tok.Text, Name: name.Text}
		}
		return &VarRef{Pos: posOf(tok), Name: tok.Text}
	case tok.Is("GENERATE"):
		p.advance()
		pattern := p.peek()
		if pattern.Kind != lexer.String {
			p.errorAt(diag.IncompleteStatement, pattern, "Expected a pattern string after GENERATE")
			return nil
		}
		p.advance()
		return &Generate{Pos: posOf(tok), Pattern: pattern.Text}
	case tok.Is("RANDOM"):
		p.advance()
		if !p.match("NUMBER") || !p.match("FROM") {
			p.errorAt(diag.MissingKeyword, p.peek(), "Expected RANDOM NUMBER FROM <min> TO <max>")
			return nil
		}
		lo := p.parseExpr("a minimum after FROM")
		if lo == nil {
			return nil
		}
		if !p.match("TO") {
			p.errorAt(diag.MissingKeyword, p.peek(), "Expected TO after the minimum")
			return nil
		}
		hi := p.parseExpr("a maximum after TO")
		if hi == nil {
			return nil
		}
		return &RandomNumber{Pos: posOf(tok), Min: lo, Max: hi}
	case tok.Is("UUID"):
		p.advance()
		return &UUID{Pos: posOf(tok)}
	}
	p.errorAt(diag.IncompleteStatement, tok, fmt.Sprintf("Expected %s, found %s", what, tok))
	return nil
}

// parseTarget parses `Page.field`, a bare `field`, or a "literal text" match.
func (p *parser) parseTarget(stmt string) *Target {
	tok := p.peek()
	switch tok.Kind {
	case lexer.String:
		p.advance()
		return &Target{Pos: posOf(tok), Text: tok.Text, Literal: true}
	case lexer.Identifier:
		p.advance()
		if !p.match(".") {
			return &Target{Pos: posOf(tok), Name: tok.Text}
		}
		field, ok := p.expectName("a field name after '" + tok.Text + ".'")
		if !ok {
			return nil
		}
		return &Target{Pos: Pos{Line: tok.Line, Col: tok.StartCol, End: field.EndCol}, Page: tok.Text, Name: field.Text}
	}
	p.errorAt(diag.IncompleteStatement, tok, fmt.Sprintf("Expected an element after %s, found %s", stmt, tok))
	return nil
}

// parseCall parses `[Page.]action [WITH arg, ...]`.
func (p *parser) parseCall() *Call {
	first, ok := p.expectName("an action name after DO")
	if !ok {
		return nil
	}
	call := &Call{Pos: posOf(first), Action: first.Text}
	if p.match(".") {
		action, ok := p.expectName("an action name after '" + first.Text + ".'")
		if !ok {
			return nil
		}
		call.Page, call.Action = first.Text, action.Text
		call.End = action.EndCol
	}
	if p.match("WITH") {
		for {
			arg := p.parseExpr("an argument after WITH")
			if arg == nil {
				return nil
			}
			call.Args = append(call.Args, arg)
			if !p.match(",") {
				break
			}
		}
	}
	return call
}

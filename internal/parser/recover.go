package parser

import (
	"fmt"
	"sort"

	"github.com/chriserin/vero/internal/diag"
	"github.com/chriserin/vero/internal/lexer"
)

func (p *parser) report(d diag.Diagnostic) {
	p.diags = append(p.diags, d)
}

func (p *parser) errorAt(code diag.Code, tok lexer.Token, msg string) {
	d := diag.New(code, msg, tok.Line, tok.StartCol, tok.EndCol)
	if tok.Kind != lexer.EOF {
		d = d.WithToken(tok.Text)
	}
	p.report(d)
}

// unknownKeyword reports tok as an unknown keyword, suggesting the closest
// of candidates.
func (p *parser) unknownKeyword(tok lexer.Token, msg string, candidates []string) {
	d := diag.New(diag.UnknownKeyword, msg, tok.Line, tok.StartCol, tok.EndCol).
		WithToken(tok.Text).
		WithSuggestions(p.suggester.Suggest(tok.Text, candidates))
	p.report(d)
}

// missingBrace reports a body opened at open that was never closed.
func (p *parser) missingBrace(open lexer.Token, owner string) {
	p.report(diag.New(diag.MissingBrace,
		fmt.Sprintf("Missing closing '}' for %s", owner), open.Line, open.StartCol, open.EndCol))
}

// syncTopLevel skips to the next PAGE, PAGEACTIONS or FEATURE outside any
// nested braces.
func (p *parser) syncTopLevel() {
	depth := 0
	for !p.atEnd() {
		tok := p.peek()
		switch {
		case tok.Kind == lexer.Keyword && topLevel[tok.Text]:
			return
		case tok.Is("{"):
			depth++
		case tok.Is("}"):
			if depth > 0 {
				depth--
			}
		}
		p.advance()
	}
}

// syncMember skips to the next member of the enclosing declaration: a
// keyword in stops, FIELD/variable keywords, or the closing brace.
func (p *parser) syncMember(stops map[string]bool) {
	depth := 0
	start := p.pos
	for !p.atEnd() {
		tok := p.peek()
		if depth == 0 && p.pos > start {
			if tok.Is("}") || (tok.Kind == lexer.Keyword && (stops[tok.Text] || tok.Text == "FIELD" || isTypeKeyword(tok))) {
				return
			}
			// an identifier opening a new line is the next action definition
			if tok.Kind == lexer.Identifier && tok.Line != p.previous().Line && p.peekAt(1).Is("{") {
				return
			}
		}
		switch {
		case tok.Is("{"):
			depth++
		case tok.Is("}"):
			if depth == 0 {
				return
			}
			depth--
		}
		p.advance()
	}
}

// syncStatement skips past a broken statement that began at token index
// start. It stops at the next statement keyword, the enclosing closing
// brace or a keyword that ends the body.
func (p *parser) syncStatement(start int) {
	depth := 0
	for !p.atEnd() {
		tok := p.peek()
		if depth == 0 {
			if tok.Is("}") || (tok.Kind == lexer.Keyword && bodyStops[tok.Text]) {
				return
			}
			if p.pos > start && tok.Kind == lexer.Keyword && statementStarts[tok.Text] {
				return
			}
		}
		switch {
		case tok.Is("{"):
			depth++
		case tok.Is("}"):
			depth--
		}
		p.advance()
	}
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

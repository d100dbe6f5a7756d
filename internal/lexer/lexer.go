// Package lexer turns Vero source text into tokens.
package lexer

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/chriserin/vero/internal/diag"
)

// declarationKeywords are followed by a name the author chooses. A reserved
// word in that position is reported instead of being read as a keyword.
var declarationKeywords = map[string]bool{
	"PAGE": true, "PAGEACTIONS": true, "FEATURE": true, "FIELD": true,
	"TEXT": true, "NUMBER": true, "FLAG": true, "LIST": true,
}

// Lexer tokenizes a single source text. A Lexer is used once; create a new
// one per run.
type Lexer struct {
	vocab  Vocabulary
	src    []rune
	pos    int
	line   int
	col    int
	tokens []Token
	diags  []diag.Diagnostic
}

// New creates a Lexer over source. A zero Vocabulary selects the default
// keyword set.
func New(source string, vocab Vocabulary) *Lexer {
	if vocab.words == nil {
		vocab = DefaultVocabulary()
	}
	return &Lexer{
		vocab: vocab,
		src:   []rune(source),
		line:  1,
	}
}

// Tokenize lexes source with the default vocabulary.
func Tokenize(source string) ([]Token, []diag.Diagnostic) {
	return New(source, Vocabulary{}).Tokenize()
}

// Tokenize scans the whole input. The token slice always ends with an EOF
// token; lexical problems are returned as diagnostics and never stop the scan.
func (l *Lexer) Tokenize() ([]Token, []diag.Diagnostic) {
	for !l.atEnd() {
		l.scan()
	}
	l.tokens = append(l.tokens, Token{Kind: EOF, Line: l.line, StartCol: l.col, EndCol: l.col})
	return l.tokens, l.diags
}

func (l *Lexer) scan() {
	r := l.peek()
	switch {
	case unicode.IsSpace(r):
		l.advance()
	case r == '#':
		for !l.atEnd() && l.peek() != '\n' {
			l.advance()
		}
	case r == '"':
		l.scanString()
	case unicode.IsDigit(r):
		l.scanNumber()
	case r == '-' && unicode.IsDigit(l.peekAt(1)) && l.expectsValue():
		l.scanNumber()
	case isIdentStart(r):
		l.scanWord()
	case r == '=':
		l.single(Operator)
	case strings.ContainsRune("{}()[],.", r):
		l.single(Punctuation)
	case r == '@':
		l.scanTag()
	default:
		line, col := l.line, l.col
		l.advance()
		l.report(diag.New(diag.UnrecognizedCharacter,
			fmt.Sprintf("Unrecognized character '%c'", r), line, col, col+1).WithToken(string(r)))
	}
}

func (l *Lexer) single(kind Kind) {
	line, col := l.line, l.col
	r := l.advance()
	l.emit(kind, string(r), line, col)
}

func (l *Lexer) scanString() {
	line, col := l.line, l.col
	l.advance() // opening quote
	var b strings.Builder
	for {
		if l.atEnd() || l.peek() == '\n' {
			l.report(diag.New(diag.UnterminatedString, "Unterminated string literal", line, col, l.col).
				WithToken(string(l.src[l.offset(line, col):l.pos])))
			l.emit(String, b.String(), line, col)
			return
		}
		r := l.advance()
		if r == '"' {
			break
		}
		if r == '\\' && !l.atEnd() && l.peek() != '\n' {
			switch esc := l.advance(); esc {
			case 'n':
				b.WriteRune('\n')
			case 't':
				b.WriteRune('\t')
			default:
				b.WriteRune(esc)
			}
			continue
		}
		b.WriteRune(r)
	}
	l.emit(String, b.String(), line, col)
}

func (l *Lexer) scanNumber() {
	line, col := l.line, l.col
	start := l.pos
	if l.peek() == '-' {
		l.advance()
	}
	for unicode.IsDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' && unicode.IsDigit(l.peekAt(1)) {
		l.advance()
		for unicode.IsDigit(l.peek()) {
			l.advance()
		}
	}

	// Anything glued to the number makes the whole run invalid: 12abc, 1.2.3
	if isIdentPart(l.peek()) || (l.peek() == '.' && unicode.IsDigit(l.peekAt(1))) {
		for isIdentPart(l.peek()) || l.peek() == '.' {
			l.advance()
		}
		text := string(l.src[start:l.pos])
		l.report(diag.New(diag.InvalidNumber,
			fmt.Sprintf("Invalid number literal '%s'", text), line, col, l.col).WithToken(text))
		l.emit(Number, text, line, col)
		return
	}
	l.emit(Number, string(l.src[start:l.pos]), line, col)
}

func (l *Lexer) scanWord() {
	line, col := l.line, l.col
	start := l.pos
	for isIdentPart(l.peek()) {
		l.advance()
	}
	word := string(l.src[start:l.pos])

	if !l.vocab.IsKeyword(word) {
		l.emit(Identifier, word, line, col)
		return
	}
	if l.inNamePosition() {
		l.report(diag.New(diag.ReservedIdentifier,
			fmt.Sprintf("'%s' is a reserved word and cannot be used as a name", word), line, col, l.col).WithToken(word))
		l.emit(Identifier, word, line, col)
		return
	}
	l.emit(Keyword, word, line, col)
}

// scanTag reads '@' followed by a tag name. Tag names may also contain '-'
// and ':' (e.g. @smoke-test, @jira:42).
func (l *Lexer) scanTag() {
	l.single(Punctuation)
	if !isIdentStart(l.peek()) && !unicode.IsDigit(l.peek()) {
		return
	}
	line, col := l.line, l.col
	start := l.pos
	for isIdentPart(l.peek()) || l.peek() == '-' || l.peek() == ':' {
		l.advance()
	}
	l.emit(Identifier, string(l.src[start:l.pos]), line, col)
}

// inNamePosition reports whether the next token names a declaration or a
// member: after PAGE/FIELD/TEXT/... or after '.'.
func (l *Lexer) inNamePosition() bool {
	n := len(l.tokens)
	if n == 0 {
		return false
	}
	prev := l.tokens[n-1]
	if prev.Kind == Punctuation && prev.Text == "." {
		return true
	}
	if prev.Kind != Keyword || !declarationKeywords[prev.Text] {
		return false
	}
	// RANDOM NUMBER FROM ... is an expression, not a declaration
	if prev.Text == "NUMBER" && n > 1 && l.tokens[n-2].Is("RANDOM") {
		return false
	}
	return true
}

// expectsValue reports whether a '-' here can start a negative number.
func (l *Lexer) expectsValue() bool {
	n := len(l.tokens)
	if n == 0 {
		return true
	}
	prev := l.tokens[n-1]
	return prev.Kind == Keyword || prev.Kind == Operator || prev.Is(",") || prev.Is("[") || prev.Is("(")
}

func (l *Lexer) emit(kind Kind, text string, line, col int) {
	end := l.col
	if l.line != line {
		end = col + 1
	}
	l.tokens = append(l.tokens, Token{Kind: kind, Text: text, Line: line, StartCol: col, EndCol: end})
}

func (l *Lexer) report(d diag.Diagnostic) {
	l.diags = append(l.diags, d)
}

func (l *Lexer) atEnd() bool {
	return l.pos >= len(l.src)
}

func (l *Lexer) peek() rune {
	return l.peekAt(0)
}

func (l *Lexer) peekAt(n int) rune {
	if l.pos+n >= len(l.src) {
		return 0
	}
	return l.src[l.pos+n]
}

func (l *Lexer) advance() rune {
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
	return r
}

// offset converts a (line, col) already scanned on the current line back
// to a rune offset.
func (l *Lexer) offset(line, col int) int {
	if line != l.line {
		return l.pos
	}
	return l.pos - (l.col - col)
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

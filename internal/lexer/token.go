package lexer

import "fmt"

// Kind classifies a token.
type Kind int

const (
	EOF Kind = iota
	Keyword
	Identifier
	String
	Number
	Operator
	Punctuation
)

var kindNames = [...]string{
	EOF:         "end of file",
	Keyword:     "keyword",
	Identifier:  "identifier",
	String:      "string",
	Number:      "number",
	Operator:    "operator",
	Punctuation: "punctuation",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Token is one lexeme. For strings, Text holds the decoded contents without
// quotes; for everything else it is the source text. Line is 1-based,
// StartCol/EndCol are 0-based rune columns (EndCol exclusive).
type Token struct {
	Kind     Kind
	Text     string
	Line     int
	StartCol int
	EndCol   int
}

// Is reports whether t is the keyword or punctuation/operator text s.
func (t Token) Is(s string) bool {
	switch t.Kind {
	case Keyword, Punctuation, Operator:
		return t.Text == s
	}
	return false
}

func (t Token) String() string {
	switch t.Kind {
	case EOF:
		return "end of file"
	case String:
		return fmt.Sprintf("%q", t.Text)
	}
	return fmt.Sprintf("'%s'", t.Text)
}

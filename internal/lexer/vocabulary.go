package lexer

import "sort"

// defaultKeywords is the reserved-word set of the language. Keywords are
// matched case-sensitively.
var defaultKeywords = []string{
	// declarations
	"PAGE", "PAGEACTIONS", "FOR", "FEATURE", "FIELD", "USE", "SCENARIO",
	"BEFORE", "AFTER", "ALL", "EACH", "WITH", "RETURNS", "RETURN",
	// types
	"TEXT", "NUMBER", "FLAG", "LIST",
	// literals
	"TRUE", "FALSE",
	// interactions
	"CLICK", "FILL", "OPEN", "IN", "NEW", "TAB", "CHECK", "UNCHECK", "HOVER",
	"PRESS", "ON", "SELECT", "FROM", "UPLOAD", "TO", "REFRESH", "DO",
	// assertions
	"VERIFY", "IS", "NOT", "CONTAINS", "VISIBLE", "HIDDEN", "ENABLED",
	"DISABLED", "CHECKED", "EMPTY", "URL", "TITLE",
	// waits
	"WAIT", "SECONDS", "MILLISECONDS", "NAVIGATION", "NETWORK", "IDLE",
	// output
	"LOG", "TAKE", "SCREENSHOT", "AS",
	// scrolling and downloads
	"SCROLL", "UP", "DOWN", "DOWNLOAD",
	// browser state
	"SET", "GET", "CLEAR", "COOKIE", "COOKIES", "STORAGE",
	// tabs
	"SWITCH", "CLOSE",
	// control
	"REPEAT", "TIMES",
	// data generation
	"GENERATE", "RANDOM", "UUID",
}

// Vocabulary is an immutable reserved-word table. Construct one with
// DefaultVocabulary or NewVocabulary and pass it to the lexer and validator.
type Vocabulary struct {
	words map[string]bool
	list  []string
}

// DefaultVocabulary returns the language's standard keyword set.
func DefaultVocabulary() Vocabulary {
	return NewVocabulary(defaultKeywords)
}

// NewVocabulary builds a vocabulary from words. The input is copied.
func NewVocabulary(words []string) Vocabulary {
	v := Vocabulary{words: make(map[string]bool, len(words))}
	for _, w := range words {
		if !v.words[w] {
			v.words[w] = true
			v.list = append(v.list, w)
		}
	}
	sort.Strings(v.list)
	return v
}

// IsKeyword reports whether word is reserved.
func (v Vocabulary) IsKeyword(word string) bool {
	return v.words[word]
}

// Words returns the reserved words in sorted order.
func (v Vocabulary) Words() []string {
	return append([]string(nil), v.list...)
}

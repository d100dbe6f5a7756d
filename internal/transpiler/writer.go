package transpiler

import (
	"fmt"
	"strings"
	"unicode"
)

// writer builds indented TypeScript source, two spaces per level.
type writer struct {
	b      strings.Builder
	indent int
}

func (w *writer) line(s string) {
	if s == "" {
		w.b.WriteString("\n")
		return
	}
	w.b.WriteString(strings.Repeat("  ", w.indent))
	w.b.WriteString(s)
	w.b.WriteString("\n")
}

func (w *writer) linef(format string, args ...any) {
	w.line(fmt.Sprintf(format, args...))
}

// open writes s and indents what follows.
func (w *writer) open(s string) {
	w.line(s)
	w.indent++
}

func (w *writer) openf(format string, args ...any) {
	w.open(fmt.Sprintf(format, args...))
}

// close dedents and writes s.
func (w *writer) close(s string) {
	w.indent--
	w.line(s)
}

// next writes s one level out and stays at the current level, as in
// "} finally {".
func (w *writer) next(s string) {
	w.indent--
	w.line(s)
	w.indent++
}

// raw appends pre-indented text.
func (w *writer) raw(s string) {
	w.b.WriteString(s)
}

func (w *writer) String() string {
	return w.b.String()
}

// jsString renders s as a single-quoted TypeScript string literal.
func jsString(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\u2028':
			b.WriteString(`\u2028`)
		case '\u2029':
			b.WriteString(`\u2029`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\x%02x`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('\'')
	return b.String()
}

var reserved = words(`break case catch class const continue debugger default delete do
	else enum export extends false finally for function if import in instanceof new null
	return super switch this throw true try typeof var void while with yield let static
	implements interface package private protected public await async
	page context expect test browser download i j k u c v`)

func words(s string) map[string]bool {
	m := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		m[w] = true
	}
	return m
}

// ident makes a Vero name safe as a TypeScript local or parameter. Names
// that collide with keywords or the fixtures in scope get a trailing "_".
func ident(name string) string {
	if reserved[name] {
		return name + "_"
	}
	return name
}

// member makes a Vero name safe as a class member. Only the members every
// generated class declares are renamed.
func member(name string) string {
	switch name {
	case "page", "constructor":
		return name + "_"
	}
	return name
}

// instanceName is the variable holding an instance of class name.
func instanceName(name string) string {
	if name == "" {
		return name
	}
	r := []rune(name)
	r[0] = unicode.ToLower(r[0])
	return ident(string(r))
}

// slug turns a scenario name into a file-name stem.
func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

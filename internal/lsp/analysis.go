package lsp

import (
	"fmt"
	"strings"
	"unicode"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/chriserin/vero/internal/compiler"
	"github.com/chriserin/vero/internal/diag"
	"github.com/chriserin/vero/internal/lexer"
	"github.com/chriserin/vero/internal/parser"
	"github.com/chriserin/vero/internal/selector"
	"github.com/chriserin/vero/internal/validator"
)

const maxItems = 100

var severities = map[diag.Severity]protocol.DiagnosticSeverity{
	diag.SeverityError:   protocol.DiagnosticSeverityError,
	diag.SeverityWarning: protocol.DiagnosticSeverityWarning,
	diag.SeverityInfo:    protocol.DiagnosticSeverityInformation,
	diag.SeverityHint:    protocol.DiagnosticSeverityHint,
}

// toProtocol converts every diagnostic of r. Lines become 0-based;
// columns are already 0-based.
func toProtocol(r *compiler.Result) []protocol.Diagnostic {
	out := []protocol.Diagnostic{}
	source := lspName
	for _, d := range r.Result.Diagnostics {
		line := d.Line - 1
		if line < 0 {
			line = 0
		}
		end := d.EndCol
		if end < d.StartCol {
			end = d.StartCol
		}
		severity := severities[d.Severity]
		message := d.Message
		if len(d.Suggestions) > 0 {
			message = fmt.Sprintf("%s. Did you mean: %s?", strings.TrimSuffix(message, "."), strings.Join(d.Suggestions, ", "))
		}
		out = append(out, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(d.StartCol)},
				End:   protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(end)},
			},
			Severity: &severity,
			Code:     &protocol.IntegerOrString{Value: d.Code.String()},
			Source:   &source,
			Message:  message,
		})
	}
	return out
}

// completions offers the members of qualifier when the cursor follows
// "Name.", otherwise declared names and keywords matching prefix.
func completions(r *compiler.Result, opts compiler.Options, qualifier, prefix string) []protocol.CompletionItem {
	var items []protocol.CompletionItem
	add := func(label, detail string, kind protocol.CompletionItemKind) {
		if len(items) >= maxItems || !hasPrefixFold(label, prefix) {
			return
		}
		insert := label
		items = append(items, protocol.CompletionItem{
			Label:      label,
			Kind:       &kind,
			Detail:     &detail,
			InsertText: &insert,
		})
	}

	prog := r.Program
	if qualifier != "" {
		if p := findPage(prog, qualifier); p != nil {
			for _, f := range p.Fields {
				add(f.Name, locatorOf(r.Validated, p.Name, f).Describe(), protocol.CompletionItemKindField)
			}
			for _, v := range p.Variables {
				add(v.Name, v.Type.String(), protocol.CompletionItemKindVariable)
			}
			for _, a := range p.Actions {
				add(a.Name, signature(a), protocol.CompletionItemKindMethod)
			}
		}
		if g := findGroup(prog, qualifier); g != nil {
			for _, a := range g.Actions {
				add(a.Name, signature(a), protocol.CompletionItemKindMethod)
			}
		}
		return items
	}

	if prefix == "" {
		return nil
	}
	for _, p := range prog.Pages {
		add(p.Name, "page", protocol.CompletionItemKindClass)
	}
	for _, g := range prog.PageActions {
		add(g.Name, "page actions for "+g.For, protocol.CompletionItemKindClass)
	}
	for _, f := range prog.Features {
		add(f.Name, "feature", protocol.CompletionItemKindModule)
	}
	vocab := opts.Vocabulary
	if len(vocab.Words()) == 0 {
		vocab = lexer.DefaultVocabulary()
	}
	for _, w := range vocab.Words() {
		add(w, "keyword", protocol.CompletionItemKindKeyword)
	}
	return items
}

// hover describes a page or group, or one of their members when the word
// is qualified.
func hover(r *compiler.Result, qualifier, word string) *protocol.Hover {
	var b strings.Builder
	prog := r.Program

	switch {
	case qualifier == "":
		if p := findPage(prog, word); p != nil {
			fmt.Fprintf(&b, "**PAGE %s**\n\n%d fields, %d variables, %d actions", p.Name, len(p.Fields), len(p.Variables), len(p.Actions))
		} else if g := findGroup(prog, word); g != nil {
			fmt.Fprintf(&b, "**PAGEACTIONS %s** FOR %s\n\n%d actions", g.Name, g.For, len(g.Actions))
		}
	case findPage(prog, qualifier) != nil:
		p := findPage(prog, qualifier)
		for _, f := range p.Fields {
			if f.Name == word {
				fmt.Fprintf(&b, "**%s.%s**\n\n`%s`\n\nlocator: %s", p.Name, f.Name, f.Selector, locatorOf(r.Validated, p.Name, f).Describe())
			}
		}
		for _, v := range p.Variables {
			if v.Name == word {
				fmt.Fprintf(&b, "**%s.%s**: %s", p.Name, v.Name, v.Type)
			}
		}
		for _, a := range p.Actions {
			if a.Name == word {
				fmt.Fprintf(&b, "**%s.%s**\n\n`%s`", p.Name, a.Name, signature(a))
			}
		}
	case findGroup(prog, qualifier) != nil:
		g := findGroup(prog, qualifier)
		for _, a := range g.Actions {
			if a.Name == word {
				fmt.Fprintf(&b, "**%s.%s**\n\n`%s`", g.Name, a.Name, signature(a))
			}
		}
	}

	if b.Len() == 0 {
		return nil
	}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: b.String(),
		},
	}
}

func locatorOf(v *validator.Validated, page string, f *parser.Field) selector.Locator {
	if v != nil {
		if l, ok := v.Locators[validator.FieldKey{Page: page, Field: f.Name}]; ok {
			return l
		}
	}
	return selector.Infer(f.Selector)
}

func signature(a *parser.ActionDef) string {
	var b strings.Builder
	b.WriteString(a.Name)
	if len(a.Params) > 0 {
		names := make([]string, len(a.Params))
		for i, p := range a.Params {
			names[i] = p.Name
		}
		b.WriteString(" WITH ")
		b.WriteString(strings.Join(names, ", "))
	}
	if a.Returns != parser.TypeNone {
		b.WriteString(" RETURNS ")
		b.WriteString(a.Returns.String())
	}
	return b.String()
}

func findPage(prog *parser.Program, name string) *parser.Page {
	for _, p := range prog.Pages {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func findGroup(prog *parser.Program, name string) *parser.PageActions {
	for _, g := range prog.PageActions {
		if g.Name == name {
			return g
		}
	}
	return nil
}

func hasPrefixFold(s, prefix string) bool {
	return strings.HasPrefix(strings.ToLower(s), strings.ToLower(prefix))
}

func isIdent(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// lineAt returns the runes of line pos.Line and the cursor column clamped
// to it.
func lineAt(text string, pos protocol.Position) ([]rune, int, bool) {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return nil, 0, false
	}
	line := []rune(strings.TrimSuffix(lines[pos.Line], "\r"))
	col := int(pos.Character)
	if col > len(line) {
		col = len(line)
	}
	return line, col, true
}

// qualifierBefore returns the identifier ending just before a '.' at
// start, or "".
func qualifierBefore(line []rune, start int) string {
	if start == 0 || line[start-1] != '.' {
		return ""
	}
	end := start - 1
	begin := end
	for begin > 0 && isIdent(line[begin-1]) {
		begin--
	}
	return string(line[begin:end])
}

// extractPrefix returns the identifier fragment before the cursor and,
// when it follows "Name.", that qualifying name.
func extractPrefix(text string, pos protocol.Position) (qualifier, prefix string) {
	line, col, ok := lineAt(text, pos)
	if !ok {
		return "", ""
	}
	start := col
	for start > 0 && isIdent(line[start-1]) {
		start--
	}
	return qualifierBefore(line, start), string(line[start:col])
}

// extractWord returns the full identifier under the cursor and its
// qualifying name, if any.
func extractWord(text string, pos protocol.Position) (qualifier, word string) {
	line, col, ok := lineAt(text, pos)
	if !ok {
		return "", ""
	}
	start := col
	for start > 0 && isIdent(line[start-1]) {
		start--
	}
	end := col
	for end < len(line) && isIdent(line[end]) {
		end++
	}
	if start == end {
		return "", ""
	}
	return qualifierBefore(line, start), string(line[start:end])
}

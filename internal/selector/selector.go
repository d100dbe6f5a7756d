// Package selector classifies field selector literals into locator
// strategies. Classification is a pure function of the literal.
package selector

import (
	"fmt"
	"strings"
)

type Strategy int

const (
	CSS Strategy = iota
	Role
	Text
	Label
	Placeholder
	TestID
	XPath
)

var strategyNames = [...]string{
	CSS:         "css",
	Role:        "role",
	Text:        "text",
	Label:       "label",
	Placeholder: "placeholder",
	TestID:      "testid",
	XPath:       "xpath",
}

func (s Strategy) String() string {
	if s >= 0 && int(s) < len(strategyNames) {
		return strategyNames[s]
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// Locator is an inferred selector. Name is the accessible name of a Role
// locator and empty otherwise.
type Locator struct {
	Strategy Strategy
	Value    string
	Name     string
}

// Describe renders l for humans, e.g. `role button "Save"`.
func (l Locator) Describe() string {
	if l.Strategy == Role && l.Name != "" {
		return fmt.Sprintf("role %s %q", l.Value, l.Name)
	}
	return fmt.Sprintf("%s %q", l.Strategy, l.Value)
}

var prefixes = []struct {
	prefix   string
	strategy Strategy
}{
	{"text=", Text},
	{"label=", Label},
	{"placeholder=", Placeholder},
	{"data-testid=", TestID},
	{"testid=", TestID},
	{"xpath=", XPath},
	{"css=", CSS},
}

// attributes maps bracketed attribute selectors to strategies.
var attributes = map[string]Strategy{
	"data-testid": TestID,
	"placeholder": Placeholder,
	"aria-label":  Label,
}

var ariaRoles = words(`alert alertdialog article banner button cell checkbox columnheader
	combobox complementary contentinfo dialog document feed figure form grid gridcell
	group heading img link list listbox listitem log main marquee math menu menubar
	menuitem menuitemcheckbox menuitemradio navigation none note option presentation
	progressbar radio radiogroup region row rowgroup rowheader scrollbar search
	searchbox separator slider spinbutton status switch tab table tablist tabpanel
	term textbox timer toolbar tooltip tree treegrid treeitem`)

var htmlTags = words(`a abbr address area aside audio b body br canvas caption code
	col dd details div dl dt em fieldset footer h1 h2 h3 h4 h5 h6 header hr html i
	iframe input label legend li nav ol p pre section select small span strong sub
	summary sup tbody td textarea tfoot th thead tr u ul video`)

func words(s string) map[string]bool {
	m := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		m[w] = true
	}
	return m
}

// Infer classifies raw. Every input maps to exactly one strategy; CSS is
// the fallback, and the empty string is CSS with an empty value.
func Infer(raw string) Locator {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Locator{Strategy: CSS}
	}

	for _, p := range prefixes {
		if strings.HasPrefix(s, p.prefix) {
			return Locator{Strategy: p.strategy, Value: unquote(s[len(p.prefix):])}
		}
	}

	if strings.HasPrefix(s, "role=") {
		return inferRole(s[len("role="):])
	}

	if strings.HasPrefix(s, "//") || strings.HasPrefix(s, "(//") || strings.HasPrefix(s, "./") {
		return Locator{Strategy: XPath, Value: s}
	}

	if loc, ok := inferAttribute(s); ok {
		return loc
	}

	if ariaRoles[s] {
		return Locator{Strategy: Role, Value: s}
	}

	if looksLikeCSS(s) {
		return Locator{Strategy: CSS, Value: s}
	}
	return Locator{Strategy: Text, Value: s}
}

// inferRole parses `button` or `button[name="Save"]`.
func inferRole(s string) Locator {
	loc := Locator{Strategy: Role, Value: s}
	open := strings.IndexByte(s, '[')
	if open < 0 || !strings.HasSuffix(s, "]") {
		return loc
	}
	loc.Value = s[:open]
	attr := s[open+1 : len(s)-1]
	if key, val, ok := strings.Cut(attr, "="); ok && strings.TrimSpace(key) == "name" {
		loc.Name = unquote(strings.TrimSpace(val))
	}
	return loc
}

// inferAttribute recognizes a single `[attr=value]` selector for the
// attributes that have a dedicated strategy.
func inferAttribute(s string) (Locator, bool) {
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") || strings.Count(s, "[") != 1 {
		return Locator{}, false
	}
	key, val, ok := strings.Cut(s[1:len(s)-1], "=")
	if !ok {
		return Locator{}, false
	}
	strategy, ok := attributes[strings.TrimSpace(key)]
	if !ok {
		return Locator{}, false
	}
	return Locator{Strategy: strategy, Value: unquote(strings.TrimSpace(val))}, true
}

// looksLikeCSS reports whether s has CSS surface syntax. Text containing
// spaces only counts when it uses a combinator, an attribute selector, or
// is built entirely from tag, class and id parts.
func looksLikeCSS(s string) bool {
	switch s[0] {
	case '#', '.', '[', '*':
		return true
	}
	if !strings.ContainsAny(s, " \t") {
		return htmlTags[s] || strings.ContainsAny(s, ":#.[=>~+*")
	}
	if strings.ContainsAny(s, ">[") {
		return true
	}
	for _, part := range strings.Fields(s) {
		if !htmlTags[part] && !isCompound(part) {
			return false
		}
	}
	return true
}

// isCompound matches `tag.class` or `tag#id` parts.
func isCompound(part string) bool {
	i := strings.IndexAny(part, ".#")
	return i > 0 && i < len(part)-1 && htmlTags[part[:i]]
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

package validator

import (
	"github.com/chriserin/vero/internal/parser"
)

type local struct {
	pos     parser.Pos
	binding Binding
}

// scope is one level of the local-name stack: an action, scenario or hook
// body, or a REPEAT body nested in one.
type scope struct {
	names  map[string]local
	order  []string
	parent *scope
}

func newScope(parent *scope) *scope {
	return &scope{names: make(map[string]local), parent: parent}
}

func (s *scope) declare(name string, l local) {
	if _, ok := s.names[name]; !ok {
		s.order = append(s.order, name)
	}
	s.names[name] = l
}

func (s *scope) lookup(name string) (local, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if l, ok := sc.names[name]; ok {
			return l, true
		}
	}
	return local{}, false
}

// visible lists every name reachable from s, innermost first.
func (s *scope) visible() []string {
	var out []string
	for sc := s; sc != nil; sc = sc.parent {
		out = append(out, sc.order...)
	}
	return out
}

// featureContext tracks what a feature has brought into scope with USE.
type featureContext struct {
	feature    *parser.Feature
	scope      *FeatureScope
	usedPages  map[string]bool
	usedGroups map[string]bool
	warned     map[string]bool
	// pages in USE order; bare names resolve against these only
	pageOrder  []string
	groupOrder []string
}

func (fc *featureContext) addPage(name string) {
	if !fc.usedPages[name] {
		fc.usedPages[name] = true
		fc.pageOrder = append(fc.pageOrder, name)
	}
	fc.reach(name, false)
}

func (fc *featureContext) addGroup(name string) {
	if !fc.usedGroups[name] {
		fc.usedGroups[name] = true
		fc.groupOrder = append(fc.groupOrder, name)
	}
	fc.reach(name, true)
}

// reach records name in the feature's reachable set.
func (fc *featureContext) reach(name string, group bool) {
	list := &fc.scope.Pages
	if group {
		list = &fc.scope.Groups
	}
	for _, n := range *list {
		if n == name {
			return
		}
	}
	*list = append(*list, name)
}

// bodyContext is the resolution context of one statement body.
type bodyContext struct {
	page    *pageSymbols // owning page of an action, or a group's FOR page
	group   *groupSymbols
	action  *parser.ActionDef
	feature *featureContext
	hook    *parser.Hook
	scope   *scope
	tabOpen bool
}

func (ctx *bodyContext) inAllHook() bool {
	return ctx.hook != nil && ctx.hook.Kind.IsAll()
}

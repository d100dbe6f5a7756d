package transpiler

import (
	"fmt"
	"sort"
	"strings"
)

// helper is a function generated code imports from the runtime module.
type helper struct {
	arity  int
	source string
}

// helpers is the complete runtime surface. Expressions that need one of
// these go through call so arity is checked at generation time.
var helpers = map[string]helper{
	"fromRegex": {
		arity: 1,
		source: `export function fromRegex(pattern: string): string {
  return new RandExp(pattern).gen();
}`,
	},
	"randomNumber": {
		arity: 2,
		source: `export function randomNumber(min: number, max: number): number {
  const lo = Math.ceil(Math.min(min, max));
  const hi = Math.floor(Math.max(min, max));
  return Math.floor(Math.random() * (hi - lo + 1)) + lo;
}`,
	},
	"uuid": {
		arity: 0,
		source: `export function uuid(): string {
  return crypto.randomUUID();
}`,
	},
}

func (m *module) call(name string, args ...string) (string, error) {
	h, ok := helpers[name]
	if !ok {
		return "", fmt.Errorf("unknown runtime helper %q", name)
	}
	if len(args) != h.arity {
		return "", fmt.Errorf("runtime helper %s takes %d argument(s), got %d", name, h.arity, len(args))
	}
	m.helpers[name] = true
	return fmt.Sprintf("%s(%s)", name, strings.Join(args, ", ")), nil
}

// RuntimeModule renders the named helpers as one module. Unknown names
// are ignored. Builds that merge the output of several sources use it to
// write a single runtime file.
func RuntimeModule(names []string) string {
	used := make(map[string]bool)
	for _, name := range names {
		if _, ok := helpers[name]; ok {
			used[name] = true
		}
	}
	return runtimeModule(used)
}

// runtimeModule renders the helpers in used, or "" when none are.
func runtimeModule(used map[string]bool) string {
	if len(used) == 0 {
		return ""
	}
	names := make([]string, 0, len(used))
	for name := range used {
		names = append(names, name)
	}
	sort.Strings(names)

	var w writer
	if used["fromRegex"] {
		w.line("import RandExp from 'randexp';")
		w.line("")
	}
	for i, name := range names {
		if i > 0 {
			w.line("")
		}
		w.raw(helpers[name].source + "\n")
	}
	return w.String()
}

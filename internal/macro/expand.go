package macro

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/leapstack-labs/svpgen/internal/diag"
)

// expander substitutes `NAME and `NAME(args) references in stored values.
// The in-progress stack detects cycles; a cyclic reference is left as
// written and reported once per cycle.
type expander struct {
	table    map[string]*Definition
	warnings *diag.Collector
	reported map[string]bool
}

func newExpander(table map[string]*Definition, warnings *diag.Collector) *expander {
	return &expander{table: table, warnings: warnings, reported: make(map[string]bool)}
}

// expandAll returns every definition with Value filled in, sorted by name.
func (e *expander) expandAll() []Definition {
	names := slices.Sorted(maps.Keys(e.table))
	defs := make([]Definition, 0, len(names))
	for _, name := range names {
		d := *e.table[name]
		d.Value = e.expand(name, []string{name})
		defs = append(defs, d)
	}
	return defs
}

// expand returns the value of name with references substituted. stack holds
// the names currently being expanded, name last.
func (e *expander) expand(name string, stack []string) string {
	def := e.table[name]
	text := def.Raw
	if !strings.ContainsRune(text, Sigil) {
		return text
	}

	var b strings.Builder
	for i := 0; i < len(text); {
		ref, end, ok := scanReference(text, i)
		if !ok {
			b.WriteByte(text[i])
			i++
			continue
		}

		raw := text[i:end]
		switch {
		case e.table[ref] == nil:
			b.WriteString(raw)
		case slices.Contains(stack, ref):
			e.reportCycle(def, stack, ref)
			b.WriteString(raw)
		default:
			b.WriteString(e.expand(ref, append(slices.Clip(stack), ref)))
		}
		i = end
	}
	return b.String()
}

// scanReference matches a reference at text[start:]: the sigil, a name, an
// optional parenthesized argument list and an optional closing sigil that is
// not itself the start of another reference.
func scanReference(text string, start int) (name string, end int, ok bool) {
	if text[start] != Sigil {
		return "", 0, false
	}
	name, rest, ok := splitIdentPrefix(text[start+1:])
	if !ok {
		return "", 0, false
	}
	end = start + 1 + len(name)

	if strings.HasPrefix(rest, "(") {
		if n, ok := scanParenEnd(rest); ok {
			end += n
		}
	}
	if end < len(text) && text[end] == Sigil && (end+1 >= len(text) || !isIdentStart(text[end+1])) {
		end++
	}
	return name, end, true
}

func (e *expander) reportCycle(def *Definition, stack []string, ref string) {
	cycle := stack[slices.Index(stack, ref):]

	// Rotate so the same cycle reached from any member reports once.
	first := slices.Index(cycle, slices.Min(cycle))
	key := strings.Join(append(slices.Clone(cycle[first:]), cycle[:first]...), " -> ")
	if e.reported[key] {
		return
	}
	e.reported[key] = true

	path := make([]string, 0, len(cycle)+1)
	for _, n := range cycle {
		path = append(path, string(Sigil)+n)
	}
	path = append(path, string(Sigil)+ref)

	e.warnings.Add(diag.Warning{
		Kind:    diag.CircularMacroReference,
		File:    def.File,
		Line:    def.Line,
		Message: fmt.Sprintf("circular macro reference %s left unexpanded", strings.Join(path, " -> ")),
	})
}

package macro

import (
	"strings"
)

// Sigil introduces a preprocessor directive and a macro reference.
const Sigil = '`'

// Directive is a parsed `command line.
type Directive struct {
	Cmd  string // Command word without the sigil, e.g. "define"
	Arg  string // Everything after the command word, trimmed
	Text string // The whole logical line, trimmed
	Line int
}

// parseDirective recognizes a logical line whose first non-blank character
// is the sigil followed by a command word.
func parseDirective(l Line) (Directive, bool) {
	trim := strings.TrimSpace(l.Text)
	if len(trim) < 2 || trim[0] != Sigil || !isIdentStart(trim[1]) {
		return Directive{}, false
	}
	end := 2
	for end < len(trim) && isIdentPart(trim[end]) {
		end++
	}
	return Directive{
		Cmd:  trim[1:end],
		Arg:  strings.TrimSpace(trim[end:]),
		Text: trim,
		Line: l.Number,
	}, true
}

// parseDefine splits the argument of `define into name, parameter list and
// body. The macro is function-like only if "(" immediately follows the name;
// params then holds the parenthesized list verbatim.
func parseDefine(arg string) (name, params, body string, ok bool) {
	name, rest, ok := splitIdentPrefix(arg)
	if !ok {
		return "", "", "", false
	}

	if strings.HasPrefix(rest, "(") {
		end, ok := scanParenEnd(rest)
		if !ok {
			return "", "", "", false
		}
		params = rest[:end]
		rest = rest[end:]
	} else if rest != "" && rest[0] != ' ' && rest[0] != '\t' && rest[0] != '\n' {
		return "", "", "", false
	}

	body = strings.TrimSpace(rest)
	return name, params, body, true
}

// storedValue is the raw table value of a definition: the parameter list,
// if any, followed by the body.
func storedValue(params, body string) string {
	switch {
	case params == "":
		return body
	case body == "":
		return params
	default:
		return params + " " + body
	}
}

// parseInclude extracts the path from `include "file" or `include <file>.
func parseInclude(arg string) (string, bool) {
	arg = strings.TrimSpace(arg)
	if len(arg) > 2 && arg[0] == '"' && arg[len(arg)-1] == '"' {
		return arg[1 : len(arg)-1], true
	}
	if len(arg) > 2 && arg[0] == '<' && arg[len(arg)-1] == '>' {
		return arg[1 : len(arg)-1], true
	}
	return "", false
}

// parseName validates the single identifier argument of `ifdef, `ifndef,
// `elsif and `undef.
func parseName(arg string) (string, bool) {
	name, rest, ok := splitIdentPrefix(arg)
	if !ok || strings.TrimSpace(rest) != "" {
		return "", false
	}
	return name, true
}

func splitIdentPrefix(s string) (name string, rest string, ok bool) {
	if s == "" || !isIdentStart(s[0]) {
		return "", "", false
	}
	i := 1
	for i < len(s) && isIdentPart(s[i]) {
		i++
	}
	return s[:i], s[i:], true
}

// scanParenEnd returns the offset just past the ")" matching the "(" at s[0].
func scanParenEnd(s string) (int, bool) {
	if s == "" || s[0] != '(' {
		return 0, false
	}
	depth := 0
	for i := 0; i < len(s); i++ {
		switch ch := s[i]; ch {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		case '"':
			for i++; i < len(s) && s[i] != '"'; i++ {
				if s[i] == '\\' {
					i++
				}
			}
		}
	}
	return 0, false
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentPart(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9') || b == '$'
}

package template

import (
	"strings"

	"github.com/leapstack-labs/svpgen/internal/expr"
)

// splitSegments breaks a literal line into plain text and ${...} tokens.
// A token is "${" NAME ( "[" ... "]" )* "}" with balanced brackets; any other
// "${" sequence is plain text. Index expressions are parsed here so malformed
// ones fail before expansion starts.
func splitSegments(line string, pos Position) ([]Segment, error) {
	var segs []Segment
	textStart := 0

	for i := 0; i < len(line); {
		if !strings.HasPrefix(line[i:], "${") {
			i++
			continue
		}
		end := scanToken(line, i)
		if end < 0 {
			i += 2
			continue
		}

		raw := line[i:end]
		e, err := expr.Parse(raw)
		if err != nil {
			p := pos
			p.Column = i + 1
			return nil, WrapExpressionError(p, raw, err)
		}
		if i > textStart {
			segs = append(segs, Segment{Text: line[textStart:i], Column: textStart + 1})
		}
		segs = append(segs, Segment{Text: raw, Expr: e, Column: i + 1})
		i = end
		textStart = end
	}

	if textStart < len(line) || len(segs) == 0 {
		segs = append(segs, Segment{Text: line[textStart:], Column: textStart + 1})
	}
	return segs, nil
}

// scanToken returns the end offset of the substitution token starting at
// line[start:], or -1 if there is none.
func scanToken(line string, start int) int {
	i := start + 2
	if i >= len(line) || !isNameStart(line[i]) {
		return -1
	}
	for i < len(line) && isNamePart(line[i]) {
		i++
	}

	for i < len(line) && line[i] == '[' {
		i = matchBracket(line, i)
		if i < 0 {
			return -1
		}
	}

	if i >= len(line) || line[i] != '}' {
		return -1
	}
	return i + 1
}

// matchBracket returns the offset just past the "]" matching the "[" at
// line[open], skipping quoted strings, or -1.
func matchBracket(line string, open int) int {
	depth := 0
	for i := open; i < len(line); i++ {
		switch c := line[i]; c {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i + 1
			}
		case '"', '\'':
			for i++; i < len(line) && line[i] != c; i++ {
				if line[i] == '\\' {
					i++
				}
			}
			if i >= len(line) {
				return -1
			}
		}
	}
	return -1
}

func isNameStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isNamePart(b byte) bool { return isNameStart(b) || (b >= '0' && b <= '9') }

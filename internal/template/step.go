package template

import (
	"regexp"
	"strings"
)

var (
	incDecRe    = regexp.MustCompile(`^\$?([A-Za-z_]\w*)\s*(\+\+|--)$`)
	preIncDecRe = regexp.MustCompile(`^(\+\+|--)\s*\$?([A-Za-z_]\w*)$`)
	compoundRe  = regexp.MustCompile(`^\$?([A-Za-z_]\w*)\s*(//|<<|>>|[-+*/%&|^])=\s*(.+)$`)
	plainRe     = regexp.MustCompile(`^\$?([A-Za-z_]\w*)\s*=(.*)$`)
)

// normalizeStep rewrites an update statement into a target name and the
// expression assigned to it:
//
//	$v++ / ++$v     → v, "v + 1"
//	$v-- / --$v     → v, "v - 1"
//	$v OP= X        → v, "v OP (X)"
//	$v = X          → v, "X"
//
// Anything else is an expression assigned to fallback. An empty name means
// the statement has no assignment target.
func normalizeStep(stmt, fallback string) (name, src string) {
	stmt = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(stmt), ";"))

	if m := incDecRe.FindStringSubmatch(stmt); m != nil {
		return m[1], m[1] + " " + m[2][:1] + " 1"
	}
	if m := preIncDecRe.FindStringSubmatch(stmt); m != nil {
		return m[2], m[2] + " " + m[1][:1] + " 1"
	}
	if m := compoundRe.FindStringSubmatch(stmt); m != nil {
		return m[1], m[1] + " " + m[2] + " (" + strings.TrimSpace(m[3]) + ")"
	}
	if m := plainRe.FindStringSubmatch(stmt); m != nil && !strings.HasPrefix(m[2], "=") {
		return m[1], strings.TrimSpace(m[2])
	}
	return fallback, stmt
}

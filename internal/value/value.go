// Package value provides the closed set of runtime values used by template
// expressions and scopes.
//
// A Value is exactly one of: integer, float, boolean, string, or an ordered
// list of Values. The zero Value is the integer 0, which is also what an
// undefined name evaluates to in lenient mode.
//
// Coercion rules:
//
//   - In boolean context: 0, 0.0, false, "" and [] are false; everything else is true.
//   - In arithmetic: booleans promote to integers (false=0, true=1); an integer
//     combined with a float promotes to float.
//   - Equality never fails: values of unrelated kinds are simply unequal.
//   - Ordering comparisons are defined for number/number, string/string and
//     list/list (lexicographic); anything else is a TypeError.
package value

import (
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind int

// Kind constants.
const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindString
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Value is an immutable tagged union. Lists are never mutated in place, so
// copying a Value (or a scope holding it) never aliases mutable state.
type Value struct {
	kind Kind
	i    int64
	f    float64
	b    bool
	s    string
	list []Value
}

// Int returns an integer value.
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Float returns a float value.
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

// Bool returns a boolean value.
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

// String returns a string value.
func String(v string) Value { return Value{kind: KindString, s: v} }

// List returns a list value holding a copy of items.
func List(items ...Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindList, list: cp}
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNumeric reports whether v participates in arithmetic (int, float or bool).
func (v Value) IsNumeric() bool {
	return v.kind == KindInt || v.kind == KindFloat || v.kind == KindBool
}

// AsInt returns the integer held by v. Booleans convert to 0/1.
func (v Value) AsInt() (int64, bool) {
	switch v.kind {
	case KindInt:
		return v.i, true
	case KindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// AsFloat returns v as a float64 if it is numeric.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt, KindBool:
		i, _ := v.AsInt()
		return float64(i), true
	default:
		return 0, false
	}
}

// AsBool returns the boolean held by v, if v is a bool.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// AsString returns the raw string held by v, if v is a string.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// Len returns the length of a list or string, and 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.list)
	case KindString:
		return len(v.s)
	default:
		return 0
	}
}

// Truthy reports the value's boolean interpretation.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindInt:
		return v.i != 0
	case KindFloat:
		return v.f != 0
	case KindBool:
		return v.b
	case KindString:
		return v.s != ""
	case KindList:
		return len(v.list) > 0
	default:
		return false
	}
}

// String renders v the way it appears in expanded output.
// Lists render as "[a, b, c]"; floats always carry a fractional part.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return formatFloat(v.f)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindString:
		return v.s
	case KindList:
		var b strings.Builder
		b.WriteByte('[')
		for i, item := range v.list {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(item.String())
		}
		b.WriteByte(']')
		return b.String()
	default:
		return ""
	}
}

// GoString renders v as an expression literal (strings quoted), for debugging.
func (v Value) GoString() string {
	switch v.kind {
	case KindString:
		return strconv.Quote(v.s)
	case KindList:
		parts := make([]string, len(v.list))
		for i, item := range v.list {
			parts[i] = item.GoString()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return v.String()
	}
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// Index returns the element of list v at position idx. Negative indices
// count from the end. Indexing a non-list, a non-integer index, or an index
// out of range yields an *IndexError.
func (v Value) Index(idx Value) (Value, error) {
	if v.kind != KindList {
		return Value{}, &IndexError{Target: v, Index: idx, Reason: "cannot index " + v.kind.String()}
	}
	if idx.kind != KindInt {
		return Value{}, &IndexError{Target: v, Index: idx, Reason: "index must be int, got " + idx.kind.String()}
	}
	i := idx.i
	n := int64(len(v.list))
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return Value{}, &IndexError{Target: v, Index: idx, Reason: "index out of range"}
	}
	return v.list[i], nil
}

// Equal reports whether a and b are equal. Numbers compare by numeric value
// regardless of int/float/bool representation.
func Equal(a, b Value) bool {
	if a.IsNumeric() && b.IsNumeric() {
		if a.kind == KindFloat || b.kind == KindFloat {
			af, _ := a.AsFloat()
			bf, _ := b.AsFloat()
			return af == bf
		}
		ai, _ := a.AsInt()
		bi, _ := b.AsInt()
		return ai == bi
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindString:
		return a.s == b.s
	case KindList:
		if len(a.list) != len(b.list) {
			return false
		}
		for i := range a.list {
			if !Equal(a.list[i], b.list[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

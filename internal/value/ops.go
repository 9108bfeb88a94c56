package value

import (
	"fmt"
	"math"
	"strings"
)

// MaxRepeatLen caps the length of a string or list built by repetition.
const MaxRepeatLen = 1 << 24

// numericPair promotes a and b to a common numeric representation.
// isFloat reports whether the float fields are the ones to use.
func numericPair(a, b Value) (ai, bi int64, af, bf float64, isFloat, ok bool) {
	if !a.IsNumeric() || !b.IsNumeric() {
		return 0, 0, 0, 0, false, false
	}
	if a.kind == KindFloat || b.kind == KindFloat {
		af, _ = a.AsFloat()
		bf, _ = b.AsFloat()
		return 0, 0, af, bf, true, true
	}
	ai, _ = a.AsInt()
	bi, _ = b.AsInt()
	return ai, bi, 0, 0, false, true
}

// Add implements "+": numeric addition, string concatenation and list concatenation.
func Add(a, b Value) (Value, error) {
	if ai, bi, af, bf, isFloat, ok := numericPair(a, b); ok {
		if isFloat {
			return Float(af + bf), nil
		}
		return Int(ai + bi), nil
	}
	switch {
	case a.kind == KindString && b.kind == KindString:
		return String(a.s + b.s), nil
	case a.kind == KindList && b.kind == KindList:
		items := make([]Value, 0, len(a.list)+len(b.list))
		items = append(items, a.list...)
		items = append(items, b.list...)
		return Value{kind: KindList, list: items}, nil
	}
	return Value{}, &TypeError{Op: "+", Left: a.kind, Right: b.kind}
}

// Sub implements "-".
func Sub(a, b Value) (Value, error) {
	ai, bi, af, bf, isFloat, ok := numericPair(a, b)
	if !ok {
		return Value{}, &TypeError{Op: "-", Left: a.kind, Right: b.kind}
	}
	if isFloat {
		return Float(af - bf), nil
	}
	return Int(ai - bi), nil
}

// Mul implements "*": numeric multiplication, and string or list repetition by an integer.
func Mul(a, b Value) (Value, error) {
	if ai, bi, af, bf, isFloat, ok := numericPair(a, b); ok {
		if isFloat {
			return Float(af * bf), nil
		}
		return Int(ai * bi), nil
	}
	seq, count := a, b
	if b.kind == KindString || b.kind == KindList {
		seq, count = b, a
	}
	n, ok := count.AsInt()
	if !ok || (seq.kind != KindString && seq.kind != KindList) {
		return Value{}, &TypeError{Op: "*", Left: a.kind, Right: b.kind}
	}
	if n < 0 {
		n = 0
	}
	size := seq.Len()
	if size > 0 && n > int64(MaxRepeatLen/size) {
		return Value{}, fmt.Errorf("%w: %d * %d exceeds %d", ErrRepeatTooLarge, size, n, MaxRepeatLen)
	}
	if seq.kind == KindString {
		return String(strings.Repeat(seq.s, int(n))), nil
	}
	items := make([]Value, 0, size*int(n))
	for i := int64(0); i < n; i++ {
		items = append(items, seq.list...)
	}
	return Value{kind: KindList, list: items}, nil
}

// Div implements "/". Integer operands yield an integer when the division is
// exact and a float otherwise.
func Div(a, b Value) (Value, error) {
	ai, bi, af, bf, isFloat, ok := numericPair(a, b)
	if !ok {
		return Value{}, &TypeError{Op: "/", Left: a.kind, Right: b.kind}
	}
	if isFloat {
		if bf == 0 {
			return Value{}, ErrDivisionByZero
		}
		return Float(af / bf), nil
	}
	if bi == 0 {
		return Value{}, ErrDivisionByZero
	}
	if ai%bi == 0 {
		return Int(ai / bi), nil
	}
	return Float(float64(ai) / float64(bi)), nil
}

// FloorDiv implements "//", rounding toward negative infinity.
func FloorDiv(a, b Value) (Value, error) {
	ai, bi, af, bf, isFloat, ok := numericPair(a, b)
	if !ok {
		return Value{}, &TypeError{Op: "//", Left: a.kind, Right: b.kind}
	}
	if isFloat {
		if bf == 0 {
			return Value{}, ErrDivisionByZero
		}
		return Float(math.Floor(af / bf)), nil
	}
	if bi == 0 {
		return Value{}, ErrDivisionByZero
	}
	q := ai / bi
	if (ai%bi != 0) && ((ai < 0) != (bi < 0)) {
		q--
	}
	return Int(q), nil
}

// Mod implements "%". The result takes the sign of the divisor.
func Mod(a, b Value) (Value, error) {
	ai, bi, af, bf, isFloat, ok := numericPair(a, b)
	if !ok {
		return Value{}, &TypeError{Op: "%", Left: a.kind, Right: b.kind}
	}
	if isFloat {
		if bf == 0 {
			return Value{}, ErrDivisionByZero
		}
		r := math.Mod(af, bf)
		if r != 0 && (r < 0) != (bf < 0) {
			r += bf
		}
		return Float(r), nil
	}
	if bi == 0 {
		return Value{}, ErrDivisionByZero
	}
	r := ai % bi
	if r != 0 && (r < 0) != (bi < 0) {
		r += bi
	}
	return Int(r), nil
}

func intPair(op string, a, b Value) (int64, int64, error) {
	ai, ok1 := a.AsInt()
	bi, ok2 := b.AsInt()
	if !ok1 || !ok2 {
		return 0, 0, &TypeError{Op: op, Left: a.kind, Right: b.kind}
	}
	return ai, bi, nil
}

// Shl implements "<<" on integers.
func Shl(a, b Value) (Value, error) {
	ai, bi, err := intPair("<<", a, b)
	if err != nil {
		return Value{}, err
	}
	if bi < 0 {
		return Value{}, &TypeError{Op: "<< (negative shift)", Left: a.kind, Right: b.kind}
	}
	return Int(ai << uint64(bi)), nil
}

// Shr implements ">>" on integers (arithmetic shift).
func Shr(a, b Value) (Value, error) {
	ai, bi, err := intPair(">>", a, b)
	if err != nil {
		return Value{}, err
	}
	if bi < 0 {
		return Value{}, &TypeError{Op: ">> (negative shift)", Left: a.kind, Right: b.kind}
	}
	return Int(ai >> uint64(bi)), nil
}

// BitAnd implements "&" on integers.
func BitAnd(a, b Value) (Value, error) {
	ai, bi, err := intPair("&", a, b)
	if err != nil {
		return Value{}, err
	}
	return Int(ai & bi), nil
}

// BitOr implements "|" on integers.
func BitOr(a, b Value) (Value, error) {
	ai, bi, err := intPair("|", a, b)
	if err != nil {
		return Value{}, err
	}
	return Int(ai | bi), nil
}

// BitXor implements "^" on integers.
func BitXor(a, b Value) (Value, error) {
	ai, bi, err := intPair("^", a, b)
	if err != nil {
		return Value{}, err
	}
	return Int(ai ^ bi), nil
}

// Neg implements unary "-".
func Neg(a Value) (Value, error) {
	switch a.kind {
	case KindFloat:
		return Float(-a.f), nil
	case KindInt, KindBool:
		i, _ := a.AsInt()
		return Int(-i), nil
	}
	return Value{}, &TypeError{Op: "unary -", Left: a.kind, Unary: true}
}

// Pos implements unary "+".
func Pos(a Value) (Value, error) {
	switch a.kind {
	case KindFloat:
		return a, nil
	case KindInt, KindBool:
		i, _ := a.AsInt()
		return Int(i), nil
	}
	return Value{}, &TypeError{Op: "unary +", Left: a.kind, Unary: true}
}

// Not implements logical negation.
func Not(a Value) Value { return Bool(!a.Truthy()) }

// Compare orders a and b, returning -1, 0 or +1.
func Compare(a, b Value) (int, error) {
	if ai, bi, af, bf, isFloat, ok := numericPair(a, b); ok {
		if isFloat {
			return cmpOrdered(af, bf), nil
		}
		return cmpOrdered(ai, bi), nil
	}
	switch {
	case a.kind == KindString && b.kind == KindString:
		return strings.Compare(a.s, b.s), nil
	case a.kind == KindList && b.kind == KindList:
		for i := 0; i < len(a.list) && i < len(b.list); i++ {
			c, err := Compare(a.list[i], b.list[i])
			if err != nil {
				return 0, err
			}
			if c != 0 {
				return c, nil
			}
		}
		return cmpOrdered(len(a.list), len(b.list)), nil
	}
	return 0, &TypeError{Op: "comparison", Left: a.kind, Right: b.kind}
}

func cmpOrdered[T int | int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

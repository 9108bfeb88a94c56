package value

import (
	"fmt"
	"math"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseLiteral converts raw text (a -v name=value argument, an imported macro
// value) into a Value. Integers, floats, booleans and flow lists such as
// "[1, 2, 3]" are recognized; anything else, including text that does not
// parse, becomes a string holding the trimmed input.
func ParseLiteral(raw string) Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return String("")
	}
	if strings.ContainsRune(s, '\n') {
		return String(s)
	}

	var decoded any
	if err := yaml.Unmarshal([]byte(s), &decoded); err != nil {
		return String(s)
	}

	switch decoded.(type) {
	case nil, map[string]any:
		// Comments, nulls and mappings are not literals.
		return String(s)
	case []any:
		// Only flow sequences count; "- x" is ordinary text.
		if !strings.HasPrefix(s, "[") {
			return String(s)
		}
	}

	v, err := FromAny(decoded)
	if err != nil {
		return String(s)
	}
	return v
}

// FromAny converts a decoded Go value (from YAML, koanf or a caller-supplied
// map) into a Value.
func FromAny(x any) (Value, error) {
	switch v := x.(type) {
	case Value:
		return v, nil
	case int:
		return Int(int64(v)), nil
	case int8:
		return Int(int64(v)), nil
	case int16:
		return Int(int64(v)), nil
	case int32:
		return Int(int64(v)), nil
	case int64:
		return Int(v), nil
	case uint:
		return fromUint(uint64(v))
	case uint8:
		return Int(int64(v)), nil
	case uint16:
		return Int(int64(v)), nil
	case uint32:
		return Int(int64(v)), nil
	case uint64:
		return fromUint(v)
	case float32:
		return Float(float64(v)), nil
	case float64:
		return Float(v), nil
	case bool:
		return Bool(v), nil
	case string:
		return String(v), nil
	case []any:
		items := make([]Value, 0, len(v))
		for i, item := range v {
			iv, err := FromAny(item)
			if err != nil {
				return Value{}, fmt.Errorf("list element %d: %w", i, err)
			}
			items = append(items, iv)
		}
		return Value{kind: KindList, list: items}, nil
	case []string:
		items := make([]Value, len(v))
		for i, item := range v {
			items[i] = String(item)
		}
		return Value{kind: KindList, list: items}, nil
	case []int:
		items := make([]Value, len(v))
		for i, item := range v {
			items[i] = Int(int64(item))
		}
		return Value{kind: KindList, list: items}, nil
	case []Value:
		return List(v...), nil
	default:
		return Value{}, fmt.Errorf("unsupported value type %T", x)
	}
}

func fromUint(u uint64) (Value, error) {
	if u > math.MaxInt64 {
		return Value{}, fmt.Errorf("integer %d overflows int64", u)
	}
	return Int(int64(u)), nil
}

// FromMap converts every entry of m with FromAny.
func FromMap(m map[string]any) (map[string]Value, error) {
	out := make(map[string]Value, len(m))
	for k, x := range m {
		v, err := FromAny(x)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

package expr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/svpgen/internal/value"
)

func TestLexer_Operators(t *testing.T) {
	tokens, err := NewLexer("$a != !b && ~c || d // 2").Tokenize()
	require.NoError(t, err)

	expected := []struct {
		typ TokenType
		val string
	}{
		{TokenIdent, "a"},
		{TokenNe, "!="},
		{TokenNot, "!"},
		{TokenIdent, "b"},
		{TokenAnd, "&&"},
		{TokenNot, "~"},
		{TokenIdent, "c"},
		{TokenOr, "||"},
		{TokenIdent, "d"},
		{TokenDSlash, "//"},
		{TokenInt, "2"},
		{TokenEOF, ""},
	}

	require.Len(t, tokens, len(expected))
	for i, exp := range expected {
		assert.Equal(t, exp.typ, tokens[i].Type, "token[%d] type", i)
		assert.Equal(t, exp.val, tokens[i].Value, "token[%d] value", i)
	}
}

func TestLexer_VarOpen(t *testing.T) {
	tokens, err := NewLexer("${nums[0]}").Tokenize()
	require.NoError(t, err)

	types := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		types[i] = tok.Type
	}
	assert.Equal(t, []TokenType{
		TokenVarOpen, TokenIdent, TokenLBracket, TokenInt, TokenRBracket, TokenRBrace, TokenEOF,
	}, types)
}

func TestLexer_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unterminated string", `"abc`},
		{"malformed number", "12abc"},
		{"bare sigil", "$ + 1"},
		{"unknown character", "a @ b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLexer(tt.input).Tokenize()
			var se *SyntaxError
			require.ErrorAs(t, err, &se)
		})
	}
}

func TestParse_Structure(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"(1 + 2) * 3", "((1 + 2) * 3)"},
		{"1 - 2 - 3", "((1 - 2) - 3)"},
		{"-2 * 3", "((-2) * 3)"},
		{"not a == b", "(not (a == b))"},
		{"a && b || c", "((a and b) or c)"},
		{"a || b && c", "(a or (b and c))"},
		{"!$x", "(not x)"},
		{"1 << 2 + 1", "(1 << (2 + 1))"},
		{"a | b & c", "(a | (b & c))"},
		{"${nums[1+1]}", "nums[(1 + 1)]"},
		{"m[0][1]", "m[0][1]"},
		{"[1, 'a', [2]]", `[1, "a", [2]]`},
		{"[]", "[]"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			e, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, e.String())
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []string{
		"",
		"   ",
		"1 +",
		"(1 + 2",
		"a b",
		"${x",
		"${ 1 }",
		"[1, 2",
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			var se *SyntaxError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, input, se.Src)
		})
	}
}

func TestEvaluate(t *testing.T) {
	env := MapEnv{
		"i":    value.Int(2),
		"f":    value.Float(1.5),
		"s":    value.String("ab"),
		"nums": value.List(value.Int(10), value.Int(20), value.Int(30)),
		"grid": value.List(value.List(value.Int(1), value.Int(2)), value.List(value.Int(3), value.Int(4))),
		"on":   value.Bool(true),
	}

	tests := []struct {
		name  string
		input string
		want  value.Value
	}{
		{"int arithmetic", "1 + 2 * 3", value.Int(7)},
		{"exact division", "6 / 3", value.Int(2)},
		{"inexact division", "7 / 2", value.Float(3.5)},
		{"floor division", "-7 // 2", value.Int(-4)},
		{"modulo", "-7 % 3", value.Int(2)},
		{"float mix", "$f * 2", value.Float(3)},
		{"sigil var", "$i + 1", value.Int(3)},
		{"bare var", "i + 1", value.Int(3)},
		{"brace var", "${i} * ${i}", value.Int(4)},
		{"string concat", "s + 'c'", value.String("abc")},
		{"index", "nums[0]", value.Int(10)},
		{"index expression", "${nums[1+1]}", value.Int(30)},
		{"negative index", "nums[-1]", value.Int(30)},
		{"nested index", "grid[1][0]", value.Int(3)},
		{"index by variable", "nums[i]", value.Int(30)},
		{"list literal", "[i, i + 1]", value.List(value.Int(2), value.Int(3))},
		{"comparison", "$i < 3", value.Bool(true)},
		{"not equal", "$i != 2", value.Bool(false)},
		{"bang", "!on", value.Bool(false)},
		{"tilde", "~0", value.Bool(true)},
		{"and", "on && i > 1", value.Bool(true)},
		{"or keyword", "0 or ''", value.Bool(false)},
		{"shift", "1 << 4", value.Int(16)},
		{"bitwise", "0xF0 | 0x0F", value.Int(255)},
		{"xor", "6 ^ 3", value.Int(5)},
		{"true keyword", "True == 1", value.Bool(true)},
		{"hex", "0x10", value.Int(16)},
		{"leading zero decimal", "010", value.Int(10)},
		{"undefined is zero", "missing + 5", value.Int(5)},
		{"list truthiness", "not []", value.Bool(true)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.input, env, Options{})
			require.NoError(t, err)
			assert.True(t, value.Equal(tt.want, got), "got %s (%s), want %s (%s)", got, got.Kind(), tt.want, tt.want.Kind())
			assert.Equal(t, tt.want.Kind(), got.Kind())
		})
	}
}

func TestEvaluate_ShortCircuit(t *testing.T) {
	var seen []string
	opts := Options{OnUndefined: func(name string) { seen = append(seen, name) }}

	v, err := Evaluate("0 and nope", MapEnv{}, opts)
	require.NoError(t, err)
	assert.False(t, v.Truthy())

	v, err = Evaluate("1 or nope", MapEnv{}, opts)
	require.NoError(t, err)
	assert.True(t, v.Truthy())

	// Right operands that are never evaluated must not fault.
	_, err = Evaluate("0 && 1 / 0", MapEnv{}, opts)
	require.NoError(t, err)

	assert.Empty(t, seen)
}

func TestEvaluate_Undefined(t *testing.T) {
	var seen []string
	opts := Options{OnUndefined: func(name string) { seen = append(seen, name) }}

	v, err := Evaluate("missing", MapEnv{}, opts)
	require.NoError(t, err)
	assert.Equal(t, value.KindInt, v.Kind())
	assert.Equal(t, "0", v.String())
	assert.Equal(t, []string{"missing"}, seen)

	_, err = Evaluate("missing + 1", MapEnv{}, Options{Strict: true})
	var ue *UndefinedError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "missing", ue.Name)
}

func TestEvaluate_Errors(t *testing.T) {
	env := MapEnv{"nums": value.List(value.Int(1)), "n": value.Int(3)}

	t.Run("index out of range", func(t *testing.T) {
		_, err := Evaluate("nums[5]", env, Options{})
		var ie *value.IndexError
		require.ErrorAs(t, err, &ie)
		var ee *EvalError
		require.ErrorAs(t, err, &ee)
		assert.Equal(t, "nums[5]", ee.Src)
	})

	t.Run("index non-list", func(t *testing.T) {
		_, err := Evaluate("n[0]", env, Options{})
		var ie *value.IndexError
		require.ErrorAs(t, err, &ie)
	})

	t.Run("division by zero", func(t *testing.T) {
		_, err := Evaluate("n / 0", env, Options{})
		assert.True(t, errors.Is(err, value.ErrDivisionByZero))
	})

	t.Run("type error", func(t *testing.T) {
		_, err := Evaluate("nums - 1", env, Options{})
		var te *value.TypeError
		require.ErrorAs(t, err, &te)
	})

	t.Run("unordered comparison", func(t *testing.T) {
		_, err := Evaluate("nums < 'a'", env, Options{})
		var ee *EvalError
		require.ErrorAs(t, err, &ee)
	})
}

func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParse("1 +") })
	assert.NotPanics(t, func() { MustParse("1 + 1") })
}

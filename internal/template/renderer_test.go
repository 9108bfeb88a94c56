package template

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/svpgen/internal/diag"
	"github.com/leapstack-labs/svpgen/internal/testutil"
	"github.com/leapstack-labs/svpgen/internal/value"
)

func lines(s ...string) string { return strings.Join(s, "\n") }

func expand(t *testing.T, input string, bindings map[string]value.Value) *Result {
	t.Helper()
	res, err := Expand(input, bindings, Options{File: "test.svp", Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)
	return res
}

func TestRenderer_Substitution(t *testing.T) {
	bindings := map[string]value.Value{
		"w":    value.Int(16),
		"name": value.String("fifo"),
		"nums": value.List(value.Int(10), value.Int(20), value.Int(30)),
		"m":    value.List(value.List(value.Int(1), value.Int(2))),
		"f":    value.Float(2),
		"on":   value.Bool(true),
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain text", "assign a = b;", "assign a = b;"},
		{"simple", "logic [${w}-1:0] q;", "logic [16-1:0] q;"},
		{"string", "module ${name}_top;", "module fifo_top;"},
		{"index", "${nums[0]}", "10"},
		{"index expression", "${nums[1+1]}", "30"},
		{"negative index", "${nums[-1]}", "30"},
		{"nested index", "${m[0][1]}", "2"},
		{"list value", "${nums}", "[10, 20, 30]"},
		{"float", "${f}", "2.0"},
		{"bool", "${on}", "true"},
		{"bool in list", lines("//:$l = [True, False]", "${l} ${l[1]}"), "[true, false] false"},
		{"undefined", "x=${missing}", "x=0"},
		{"whitespace preserved", "\t  ${w}  ", "\t  16  "},
		{"non token kept", "cost $w ${ w }", "cost $w ${ w }"},
		{"expression is not a token", "${1 + 2} ${w * 2}", "${1 + 2} ${w * 2}"},
		{"several", "${w}${w}-${name}", "1616-fifo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := expand(t, tt.input, bindings)
			assert.Equal(t, tt.expected, res.Output)
			assert.Empty(t, res.Warnings)
		})
	}
}

func TestRenderer_IndexFailure(t *testing.T) {
	bindings := map[string]value.Value{"nums": value.List(value.Int(1)), "n": value.Int(3)}

	res := expand(t, lines("a ${nums[5]} b ${nums[0]}", "${n[0]}"), bindings)

	assert.Equal(t, lines("a ${nums[5]} b 1", "${n[0]}"), res.Output)
	require.Len(t, res.Warnings, 2)
	for i, w := range res.Warnings {
		assert.Equal(t, diag.IndexFailure, w.Kind)
		assert.Equal(t, "test.svp", w.File)
		assert.Equal(t, i+1, w.Line)
	}
}

func TestRenderer_ForLoop(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "counting",
			input:    lines("//:for($i=0;$i<3;$i++){", "${i}", "//:}"),
			expected: lines("0", "1", "2"),
		},
		{
			name:     "zero iterations",
			input:    lines("before", "//:for($i=5;$i<3;$i++){", "${i}", "//:}", "after"),
			expected: lines("before", "after"),
		},
		{
			name:     "compound step",
			input:    lines("//:for($i = 0; $i < 10; $i += 4){", "${i}", "//:}"),
			expected: lines("0", "4", "8"),
		},
		{
			name:     "decrement",
			input:    lines("//:for($i=2;$i>=0;$i--){", "${i}", "//:}"),
			expected: lines("2", "1", "0"),
		},
		{
			name:     "bare step expression",
			input:    lines("//:for($i=1;$i<20;$i*3){", "${i}", "//:}"),
			expected: lines("1", "3", "9"),
		},
		{
			name:     "multiplicative step",
			input:    lines("//:for($i=1;$i<=8;$i*=2){", "${i}", "//:}"),
			expected: lines("1", "2", "4", "8"),
		},
		{
			name:     "step on another variable",
			input:    lines("//:$n = 0", "//:for($i=0;$n<2;$n++){", "${i}${n}", "//:}"),
			expected: lines("00", "01"),
		},
		{
			name: "nested",
			input: lines(
				"//:for($i=0;$i<2;$i++){",
				"//:for($j=0;$j<2;$j++){",
				"(${i}, ${j})",
				"//:}",
				"//:}",
			),
			expected: lines("(0, 0)", "(0, 1)", "(1, 0)", "(1, 1)"),
		},
		{
			name:     "iterate list",
			input:    lines("//:$ports = ['a', 'b']", "//:for($k=0;$k<2;$k++){", "input ${ports[k]};", "//:}"),
			expected: lines("input a;", "input b;"),
		},
		{
			name: "body assignment accumulates",
			input: lines(
				"//:$sum = 0",
				"//:for($i=1;$i<=4;$i++){",
				"//:$sum = $sum + $i",
				"//:}",
				"${sum}",
			),
			expected: "10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := expand(t, tt.input, nil)
			assert.Equal(t, tt.expected, res.Output)
		})
	}
}

func TestRenderer_LoopMergeUp(t *testing.T) {
	input := lines(
		"//:for($i=0;$i<3;$i++){",
		"//:$last=${i}",
		"//:}",
		"${last}",
		"${i}",
	)

	res := expand(t, input, nil)

	assert.Equal(t, lines("2", "3"), res.Output, "body and loop bindings are visible after the loop")
	assert.Equal(t, "2", res.Bindings["last"].String())
}

func TestRenderer_IfStatement(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"if true", lines("//:if(1){", "YES", "//:}"), "YES"},
		{"if false", lines("a", "//:if(0){", "YES", "//:}", "b"), lines("a", "b")},
		{"else", lines("//:if(false){", "A", "//:else{", "B", "//:}"), "B"},
		{"elsif", lines("//:if(false){", "A", "//:elsif(true){", "B", "//:else{", "C", "//:}"), "B"},
		{"first truthy wins", lines("//:if(1){", "A", "//:elsif(1){", "B", "//:}"), "A"},
		{"no branch taken", lines("//:if(0){", "A", "//:elsif(0){", "B", "//:}"), ""},
		{"connectives", lines("//:$x = 3", "//:if($x > 1 && !($x == 4) || 0){", "ok", "//:}"), "ok"},
		{
			"nested if in for",
			lines("//:for($i=0;$i<4;$i++){", "//:if($i % 2 == 1){", "${i}", "//:}", "//:}"),
			lines("1", "3"),
		},
		{
			"nested chain inside branch",
			lines(
				"//:if(1){",
				"//:if(0){",
				"inner-a",
				"//:else{",
				"inner-b",
				"//:}",
				"outer-tail",
				"//:else{",
				"outer-else",
				"//:}",
			),
			lines("inner-b", "outer-tail"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := expand(t, tt.input, nil)
			assert.Equal(t, tt.expected, res.Output)
		})
	}
}

func TestRenderer_SkippedBranchesHaveNoSideEffects(t *testing.T) {
	input := lines(
		"//:$x = 1",
		"//:if(false){",
		"//:$x = 10",
		"//:$a = 1",
		"//:elsif(true){",
		"//:$b = 2",
		"//:else{",
		"//:$x = 30",
		"//:$c = 3",
		"//:}",
		"${x} ${b}",
	)

	res := expand(t, input, nil)

	assert.Equal(t, "1 2", res.Output)
	assert.NotContains(t, res.Bindings, "a")
	assert.NotContains(t, res.Bindings, "c")
	assert.Equal(t, "2", res.Bindings["b"].String())
}

func TestRenderer_NoBranchMergesNothing(t *testing.T) {
	res := expand(t, lines("//:if(0){", "//:$x = 1", "//:}"), nil)
	assert.NotContains(t, res.Bindings, "x")
}

func TestRenderer_TruthyFalsy(t *testing.T) {
	tests := []struct {
		name      string
		condition string
		expected  string
	}{
		{"True", `True`, "yes"},
		{"False", `False`, "no"},
		{"1", `1`, "yes"},
		{"0", `0`, "no"},
		{"float zero", `0.0`, "no"},
		{"empty string", `""`, "no"},
		{"non-empty string", `"hello"`, "yes"},
		{"empty list", `[]`, "no"},
		{"non-empty list", `[0]`, "yes"},
		{"undefined", `$nothing`, "no"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := lines("//:if("+tt.condition+"){", "yes", "//:else{", "no", "//:}")
			res := expand(t, input, nil)
			assert.Equal(t, tt.expected, res.Output)
		})
	}
}

func TestRenderer_Assignment(t *testing.T) {
	input := lines(
		"//:$x = missing + 5",
		"//:$y = $x * 2;",
		"//:$y += 1",
		"//:$z = [1, 2, 3]",
		"//:$s = 'abc'",
		"${x} ${y} ${z} ${s}",
	)

	res := expand(t, input, nil)
	assert.Equal(t, "5 11 [1, 2, 3] abc", res.Output)
}

func TestRenderer_BindingPrecedence(t *testing.T) {
	opts := Options{
		File:    "test.svp",
		Globals: map[string]value.Value{"a": value.Int(1), "b": value.Int(1)},
	}
	res, err := Expand(lines("//:$c = 3", "${a}${b}${c}"), map[string]value.Value{"b": value.Int(2), "c": value.Int(2)}, opts)
	require.NoError(t, err)
	assert.Equal(t, "123", res.Output)
}

func TestRenderer_Idempotent(t *testing.T) {
	input := lines("module m;", "  // comment", "", "  assign a = $b;", "endmodule", "")

	first := expand(t, input, nil)
	second := expand(t, first.Output, nil)

	assert.Equal(t, input, first.Output)
	assert.Equal(t, first.Output, second.Output)
}

func TestRenderer_StrayCloseWarning(t *testing.T) {
	res := expand(t, lines("a", "//:}", "b"), nil)
	assert.Equal(t, lines("a", "b"), res.Output)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, diag.StrayBlockClose, res.Warnings[0].Kind)
	assert.Equal(t, 2, res.Warnings[0].Line)
}

func TestRenderer_UndefinedIsLoggedAtDebug(t *testing.T) {
	rec := testutil.NewRecorder()
	_, err := Expand("${ghost}", nil, Options{Logger: rec.Logger()})
	require.NoError(t, err)
	assert.Contains(t, rec.Messages(slog.LevelDebug), "undefined variable defaults to 0")
	for _, r := range rec.Records(slog.LevelInfo) {
		assert.NotContains(t, r.Message, "undefined")
	}
}

func TestRenderer_Strict(t *testing.T) {
	tests := []string{
		"${missing}",
		"//:$x = missing + 1",
		lines("//:if($missing){", "//:}"),
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			_, err := Expand(input, nil, Options{File: "t.svp", Strict: true})
			var uve *UndefinedVariableError
			require.ErrorAs(t, err, &uve)
			assert.Equal(t, "missing", uve.Name)
		})
	}
}

func TestRenderer_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"division by zero", "//:$x = 1 / 0"},
		{"type error in condition", lines("//:if([1] - 1){", "//:}")},
		{"index failure in directive", lines("//:$l = [1]", "//:$x = $l[3]")},
		{"bad init", lines("//:for($i='a';$i<1;$i++){", "//:}")},
		{"type error in substitution", "${s[0 - 'a']}x"},
		{"string repetition too large", lines(`//:$s = "ab" * 9223372036854775807`, "${s}")},
		{"list repetition too large", lines("//:$l = [1, 2] * 4611686018427387904", "${l}")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Expand(tt.input, nil, Options{File: "test.svp"})
			require.Error(t, err)
			var ee *ExpressionError
			assert.ErrorAs(t, err, &ee, "expected ExpressionError, got %T: %v", err, err)
		})
	}
}

func TestRenderer_NoPartialOutputOnFatal(t *testing.T) {
	res, err := Expand(lines("line one", "//:$x = 1 / 0", "line three"), nil, Options{})
	require.Error(t, err)
	assert.Nil(t, res)
}

func TestRenderer_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ExpandContext(ctx, lines("//:for($i=0;1;$i++){", "x", "//:}"), nil, Options{})
	assert.True(t, errors.Is(err, context.Canceled))
}

type fakeIncluder struct {
	macros   map[string]value.Value
	warnings []diag.Warning
	err      error
	gotPath  string
	gotFrom  string
}

func (f *fakeIncluder) IncludeMacros(path, fromFile string) (map[string]value.Value, []diag.Warning, error) {
	f.gotPath, f.gotFrom = path, fromFile
	return f.macros, f.warnings, f.err
}

func TestRenderer_Include(t *testing.T) {
	inc := &fakeIncluder{
		macros:   map[string]value.Value{"WIDTH": value.Int(16), "NAME": value.String("core")},
		warnings: []diag.Warning{{Kind: diag.MacroRedefinition, File: "defs.svh", Line: 3, Message: "WIDTH redefined"}},
	}

	input := lines(`//:$include = "defs.svh"`, "${NAME} ${WIDTH}", "//:$w2 = WIDTH * 2", "${w2}")
	res, err := Expand(input, nil, Options{File: "rtl/top.svp", Includer: inc})
	require.NoError(t, err)

	assert.Equal(t, lines("core 16", "32"), res.Output)
	assert.Equal(t, "defs.svh", inc.gotPath)
	assert.Equal(t, "rtl/top.svp", inc.gotFrom)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, diag.MacroRedefinition, res.Warnings[0].Kind)
}

func TestRenderer_IncludeErrors(t *testing.T) {
	t.Run("no includer", func(t *testing.T) {
		_, err := Expand(`//:$include = "defs.svh"`, nil, Options{})
		var dse *DirectiveSyntaxError
		require.ErrorAs(t, err, &dse)
	})

	t.Run("non-string target", func(t *testing.T) {
		_, err := Expand(`//:$include = 5`, nil, Options{Includer: &fakeIncluder{}})
		var dse *DirectiveSyntaxError
		require.ErrorAs(t, err, &dse)
	})

	t.Run("includer failure", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := Expand(`//:$include = "x.svh"`, nil, Options{Includer: &fakeIncluder{err: boom}})
		assert.ErrorIs(t, err, boom)
	})
}

func TestRenderer_FullExample(t *testing.T) {
	input := lines(
		"module regs #(parameter W = ${width}) (",
		"//:for($i = 0; $i < $count; $i++){",
		"//:if($i == $count - 1){",
		"  output logic [W-1:0] r${i}",
		"//:else{",
		"  output logic [W-1:0] r${i},",
		"//:}",
		"//:}",
		");",
		"endmodule",
	)

	res := expand(t, input, map[string]value.Value{"width": value.Int(8), "count": value.Int(3)})

	expected := lines(
		"module regs #(parameter W = 8) (",
		"  output logic [W-1:0] r0,",
		"  output logic [W-1:0] r1,",
		"  output logic [W-1:0] r2",
		");",
		"endmodule",
	)
	assert.Equal(t, expected, res.Output)
}

package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_ValidInput(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantNodes int
		checkFunc func(t *testing.T, tmpl *Template)
	}{
		{
			name:      "plain text",
			input:     "wire a;",
			wantNodes: 1,
			checkFunc: func(t *testing.T, tmpl *Template) {
				text, ok := tmpl.Nodes[0].(*TextNode)
				require.True(t, ok, "expected TextNode, got %T", tmpl.Nodes[0])
				assert.Equal(t, "wire a;", text.Text)
				require.Len(t, text.Segments, 1)
				assert.Nil(t, text.Segments[0].Expr)
			},
		},
		{
			name:      "substitution",
			input:     "wire [${w}-1:0] data_${i};",
			wantNodes: 1,
			checkFunc: func(t *testing.T, tmpl *Template) {
				text, ok := tmpl.Nodes[0].(*TextNode)
				require.True(t, ok, "expected TextNode, got %T", tmpl.Nodes[0])
				require.Len(t, text.Segments, 5)
				assert.Equal(t, "wire [", text.Segments[0].Text)
				assert.Equal(t, "${w}", text.Segments[1].Text)
				require.NotNil(t, text.Segments[1].Expr)
				assert.Equal(t, 7, text.Segments[1].Column)
				assert.Equal(t, "-1:0] data_", text.Segments[2].Text)
				assert.Equal(t, "${i}", text.Segments[3].Text)
				assert.Equal(t, ";", text.Segments[4].Text)
			},
		},
		{
			name:      "assignment",
			input:     "//:$width = 8 * 2;",
			wantNodes: 1,
			checkFunc: func(t *testing.T, tmpl *Template) {
				assign, ok := tmpl.Nodes[0].(*AssignNode)
				require.True(t, ok, "expected AssignNode, got %T", tmpl.Nodes[0])
				assert.Equal(t, "width", assign.Name)
				assert.Equal(t, "(8 * 2)", assign.Value.String())
			},
		},
		{
			name:      "compound assignment",
			input:     "//:$n += 2",
			wantNodes: 1,
			checkFunc: func(t *testing.T, tmpl *Template) {
				assign, ok := tmpl.Nodes[0].(*AssignNode)
				require.True(t, ok, "expected AssignNode, got %T", tmpl.Nodes[0])
				assert.Equal(t, "n", assign.Name)
				assert.Equal(t, "(n + 2)", assign.Value.String())
			},
		},
		{
			name:      "include",
			input:     `//:$include = "defs.svh"`,
			wantNodes: 1,
			checkFunc: func(t *testing.T, tmpl *Template) {
				inc, ok := tmpl.Nodes[0].(*IncludeNode)
				require.True(t, ok, "expected IncludeNode, got %T", tmpl.Nodes[0])
				assert.Equal(t, `"defs.svh"`, inc.Path.String())
			},
		},
		{
			name: "for loop",
			input: `//:for($i = 0; $i < 3; $i++){
${i}
//:}`,
			wantNodes: 1,
			checkFunc: func(t *testing.T, tmpl *Template) {
				forBlock, ok := tmpl.Nodes[0].(*ForBlock)
				require.True(t, ok, "expected ForBlock, got %T", tmpl.Nodes[0])
				assert.Equal(t, "i", forBlock.VarName)
				assert.Equal(t, "0", forBlock.Init.String())
				assert.Equal(t, "(i < 3)", forBlock.Cond.String())
				assert.Equal(t, "i", forBlock.StepVar)
				assert.Equal(t, "(i + 1)", forBlock.Step.String())
				require.Len(t, forBlock.Body, 1)
			},
		},
		{
			name:      "for loop stepping another variable",
			input:     "//:for($i=0;$i<3;$j = $j + $i){\n//:}",
			wantNodes: 1,
			checkFunc: func(t *testing.T, tmpl *Template) {
				forBlock, ok := tmpl.Nodes[0].(*ForBlock)
				require.True(t, ok, "expected ForBlock, got %T", tmpl.Nodes[0])
				assert.Equal(t, "j", forBlock.StepVar)
				assert.Empty(t, forBlock.Body)
			},
		},
		{
			name: "if-elsif-else",
			input: `//:if($a){
A
//:elsif($b){
B
//:elsif($c){
C
//:else{
D
//:}`,
			wantNodes: 1,
			checkFunc: func(t *testing.T, tmpl *Template) {
				ifBlock, ok := tmpl.Nodes[0].(*IfBlock)
				require.True(t, ok, "expected IfBlock, got %T", tmpl.Nodes[0])
				require.Len(t, ifBlock.Branches, 4)
				assert.Equal(t, "a", ifBlock.Branches[0].Cond.String())
				assert.Equal(t, "b", ifBlock.Branches[1].Cond.String())
				assert.Equal(t, "c", ifBlock.Branches[2].Cond.String())
				assert.True(t, ifBlock.Branches[3].IsElse())
				for _, b := range ifBlock.Branches {
					assert.Len(t, b.Body, 1)
				}
			},
		},
		{
			name: "nested blocks",
			input: `//:for($i=0;$i<2;$i++){
//:if($i > 0){
//:for($j=0;$j<2;$j++){
${i}${j}
//:}
//:else{
none
//:}
//:}
after`,
			wantNodes: 2,
			checkFunc: func(t *testing.T, tmpl *Template) {
				forBlock, ok := tmpl.Nodes[0].(*ForBlock)
				require.True(t, ok, "expected ForBlock, got %T", tmpl.Nodes[0])
				require.Len(t, forBlock.Body, 1)

				ifBlock, ok := forBlock.Body[0].(*IfBlock)
				require.True(t, ok, "expected nested IfBlock in ForBlock body")
				require.Len(t, ifBlock.Branches, 2, "the inner close must not end the outer chain")

				_, ok = ifBlock.Branches[0].Body[0].(*ForBlock)
				assert.True(t, ok, "expected ForBlock inside the if branch")

				_, ok = tmpl.Nodes[1].(*TextNode)
				assert.True(t, ok)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := ParseString(tt.input, "test.svp")
			require.NoError(t, err)
			require.Len(t, tmpl.Nodes, tt.wantNodes)
			if tt.checkFunc != nil {
				tt.checkFunc(t, tmpl)
			}
		})
	}
}

func TestParser_StrayClose(t *testing.T) {
	tmpl, err := ParseString("a\n//:}\nb", "test.svp")
	require.NoError(t, err)
	require.Len(t, tmpl.Nodes, 2)
	require.Len(t, tmpl.StrayCloses, 1)
	assert.Equal(t, 2, tmpl.StrayCloses[0].Line)
}

func TestParser_Errors(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		unmatched bool
		exprErr   bool
		line      int
	}{
		{
			name:      "unterminated for",
			input:     "//:for($i=0;$i<3;$i++){\n${i}",
			unmatched: true,
			line:      1,
		},
		{
			name:      "unterminated if",
			input:     "x\n//:if(1){\nyes\n//:else{\nno",
			unmatched: true,
			line:      2,
		},
		{
			name:      "else without if",
			input:     "yes\n//:else{\nno\n//:}",
			unmatched: true,
			line:      2,
		},
		{
			name:      "elsif inside for",
			input:     "//:for($i=0;$i<3;$i++){\n//:elsif(1){\n//:}",
			unmatched: true,
			line:      2,
		},
		{
			name:  "malformed for header",
			input: "//:for($i=0;$i<3){\n//:}",
			line:  1,
		},
		{
			name:  "for without brace",
			input: "//:for($i=0;$i<3;$i++)\n//:}",
			line:  1,
		},
		{
			name:  "malformed if header",
			input: "//:if(1)\n//:}",
			line:  1,
		},
		{
			name:  "duplicate else",
			input: "//:if(0){\n//:else{\n//:else{\n//:}",
			line:  3,
		},
		{
			name:  "elsif after else",
			input: "//:if(0){\n//:else{\n//:elsif(1){\n//:}",
			line:  3,
		},
		{
			name:  "malformed assignment",
			input: "//:$x == 3",
			line:  1,
		},
		{
			name:    "bad expression",
			input:   "//:$x = 1 +",
			exprErr: true,
			line:    1,
		},
		{
			name:    "bad index in substitution",
			input:   "ok\nvalue ${nums[1 +]}",
			exprErr: true,
			line:    2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString(tt.input, "test.svp")
			require.Error(t, err)

			var tmplErr Error
			require.ErrorAs(t, err, &tmplErr)
			assert.Equal(t, tt.line, tmplErr.Position().Line)

			if tt.unmatched {
				var ube *UnmatchedBlockError
				assert.ErrorAs(t, err, &ube, "expected UnmatchedBlockError, got %T: %v", err, err)
			}
			if tt.exprErr {
				var ee *ExpressionError
				assert.ErrorAs(t, err, &ee, "expected ExpressionError, got %T: %v", err, err)
			} else {
				var dse *DirectiveSyntaxError
				assert.ErrorAs(t, err, &dse, "expected DirectiveSyntaxError, got %T: %v", err, err)
			}
		})
	}
}

func TestNormalizeStep(t *testing.T) {
	tests := []struct {
		stmt     string
		wantName string
		wantSrc  string
	}{
		{"$i++", "i", "i + 1"},
		{"i--", "i", "i - 1"},
		{"++$i", "i", "i + 1"},
		{"$i += 2", "i", "i + (2)"},
		{"$i *= $k + 1", "i", "i * ($k + 1)"},
		{"$i <<= 1", "i", "i << (1)"},
		{"$i //= 2", "i", "i // (2)"},
		{"$i = $i + 3", "i", "$i + 3"},
		{"$j = $i * 2;", "j", "$i * 2"},
		{"$i + 1", "loop", "$i + 1"},
		{"$i == 1", "loop", "$i == 1"},
	}

	for _, tt := range tests {
		t.Run(tt.stmt, func(t *testing.T) {
			name, src := normalizeStep(tt.stmt, "loop")
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantSrc, src)
		})
	}
}

func TestSplitSegments_NonTokens(t *testing.T) {
	inputs := []string{
		"cost is $5",
		"${",
		"${ spaced }",
		"${1abc}",
		"${a[0}",
		"${a",
		`${a["]"}`,
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			segs, err := splitSegments(input, Position{Line: 1})
			require.NoError(t, err)
			for _, seg := range segs {
				assert.Nil(t, seg.Expr, "no substitution expected in %q", input)
			}
		})
	}
}

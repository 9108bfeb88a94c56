package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/svpgen/internal/diag"
)

func newTestRenderer(isTTY bool, mode Mode) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return NewRendererWithTTY(out, errOut, isTTY, mode), out, errOut
}

func TestRenderer_EffectiveMode(t *testing.T) {
	tests := []struct {
		mode  Mode
		isTTY bool
		want  Mode
	}{
		{ModeAuto, true, ModeText},
		{ModeAuto, false, ModeMarkdown},
		{"", false, ModeMarkdown},
		{ModeJSON, true, ModeJSON},
		{ModeText, false, ModeText},
	}
	for _, tt := range tests {
		r, _, _ := newTestRenderer(tt.isTTY, tt.mode)
		assert.Equal(t, tt.want, r.EffectiveMode(), "mode=%q tty=%v", tt.mode, tt.isTTY)
	}
}

func TestRenderer_NonTTYFromBuffer(t *testing.T) {
	r := NewRenderer(&bytes.Buffer{}, &bytes.Buffer{}, ModeAuto)
	assert.False(t, r.IsTTY())
	assert.Equal(t, ModeMarkdown, r.EffectiveMode())
}

func TestRenderer_Table(t *testing.T) {
	headers := []string{"Name", "Value"}
	rows := [][]string{{"W", "16"}, {"X", "16+1"}}

	t.Run("markdown", func(t *testing.T) {
		r, out, _ := newTestRenderer(false, ModeMarkdown)
		r.Table(headers, rows)
		s := strings.ToLower(out.String())
		assert.Contains(t, s, "| name | value |")
		assert.Contains(t, s, "| x | 16+1 |")
	})

	t.Run("text", func(t *testing.T) {
		r, out, _ := newTestRenderer(false, ModeText)
		r.Table(headers, rows)
		s := out.String()
		assert.Contains(t, s, "NAME")
		assert.Contains(t, s, "16+1")
		assert.NotContains(t, s, "\x1b[")
	})
}

func TestRenderer_JSONAndYAML(t *testing.T) {
	v := map[string]string{"W": "16"}

	r, out, _ := newTestRenderer(false, ModeJSON)
	require.NoError(t, r.JSON(v))
	assert.Equal(t, "{\n  \"W\": \"16\"\n}\n", out.String())

	out.Reset()
	require.NoError(t, r.YAML(v))
	assert.Equal(t, "W: \"16\"\n", out.String())
}

func TestRenderer_Messages(t *testing.T) {
	r, out, errOut := newTestRenderer(false, ModeText)

	r.Success("done")
	r.Warning("careful")
	r.Error("broken")
	r.Warnings([]diag.Warning{{Kind: diag.IndexFailure, File: "a.svp", Line: 3, Message: "boom"}})

	assert.Equal(t, "✓ done\n", out.String())
	lines := strings.Split(strings.TrimSpace(errOut.String()), "\n")
	assert.Equal(t, []string{
		"warning: careful",
		"error: broken",
		"warning: a.svp:3: index-failure: boom",
	}, lines)
	assert.Equal(t, "x", r.Muted("x"))
}

func TestRenderer_Header(t *testing.T) {
	r, out, _ := newTestRenderer(false, ModeMarkdown)
	r.Header("Macros")
	assert.Equal(t, "## Macros\n\n", out.String())

	r, out, _ = newTestRenderer(false, ModeText)
	r.Header("Macros")
	assert.Equal(t, "Macros\n", out.String())
}

// Package diag defines the non-fatal diagnostics reported by template
// expansion and macro resolution.
package diag

import (
	"fmt"
	"log/slog"
)

// Kind classifies a warning.
type Kind int

// Kind constants.
const (
	IndexFailure Kind = iota
	UnresolvedIncludeFile
	MalformedMacroDirective
	CircularMacroReference
	MacroRedefinition
	DuplicateElse
	StrayBlockClose
	UnterminatedConditional
)

var kindNames = map[Kind]string{
	IndexFailure:            "index-failure",
	UnresolvedIncludeFile:   "unresolved-include",
	MalformedMacroDirective: "malformed-macro-directive",
	CircularMacroReference:  "circular-macro-reference",
	MacroRedefinition:       "macro-redefinition",
	DuplicateElse:           "duplicate-else",
	StrayBlockClose:         "stray-block-close",
	UnterminatedConditional: "unterminated-conditional",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// MarshalText lets warnings serialize with readable kinds.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Warning is a single non-fatal diagnostic. Line is 1-based; zero means the
// warning is not tied to a line.
type Warning struct {
	Kind    Kind   `json:"kind" yaml:"kind"`
	File    string `json:"file,omitempty" yaml:"file,omitempty"`
	Line    int    `json:"line,omitempty" yaml:"line,omitempty"`
	Message string `json:"message" yaml:"message"`
}

func (w Warning) String() string {
	switch {
	case w.File != "" && w.Line > 0:
		return fmt.Sprintf("%s:%d: %s: %s", w.File, w.Line, w.Kind, w.Message)
	case w.File != "":
		return fmt.Sprintf("%s: %s: %s", w.File, w.Kind, w.Message)
	case w.Line > 0:
		return fmt.Sprintf("line %d: %s: %s", w.Line, w.Kind, w.Message)
	default:
		return fmt.Sprintf("%s: %s", w.Kind, w.Message)
	}
}

// Collector accumulates warnings and mirrors each one to a logger at Warn.
type Collector struct {
	logger   *slog.Logger
	warnings []Warning
}

// NewCollector returns a Collector logging to logger. A nil logger discards.
func NewCollector(logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Collector{logger: logger}
}

// Add records w.
func (c *Collector) Add(w Warning) {
	c.warnings = append(c.warnings, w)
	attrs := []any{slog.String("kind", w.Kind.String())}
	if w.File != "" {
		attrs = append(attrs, slog.String("file", w.File))
	}
	if w.Line > 0 {
		attrs = append(attrs, slog.Int("line", w.Line))
	}
	c.logger.Warn(w.Message, attrs...)
}

// Addf records a warning built from a format string.
func (c *Collector) Addf(kind Kind, file string, line int, format string, args ...any) {
	c.Add(Warning{Kind: kind, File: file, Line: line, Message: fmt.Sprintf(format, args...)})
}

// Warnings returns the recorded warnings in order.
func (c *Collector) Warnings() []Warning {
	return c.warnings
}

// Len returns the number of recorded warnings.
func (c *Collector) Len() int { return len(c.warnings) }

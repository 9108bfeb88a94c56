// Package engine ties the template interpreter and the macro preprocessor
// together. It owns the process-wide globals, strict mode, macro search
// directories and the logger, and expands single files or whole directories.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/svpgen/internal/diag"
	"github.com/leapstack-labs/svpgen/internal/macro"
	"github.com/leapstack-labs/svpgen/internal/template"
	"github.com/leapstack-labs/svpgen/internal/value"
)

// Default file extensions and worker count.
const (
	DefaultInputExt  = ".svp"
	DefaultOutputExt = ".sv"
	DefaultJobs      = 4
)

// Engine expands templates. It is not modified after New, so one Engine may
// serve concurrent expansions.
type Engine struct {
	logger      *slog.Logger
	globals     map[string]value.Value
	includeDirs []string
	defines     map[string]string
	strict      bool
	inputExt    string
	outputExt   string
	jobs        int
}

// Config holds engine configuration.
type Config struct {
	// Globals are bound in every expansion, below caller bindings.
	Globals map[string]value.Value
	// IncludeDirs are searched for macro files after the template's own directory.
	IncludeDirs []string
	// Defines are predefined macros for every preprocessor run.
	Defines map[string]string
	// Strict makes undefined names fatal.
	Strict bool
	// InputExt selects template files in ExpandDir (default ".svp").
	InputExt string
	// OutputExt replaces InputExt in derived output paths (default ".sv").
	OutputExt string
	// Jobs bounds concurrent file expansions in ExpandDir (default 4).
	Jobs int
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// New creates an engine, filling in defaults.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	e := &Engine{
		logger:      logger,
		globals:     cfg.Globals,
		includeDirs: cfg.IncludeDirs,
		defines:     cfg.Defines,
		strict:      cfg.Strict,
		inputExt:    cfg.InputExt,
		outputExt:   cfg.OutputExt,
		jobs:        cfg.Jobs,
	}
	if e.inputExt == "" {
		e.inputExt = DefaultInputExt
	}
	if e.outputExt == "" {
		e.outputExt = DefaultOutputExt
	}
	if e.jobs <= 0 {
		e.jobs = DefaultJobs
	}

	logger.Debug("initializing engine",
		"globals", len(e.globals),
		"include_dirs", e.includeDirs,
		"strict", e.strict)
	return e
}

// Expand expands template text. file names the template in positions and
// anchors relative macro includes; it may be empty.
func (e *Engine) Expand(text, file string, bindings map[string]value.Value) (*template.Result, error) {
	return template.Expand(text, bindings, e.options(file))
}

func (e *Engine) options(file string) template.Options {
	return template.Options{
		File:     file,
		Globals:  e.globals,
		Strict:   e.strict,
		Includer: e,
		Logger:   e.logger.With("file", file),
	}
}

// OutputPath derives the output file for a template path by replacing the
// input extension, or appending the output extension if there is none.
func (e *Engine) OutputPath(in string) string {
	if strings.HasSuffix(in, e.inputExt) {
		return strings.TrimSuffix(in, e.inputExt) + e.outputExt
	}
	return in + e.outputExt
}

// ExpandFile expands the template at in and writes the result to out, or to
// OutputPath(in) if out is empty. Nothing is written if expansion fails.
func (e *Engine) ExpandFile(in, out string) (*template.Result, error) {
	content, err := os.ReadFile(in) //nolint:gosec // G304: path comes from the caller
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}

	res, err := e.Expand(string(content), in, nil)
	if err != nil {
		return nil, err
	}

	if out == "" {
		out = e.OutputPath(in)
	}
	if err := WriteOutput(out, res.Output); err != nil {
		return nil, err
	}

	e.logger.Info("expanded template", "input", in, "output", out, "warnings", len(res.Warnings))
	return res, nil
}

// WriteOutput writes expanded text to path, creating parent directories.
func WriteOutput(path, text string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// ResolveMacros runs one preprocessor pass over path with the configured
// search directories and predefined macros.
func (e *Engine) ResolveMacros(path string) (*macro.Result, error) {
	return macro.Resolve(path, e.includeDirs, macro.Options{Defines: e.defines, Logger: e.logger})
}

// IncludeMacros resolves an //:$include directive. The template's directory
// is searched first, then the configured include directories. Macro values
// become template values through literal parsing. A missing file is a
// warning, not an error.
func (e *Engine) IncludeMacros(path, fromFile string) (map[string]value.Value, []diag.Warning, error) {
	dirs := make([]string, 0, len(e.includeDirs)+1)
	if fromFile != "" {
		dir := filepath.Dir(fromFile)
		dirs = append(dirs, dir)
		// A file next to the template wins over the working directory.
		if !filepath.IsAbs(path) {
			if info, err := os.Stat(filepath.Join(dir, path)); err == nil && !info.IsDir() {
				path = filepath.Join(dir, path)
			}
		}
	}
	dirs = append(dirs, e.includeDirs...)

	res, err := macro.Resolve(path, dirs, macro.Options{Defines: e.defines, Logger: e.logger})
	if errors.Is(err, macro.ErrFileNotFound) {
		return nil, []diag.Warning{{
			Kind:    diag.UnresolvedIncludeFile,
			File:    fromFile,
			Message: err.Error(),
		}}, nil
	}
	if err != nil {
		return nil, nil, err
	}

	vars := make(map[string]value.Value, len(res.Macros))
	for name, raw := range res.Macros {
		vars[name] = value.ParseLiteral(raw)
	}
	return vars, res.Warnings, nil
}

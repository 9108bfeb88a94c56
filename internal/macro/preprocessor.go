package macro

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"slices"

	"github.com/leapstack-labs/svpgen/internal/diag"
)

// ErrFileNotFound is returned, wrapped, when the top-level file cannot be
// located. Unresolved includes are warnings instead.
var ErrFileNotFound = errors.New("macro file not found")

// CommandLine is the File recorded for predefined macros.
const CommandLine = "<command line>"

// Options configures a resolution run.
type Options struct {
	// Defines are predefined before the first file is read, as if by
	// `define NAME VALUE.
	Defines map[string]string
	Logger  *slog.Logger
}

// Definition is one entry of the macro table.
type Definition struct {
	Name   string `json:"name" yaml:"name"`
	Params string `json:"params,omitempty" yaml:"params,omitempty"` // "(a, b)" for function-like macros
	Raw    string `json:"raw" yaml:"raw"`                           // Stored value before reference expansion
	Value  string `json:"value" yaml:"value"`                       // Stored value after reference expansion
	File   string `json:"file" yaml:"file"`
	Line   int    `json:"line,omitempty" yaml:"line,omitempty"`
}

// Result is the outcome of one resolution run.
type Result struct {
	// Macros maps every defined name to its expanded value.
	Macros map[string]string
	// Definitions holds the same table with provenance, sorted by name.
	Definitions []Definition
	Warnings    []diag.Warning
	// Files lists every processed file in processing order.
	Files []string
	// SearchDirs is the final search list, including directories added by
	// resolved files.
	SearchDirs []string
}

// Resolve runs the preprocessor over path and everything it includes.
func Resolve(path string, searchDirs []string, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	p := &preprocessor{
		loader:    NewLoader(searchDirs),
		table:     make(map[string]*Definition),
		cond:      newCondStack(),
		processed: make(map[string]bool),
		warnings:  diag.NewCollector(logger),
		logger:    logger,
	}

	for _, name := range slices.Sorted(maps.Keys(opts.Defines)) {
		p.table[name] = &Definition{Name: name, Raw: opts.Defines[name], File: CommandLine}
	}

	resolved, err := p.loader.Resolve(path, "")
	if err != nil {
		return nil, err
	}
	if err := p.processFile(resolved); err != nil {
		return nil, err
	}

	for _, frame := range p.cond.Unclosed() {
		p.warnings.Add(diag.Warning{
			Kind:    diag.UnterminatedConditional,
			File:    frame.file,
			Line:    frame.line,
			Message: "conditional region is never closed with `endif",
		})
	}

	defs := newExpander(p.table, p.warnings).expandAll()

	res := &Result{
		Macros:      make(map[string]string, len(defs)),
		Definitions: defs,
		Warnings:    p.warnings.Warnings(),
		Files:       p.files,
		SearchDirs:  p.loader.Dirs(),
	}
	for _, d := range defs {
		res.Macros[d.Name] = d.Value
	}

	logger.Debug("macros resolved",
		slog.String("file", resolved),
		slog.Int("macros", len(defs)),
		slog.Int("files", len(p.files)),
		slog.Int("warnings", p.warnings.Len()))
	return res, nil
}

// preprocessor holds the state of one run: the table, the conditional stack
// and the processed-file set all span every included file.
type preprocessor struct {
	loader    *Loader
	table     map[string]*Definition
	cond      *condStack
	processed map[string]bool
	files     []string
	warnings  *diag.Collector
	logger    *slog.Logger
}

// processFile handles one canonical path. Files already processed in this run
// are skipped, which also breaks include cycles.
func (p *preprocessor) processFile(path string) error {
	if p.processed[path] {
		p.logger.Debug("skipping already processed file", slog.String("file", path))
		return nil
	}
	p.processed[path] = true

	lines, err := p.loader.Load(path)
	if err != nil {
		return err
	}
	p.files = append(p.files, path)
	p.loader.AddDir(filepath.Dir(path))

	for _, line := range lines {
		d, ok := parseDirective(line)
		if !ok {
			continue
		}
		p.handleDirective(path, d)
	}
	return nil
}

func (p *preprocessor) malformed(file string, d Directive, msg string) {
	p.warnings.Addf(diag.MalformedMacroDirective, file, d.Line, "%s: %q", msg, d.Text)
}

func (p *preprocessor) handleDirective(file string, d Directive) {
	switch d.Cmd {
	case "define":
		if !p.cond.Active() {
			return
		}
		name, params, body, ok := parseDefine(d.Arg)
		if !ok {
			p.malformed(file, d, "bad `define")
			return
		}
		if prev, exists := p.table[name]; exists {
			p.warnings.Addf(diag.MacroRedefinition, file, d.Line, "macro %q redefined (previous definition at %s)", name, location(prev))
		}
		p.table[name] = &Definition{Name: name, Params: params, Raw: storedValue(params, body), File: file, Line: d.Line}

	case "undef":
		if !p.cond.Active() {
			return
		}
		name, ok := parseName(d.Arg)
		if !ok {
			p.malformed(file, d, "bad `undef")
			return
		}
		delete(p.table, name)

	case "ifdef", "ifndef":
		name, ok := parseName(d.Arg)
		if !ok {
			p.malformed(file, d, "bad `"+d.Cmd)
		}
		_, defined := p.table[name]
		p.cond.Push(ok && defined == (d.Cmd == "ifdef"), file, d.Line)

	case "elsif":
		name, ok := parseName(d.Arg)
		if !ok {
			p.malformed(file, d, "bad `elsif")
		}
		_, defined := p.table[name]
		if p.cond.HasElse() {
			p.malformed(file, d, "`elsif after `else")
			return
		}
		if !p.cond.Elsif(ok && defined) {
			p.malformed(file, d, "`elsif without `ifdef")
		}

	case "else":
		if p.cond.HasElse() {
			p.warnings.Add(diag.Warning{
				Kind:    diag.DuplicateElse,
				File:    file,
				Line:    d.Line,
				Message: "second `else for the same conditional ignored",
			})
			return
		}
		if !p.cond.Else() {
			p.malformed(file, d, "`else without `ifdef")
		}

	case "endif":
		if !p.cond.Pop() {
			p.malformed(file, d, "`endif without `ifdef")
		}

	case "include":
		if !p.cond.Active() {
			return
		}
		p.include(file, d)

	default:
		p.logger.Debug("ignoring directive", slog.String("directive", d.Cmd), slog.String("file", file), slog.Int("line", d.Line))
	}
}

func (p *preprocessor) include(file string, d Directive) {
	target, ok := parseInclude(d.Arg)
	if !ok {
		p.malformed(file, d, "bad `include syntax")
		return
	}

	resolved, err := p.loader.Resolve(target, file)
	if err != nil {
		p.warnings.Add(diag.Warning{Kind: diag.UnresolvedIncludeFile, File: file, Line: d.Line, Message: err.Error()})
		return
	}

	if err := p.processFile(resolved); err != nil {
		p.warnings.Add(diag.Warning{Kind: diag.UnresolvedIncludeFile, File: file, Line: d.Line, Message: err.Error()})
	}
}

func location(d *Definition) string {
	if d.Line == 0 {
		return d.File
	}
	return fmt.Sprintf("%s:%d", d.File, d.Line)
}

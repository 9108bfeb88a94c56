// Package macro implements the backtick-directive preprocessor that turns
// SystemVerilog-style macro files into a name to value table.
//
// One Resolve call processes a file and everything it includes: comments are
// stripped, backslash-continued lines joined, `ifdef/`ifndef/`elsif/`else/`endif
// tracked on a single conditional stack, `define and `undef applied while the
// current region is active, and `include followed through an ordered set of
// search directories. Each file is processed at most once per run. A final
// pass substitutes `NAME references inside stored values, leaving circular
// references literal.
package macro

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Line is one logical source line after comment stripping and continuation
// joining. Number is the 1-based physical line where it starts.
type Line struct {
	Text   string
	Number int
}

// Loader reads macro source files and resolves include paths against an
// ordered, duplicate-free list of search directories.
type Loader struct {
	dirs []string
}

// NewLoader creates a loader searching the working directory, then dirs in
// order.
func NewLoader(dirs []string) *Loader {
	l := &Loader{}
	l.AddDir(".")
	for _, dir := range dirs {
		l.AddDir(dir)
	}
	return l
}

// AddDir appends dir to the search list unless it is already present.
func (l *Loader) AddDir(dir string) {
	if dir == "" {
		return
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	if !slices.Contains(l.dirs, dir) {
		l.dirs = append(l.dirs, dir)
	}
}

// Dirs returns the current search list.
func (l *Loader) Dirs() []string {
	return slices.Clone(l.dirs)
}

// Resolve locates path. Absolute paths are used as is; relative paths are
// tried against the including file's directory first, then every search
// directory in order. The result is canonical: absolute, cleaned and with
// symlinks evaluated where possible.
func (l *Loader) Resolve(path, fromFile string) (string, error) {
	if filepath.IsAbs(path) {
		if fileExists(path) {
			return canonical(path), nil
		}
		return "", fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}

	if fromFile != "" {
		cand := filepath.Join(filepath.Dir(fromFile), path)
		if fileExists(cand) {
			return canonical(cand), nil
		}
	}

	for _, dir := range l.dirs {
		cand := filepath.Join(dir, path)
		if fileExists(cand) {
			return canonical(cand), nil
		}
	}
	return "", fmt.Errorf("%w: %s (searched %s)", ErrFileNotFound, path, strings.Join(l.dirs, ", "))
}

// Load reads a file and returns its logical lines.
func (l *Loader) Load(path string) ([]Line, error) {
	content, err := os.ReadFile(path) //nolint:gosec // G304: path is resolved from include directives or the command line
	if err != nil {
		return nil, &LoadError{
			File:    path,
			Message: fmt.Sprintf("failed to read file: %v", err),
		}
	}
	return SplitLines(string(content)), nil
}

// SplitLines strips comments from src and joins continued lines.
func SplitLines(src string) []Line {
	physical := strings.Split(stripComments(src), "\n")
	lines := make([]Line, 0, len(physical))

	for i := 0; i < len(physical); i++ {
		start := i
		text := strings.TrimSuffix(physical[i], "\r")
		var b strings.Builder
		for lineContinues(text) && i+1 < len(physical) {
			b.WriteString(stripLineContinuation(text))
			b.WriteByte('\n')
			i++
			text = strings.TrimSuffix(physical[i], "\r")
		}
		b.WriteString(stripLineContinuation(text))
		lines = append(lines, Line{Text: b.String(), Number: start + 1})
	}
	return lines
}

// stripComments removes // and /* */ comments outside string literals.
// Newlines inside block comments are kept so line numbers stay accurate.
func stripComments(src string) string {
	var b strings.Builder
	b.Grow(len(src))

	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '"':
			j := i + 1
			for j < len(src) && src[j] != '"' && src[j] != '\n' {
				if src[j] == '\\' {
					j++
				}
				j++
			}
			if j >= len(src) {
				j = len(src) - 1
			}
			b.WriteString(src[i : j+1])
			i = j
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
			if i < len(src) {
				b.WriteByte('\n')
			}
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			i += 2
			for i < len(src) && !(src[i] == '*' && i+1 < len(src) && src[i+1] == '/') {
				if src[i] == '\n' {
					b.WriteByte('\n')
				}
				i++
			}
			i++ // land on the closing '/'
			b.WriteByte(' ')
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func lineContinues(s string) bool {
	i := strings.LastIndexFunc(s, func(r rune) bool {
		return r != ' ' && r != '\t'
	})
	return i >= 0 && s[i] == '\\'
}

func stripLineContinuation(s string) string {
	i := strings.LastIndexFunc(s, func(r rune) bool {
		return r != ' ' && r != '\t'
	})
	if i >= 0 && s[i] == '\\' {
		return strings.TrimRight(s[:i], " \t")
	}
	return s
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}

func canonical(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real
	}
	return abs
}

// LoadError represents an error loading a macro file.
type LoadError struct {
	File    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

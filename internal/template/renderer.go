package template

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/svpgen/internal/diag"
	"github.com/leapstack-labs/svpgen/internal/expr"
	"github.com/leapstack-labs/svpgen/internal/scope"
	"github.com/leapstack-labs/svpgen/internal/value"
)

// Includer resolves the macro file named by an //:$include directive.
// fromFile is the template being expanded, for relative lookups.
type Includer interface {
	IncludeMacros(path, fromFile string) (map[string]value.Value, []diag.Warning, error)
}

// Options configures an expansion.
type Options struct {
	File     string                 // Template path, used in positions and for includes
	Globals  map[string]value.Value // Process-wide bindings, overridden by caller bindings
	Strict   bool                   // Undefined names are fatal instead of 0
	Includer Includer               // Required only if the template uses //:$include
	Logger   *slog.Logger
}

// Result is the outcome of a successful expansion.
type Result struct {
	Output   string
	Warnings []diag.Warning
	// Bindings is the top-level scope after expansion.
	Bindings map[string]value.Value
}

// Expand parses and expands text in one step.
func Expand(text string, bindings map[string]value.Value, opts Options) (*Result, error) {
	return ExpandContext(context.Background(), text, bindings, opts)
}

// ExpandContext is Expand with cancellation, checked between loop iterations.
func ExpandContext(ctx context.Context, text string, bindings map[string]value.Value, opts Options) (*Result, error) {
	tmpl, err := ParseString(text, opts.File)
	if err != nil {
		return nil, err
	}
	return Render(ctx, tmpl, bindings, opts)
}

// Render expands a parsed template against bindings.
func Render(ctx context.Context, tmpl *Template, bindings map[string]value.Value, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	r := &renderer{
		ctx:      ctx,
		opts:     opts,
		file:     tmpl.File,
		logger:   logger,
		warnings: diag.NewCollector(logger),
	}

	for _, pos := range tmpl.StrayCloses {
		r.warnings.Add(diag.Warning{Kind: diag.StrayBlockClose, File: pos.File, Line: pos.Line, Message: "'//:}' without an open block, skipped"})
	}

	top := scope.New(opts.Globals, bindings)
	if err := r.renderNodes(tmpl.Nodes, top); err != nil {
		return nil, err
	}

	return &Result{
		Output:   strings.Join(r.out, "\n"),
		Warnings: r.warnings.Warnings(),
		Bindings: top.Snapshot(),
	}, nil
}

// renderer holds per-expansion state. Scopes are passed explicitly and each
// is owned by the call that created it.
type renderer struct {
	ctx      context.Context
	opts     Options
	file     string
	logger   *slog.Logger
	warnings *diag.Collector
	out      []string
}

func (r *renderer) renderNodes(nodes []Node, s *scope.Scope) error {
	for _, node := range nodes {
		if err := r.renderNode(node, s); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) renderNode(node Node, s *scope.Scope) error {
	switch n := node.(type) {
	case *TextNode:
		return r.renderText(n, s)
	case *AssignNode:
		v, err := r.eval(n.Value, n.Pos(), s)
		if err != nil {
			return err
		}
		s.Assign(n.Name, v)
		return nil
	case *IncludeNode:
		return r.renderInclude(n, s)
	case *ForBlock:
		return r.renderFor(n, s)
	case *IfBlock:
		return r.renderIf(n, s)
	default:
		return fmt.Errorf("unknown node type: %T", node)
	}
}

func (r *renderer) renderText(n *TextNode, s *scope.Scope) error {
	if len(n.Segments) == 1 && n.Segments[0].Expr == nil {
		r.out = append(r.out, n.Text)
		return nil
	}

	var b strings.Builder
	for _, seg := range n.Segments {
		if seg.Expr == nil {
			b.WriteString(seg.Text)
			continue
		}

		pos := n.Pos()
		pos.Column = seg.Column
		v, err := r.eval(seg.Expr, pos, s)
		if err != nil {
			var ie *value.IndexError
			if errors.As(err, &ie) {
				r.warnings.Add(diag.Warning{
					Kind:    diag.IndexFailure,
					File:    pos.File,
					Line:    pos.Line,
					Message: fmt.Sprintf("%s left unexpanded: %s", seg.Text, ie.Reason),
				})
				b.WriteString(seg.Text)
				continue
			}
			return err
		}
		b.WriteString(v.String())
	}

	r.out = append(r.out, b.String())
	return nil
}

// renderFor runs a loop in its own scope. Each iteration gets a fresh child of
// the loop scope that is merged back before the step runs; the loop scope is
// merged into s once the condition turns false.
func (r *renderer) renderFor(n *ForBlock, s *scope.Scope) error {
	loop := s.Child()

	init, err := r.eval(n.Init, n.Pos(), loop)
	if err != nil {
		return err
	}
	loop.Assign(n.VarName, init)

	iterations := 0
	for {
		if err := r.ctx.Err(); err != nil {
			return err
		}

		cond, err := r.eval(n.Cond, n.Pos(), loop)
		if err != nil {
			return err
		}
		if !cond.Truthy() {
			break
		}

		iter := loop.Child()
		if err := r.renderNodes(n.Body, iter); err != nil {
			return err
		}
		loop.MergeUp(iter)

		step, err := r.eval(n.Step, n.Pos(), loop)
		if err != nil {
			return err
		}
		loop.Assign(n.StepVar, step)
		iterations++
	}

	r.logger.Debug("loop finished", slog.String("file", r.file), slog.Int("line", n.Pos().Line), slog.Int("iterations", iterations))
	s.MergeUp(loop)
	return nil
}

// renderIf runs the first branch whose condition holds. Skipped branches are
// never interpreted, so their assignments have no effect.
func (r *renderer) renderIf(n *IfBlock, s *scope.Scope) error {
	for i := range n.Branches {
		branch := &n.Branches[i]
		if !branch.IsElse() {
			cond, err := r.eval(branch.Cond, branch.pos, s)
			if err != nil {
				return err
			}
			if !cond.Truthy() {
				continue
			}
		}

		body := s.Child()
		if err := r.renderNodes(branch.Body, body); err != nil {
			return err
		}
		s.MergeUp(body)
		return nil
	}
	return nil
}

func (r *renderer) renderInclude(n *IncludeNode, s *scope.Scope) error {
	v, err := r.eval(n.Path, n.Pos(), s)
	if err != nil {
		return err
	}
	path, ok := v.AsString()
	if !ok || path == "" {
		return NewDirectiveSyntaxErrorf(n.Pos(), DirectivePrefix+n.Source, "include target must be a non-empty string, got %s", v.Kind())
	}
	if r.opts.Includer == nil {
		return NewDirectiveSyntaxError(n.Pos(), DirectivePrefix+n.Source, "macro includes are not available in this context")
	}

	macros, warnings, err := r.opts.Includer.IncludeMacros(path, r.file)
	if err != nil {
		return fmt.Errorf("%s:%d: include %q: %w", r.file, n.Pos().Line, path, err)
	}
	for _, w := range warnings {
		if w.Line == 0 {
			w.File, w.Line = r.file, n.Pos().Line
		}
		r.warnings.Add(w)
	}
	for name, mv := range macros {
		s.Assign(name, mv)
	}

	r.logger.Debug("macros included", slog.String("file", r.file), slog.String("include", path), slog.Int("count", len(macros)))
	return nil
}

// eval evaluates e in s, turning failures into positioned template errors.
// IndexError stays reachable through errors.As for the substitution path.
func (r *renderer) eval(e *expr.Expr, pos Position, s *scope.Scope) (value.Value, error) {
	opts := expr.Options{
		Strict: r.opts.Strict,
		OnUndefined: func(name string) {
			r.logger.Debug("undefined variable defaults to 0",
				slog.String("name", name), slog.String("file", pos.File), slog.Int("line", pos.Line))
		},
	}

	v, err := e.Eval(s, opts)
	if err == nil {
		return v, nil
	}

	var ue *expr.UndefinedError
	if errors.As(err, &ue) {
		return value.Value{}, NewUndefinedVariableError(pos, ue.Name)
	}
	return value.Value{}, WrapExpressionError(pos, e.Src, err)
}

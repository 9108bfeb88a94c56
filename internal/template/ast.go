// Package template expands line-oriented source templates.
//
// Ordinary lines pass through after ${name} / ${name[i][j]} substitution.
// Lines whose first non-blank characters are "//:" are directives: variable
// assignment, C-style for loops and if/elsif/else chains, each block closed
// by a "//:}" line. Directive lines never appear in the output.
//
// Templates are parsed up front into a block-structured directive tree, so
// unterminated or mismatched blocks are reported before any output is
// produced, and then interpreted depth-first against a scope.
package template

import "github.com/leapstack-labs/svpgen/internal/expr"

// Position tracks source location for error reporting.
type Position struct {
	File   string
	Line   int
	Column int
}

// Node is the interface for all template AST nodes.
type Node interface {
	Pos() Position
	node() // marker method to restrict implementation
}

// nodeBase provides common Position handling for all nodes.
type nodeBase struct {
	pos Position
}

func (n *nodeBase) Pos() Position { return n.pos }
func (n *nodeBase) node()         {}

// TextNode represents a literal line. Segments alternate between plain text
// and ${...} substitutions.
type TextNode struct {
	nodeBase
	Text     string
	Segments []Segment
}

// Segment is a piece of a literal line. Expr is nil for plain text.
type Segment struct {
	Text   string // Plain text, or the raw ${...} token
	Expr   *expr.Expr
	Column int
}

// AssignNode represents //:$name = expr and its compound forms.
type AssignNode struct {
	nodeBase
	Name   string
	Value  *expr.Expr
	Source string // Directive body, for diagnostics
}

// IncludeNode represents //:$include = "file": the named macro file is
// resolved and its table merged into the current scope.
type IncludeNode struct {
	nodeBase
	Path   *expr.Expr
	Source string
}

// ForBlock represents a complete for loop with its body.
// Created by the parser from the header line and its matching close.
type ForBlock struct {
	nodeBase
	VarName string     // Loop variable bound by Init
	Init    *expr.Expr // Evaluated once
	Cond    *expr.Expr // Evaluated before every iteration
	StepVar string     // Variable assigned by Step; not necessarily VarName
	Step    *expr.Expr
	Body    []Node
	Header  string
}

// IfBlock represents a complete if/elsif/else chain.
// Created by the parser from the branch headers and the final close.
type IfBlock struct {
	nodeBase
	Branches []Branch
}

// Branch is one arm of an if chain. Cond is nil for else.
type Branch struct {
	Cond   *expr.Expr
	Body   []Node
	Header string
	pos    Position
}

// IsElse reports whether b is the unconditional else arm.
func (b *Branch) IsElse() bool { return b.Cond == nil }

// Template represents a complete parsed template.
type Template struct {
	Nodes []Node
	File  string // Source file path
	// StrayCloses records "//:}" lines that closed nothing. They are skipped.
	StrayCloses []Position
}

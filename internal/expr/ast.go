package expr

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/svpgen/internal/value"
)

// Node is the interface for all expression AST nodes.
type Node interface {
	Offset() int
	String() string
	node() // marker method to restrict implementation
}

type nodeBase struct {
	offset int
}

func (n *nodeBase) Offset() int { return n.offset }
func (n *nodeBase) node()       {}

// Literal is a constant int, float, bool or string.
type Literal struct {
	nodeBase
	Value value.Value
}

func (n *Literal) String() string { return n.Value.GoString() }

// ListLit is a list literal [a, b, ...].
type ListLit struct {
	nodeBase
	Elems []Node
}

func (n *ListLit) String() string {
	parts := make([]string, len(n.Elems))
	for i, e := range n.Elems {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Ident references a scope binding. Sigil records whether the source
// spelled it $name or ${name}; lookup ignores it.
type Ident struct {
	nodeBase
	Name  string
	Sigil bool
}

func (n *Ident) String() string { return n.Name }

// IndexExpr is X[Index].
type IndexExpr struct {
	nodeBase
	X     Node
	Index Node
}

func (n *IndexExpr) String() string { return n.X.String() + "[" + n.Index.String() + "]" }

// UnaryExpr is a prefix operator applied to X.
type UnaryExpr struct {
	nodeBase
	Op TokenType
	X  Node
}

func (n *UnaryExpr) String() string {
	op := "-"
	switch n.Op {
	case TokenNot:
		op = "not "
	case TokenPlus:
		op = "+"
	}
	return "(" + op + n.X.String() + ")"
}

// BinaryExpr is Left Op Right. TokenAnd and TokenOr short-circuit.
type BinaryExpr struct {
	nodeBase
	Op    TokenType
	Left  Node
	Right Node
}

func (n *BinaryExpr) String() string {
	return "(" + n.Left.String() + " " + opText(n.Op) + " " + n.Right.String() + ")"
}

func opText(t TokenType) string {
	switch t {
	case TokenAnd:
		return "and"
	case TokenOr:
		return "or"
	}
	s := t.String()
	if u, err := strconv.Unquote(strings.ReplaceAll(s, "'", "\"")); err == nil {
		return u
	}
	return s
}

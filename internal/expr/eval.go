package expr

import (
	"fmt"

	"github.com/leapstack-labs/svpgen/internal/value"
)

// Env resolves names to values.
type Env interface {
	Lookup(name string) (value.Value, bool)
}

// MapEnv adapts a plain map to Env.
type MapEnv map[string]value.Value

// Lookup implements Env.
func (m MapEnv) Lookup(name string) (value.Value, bool) {
	v, ok := m[name]
	return v, ok
}

// Options controls evaluation policy.
type Options struct {
	// Strict turns undefined names into an *UndefinedError instead of 0.
	Strict bool
	// OnUndefined, if set, is called for every undefined name resolved to 0.
	OnUndefined func(name string)
}

// Eval evaluates the expression against env.
func (e *Expr) Eval(env Env, opts Options) (value.Value, error) {
	ev := evaluator{src: e.Src, env: env, opts: opts}
	return ev.eval(e.Root)
}

// Evaluate parses and evaluates src in one step.
func Evaluate(src string, env Env, opts Options) (value.Value, error) {
	e, err := Parse(src)
	if err != nil {
		return value.Value{}, err
	}
	return e.Eval(env, opts)
}

type evaluator struct {
	src  string
	env  Env
	opts Options
}

func (ev *evaluator) fail(n Node, err error) error {
	return &EvalError{Src: ev.src, Offset: n.Offset(), Cause: err}
}

func (ev *evaluator) eval(n Node) (value.Value, error) {
	switch n := n.(type) {
	case *Literal:
		return n.Value, nil

	case *Ident:
		if v, ok := ev.env.Lookup(n.Name); ok {
			return v, nil
		}
		if ev.opts.Strict {
			return value.Value{}, &UndefinedError{Name: n.Name}
		}
		if ev.opts.OnUndefined != nil {
			ev.opts.OnUndefined(n.Name)
		}
		return value.Int(0), nil

	case *ListLit:
		items := make([]value.Value, len(n.Elems))
		for i, elem := range n.Elems {
			v, err := ev.eval(elem)
			if err != nil {
				return value.Value{}, err
			}
			items[i] = v
		}
		return value.List(items...), nil

	case *IndexExpr:
		x, err := ev.eval(n.X)
		if err != nil {
			return value.Value{}, err
		}
		idx, err := ev.eval(n.Index)
		if err != nil {
			return value.Value{}, err
		}
		v, err := x.Index(idx)
		if err != nil {
			return value.Value{}, ev.fail(n, err)
		}
		return v, nil

	case *UnaryExpr:
		x, err := ev.eval(n.X)
		if err != nil {
			return value.Value{}, err
		}
		var v value.Value
		switch n.Op {
		case TokenNot:
			return value.Not(x), nil
		case TokenMinus:
			v, err = value.Neg(x)
		case TokenPlus:
			v, err = value.Pos(x)
		default:
			err = fmt.Errorf("unknown unary operator %s", n.Op)
		}
		if err != nil {
			return value.Value{}, ev.fail(n, err)
		}
		return v, nil

	case *BinaryExpr:
		return ev.evalBinary(n)

	default:
		return value.Value{}, fmt.Errorf("unknown expression node %T", n)
	}
}

func (ev *evaluator) evalBinary(n *BinaryExpr) (value.Value, error) {
	left, err := ev.eval(n.Left)
	if err != nil {
		return value.Value{}, err
	}

	// Short-circuit connectives yield booleans.
	switch n.Op {
	case TokenAnd:
		if !left.Truthy() {
			return value.Bool(false), nil
		}
		right, err := ev.eval(n.Right)
		if err != nil {
			return value.Value{}, err
		}
		return value.Bool(right.Truthy()), nil
	case TokenOr:
		if left.Truthy() {
			return value.Bool(true), nil
		}
		right, err := ev.eval(n.Right)
		if err != nil {
			return value.Value{}, err
		}
		return value.Bool(right.Truthy()), nil
	}

	right, err := ev.eval(n.Right)
	if err != nil {
		return value.Value{}, err
	}

	var v value.Value
	switch n.Op {
	case TokenPlus:
		v, err = value.Add(left, right)
	case TokenMinus:
		v, err = value.Sub(left, right)
	case TokenStar:
		v, err = value.Mul(left, right)
	case TokenSlash:
		v, err = value.Div(left, right)
	case TokenDSlash:
		v, err = value.FloorDiv(left, right)
	case TokenPercent:
		v, err = value.Mod(left, right)
	case TokenShl:
		v, err = value.Shl(left, right)
	case TokenShr:
		v, err = value.Shr(left, right)
	case TokenAmp:
		v, err = value.BitAnd(left, right)
	case TokenPipe:
		v, err = value.BitOr(left, right)
	case TokenCaret:
		v, err = value.BitXor(left, right)
	case TokenEq:
		return value.Bool(value.Equal(left, right)), nil
	case TokenNe:
		return value.Bool(!value.Equal(left, right)), nil
	case TokenLt, TokenLe, TokenGt, TokenGe:
		var c int
		c, err = value.Compare(left, right)
		if err == nil {
			v = value.Bool(compareHolds(n.Op, c))
		}
	default:
		err = fmt.Errorf("unknown binary operator %s", n.Op)
	}
	if err != nil {
		return value.Value{}, ev.fail(n, err)
	}
	return v, nil
}

func compareHolds(op TokenType, c int) bool {
	switch op {
	case TokenLt:
		return c < 0
	case TokenLe:
		return c <= 0
	case TokenGt:
		return c > 0
	default:
		return c >= 0
	}
}

package value

import (
	"errors"
	"fmt"
)

// ErrDivisionByZero is returned by Div, FloorDiv and Mod when the divisor is zero.
var ErrDivisionByZero = errors.New("division by zero")

// ErrRepeatTooLarge is returned by Mul when repeating a string or list would
// exceed MaxRepeatLen.
var ErrRepeatTooLarge = errors.New("repetition result too large")

// TypeError reports an operator applied to operands of unsupported kinds.
type TypeError struct {
	Op    string
	Left  Kind
	Right Kind
	Unary bool
}

func (e *TypeError) Error() string {
	if e.Unary {
		return fmt.Sprintf("unsupported operand type for %s: %s", e.Op, e.Left)
	}
	return fmt.Sprintf("unsupported operand types for %s: %s and %s", e.Op, e.Left, e.Right)
}

// IndexError reports a failed index operation. It is recoverable: literal
// substitution leaves the original text in place when it sees one.
type IndexError struct {
	Target Value
	Index  Value
	Reason string
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index %s on %s: %s", e.Index.GoString(), e.Target.GoString(), e.Reason)
}

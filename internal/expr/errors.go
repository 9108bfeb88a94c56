package expr

import "fmt"

// SyntaxError reports unparseable expression text.
type SyntaxError struct {
	Src    string
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	if e.Src == "" {
		return fmt.Sprintf("offset %d: %s", e.Offset, e.Msg)
	}
	return fmt.Sprintf("syntax error in %q at offset %d: %s", e.Src, e.Offset, e.Msg)
}

// EvalError reports a failure while evaluating a parsed expression.
// Cause is usually a *value.TypeError, *value.IndexError or value.ErrDivisionByZero.
type EvalError struct {
	Src    string
	Offset int
	Cause  error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("evaluating %q: %v", e.Src, e.Cause)
}

func (e *EvalError) Unwrap() error { return e.Cause }

// UndefinedError is returned in strict mode when a name has no binding.
type UndefinedError struct {
	Name string
}

func (e *UndefinedError) Error() string {
	return fmt.Sprintf("undefined variable %q", e.Name)
}

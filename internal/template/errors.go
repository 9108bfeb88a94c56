package template

import "fmt"

// Error is the base interface for all template errors.
type Error interface {
	error
	Position() Position
}

// baseError provides common error functionality.
type baseError struct {
	pos Position
	msg string
}

func (e *baseError) Position() Position { return e.pos }
func (e *baseError) Error() string {
	if e.pos.File != "" {
		return fmt.Sprintf("%s:%d:%d: %s", e.pos.File, e.pos.Line, e.pos.Column, e.msg)
	}
	return fmt.Sprintf("%d:%d: %s", e.pos.Line, e.pos.Column, e.msg)
}

// DirectiveSyntaxError reports a malformed directive line: a bad assignment,
// for or if header, an unrecognized directive head, or a block that is never
// closed.
type DirectiveSyntaxError struct {
	baseError
	Directive string // The offending line, trimmed
}

// NewDirectiveSyntaxError creates a new directive syntax error.
func NewDirectiveSyntaxError(pos Position, directive, msg string) *DirectiveSyntaxError {
	return &DirectiveSyntaxError{baseError: baseError{pos: pos, msg: msg}, Directive: directive}
}

// NewDirectiveSyntaxErrorf creates a new directive syntax error with formatting.
func NewDirectiveSyntaxErrorf(pos Position, directive, format string, args ...any) *DirectiveSyntaxError {
	return NewDirectiveSyntaxError(pos, directive, fmt.Sprintf(format, args...))
}

func (e *DirectiveSyntaxError) Error() string {
	if e.Directive == "" {
		return e.baseError.Error()
	}
	return fmt.Sprintf("%s: %q", e.baseError.Error(), e.Directive)
}

// UnmatchedBlockError indicates a block opener without its closing line, or
// a branch directive outside of any if chain.
type UnmatchedBlockError struct {
	DirectiveSyntaxError
	BlockKind TokenType // The kind of directive that was unmatched
}

// NewUnmatchedBlockError creates a new unmatched block error.
func NewUnmatchedBlockError(pos Position, directive string, kind TokenType) *UnmatchedBlockError {
	var msg string
	switch kind {
	case TokenFor:
		msg = "unclosed 'for' block (missing '//:}')"
	case TokenIf:
		msg = "unclosed 'if' block (missing '//:}')"
	case TokenElsif:
		msg = "'elsif' without matching 'if'"
	case TokenElse:
		msg = "'else' without matching 'if'"
	default:
		msg = fmt.Sprintf("unmatched block: %s", kind)
	}
	return &UnmatchedBlockError{
		DirectiveSyntaxError: *NewDirectiveSyntaxError(pos, directive, msg),
		BlockKind:            kind,
	}
}

// Unwrap exposes the embedded DirectiveSyntaxError to errors.As.
func (e *UnmatchedBlockError) Unwrap() error { return &e.DirectiveSyntaxError }

// ExpressionError reports an expression that failed to parse or evaluate.
type ExpressionError struct {
	baseError
	Expr  string
	Cause error // Underlying *expr.SyntaxError or *expr.EvalError
}

// WrapExpressionError wraps an underlying expression failure.
func WrapExpressionError(pos Position, src string, cause error) *ExpressionError {
	return &ExpressionError{
		baseError: baseError{pos: pos, msg: fmt.Sprintf("expression %q", src)},
		Expr:      src,
		Cause:     cause,
	}
}

func (e *ExpressionError) Error() string {
	base := e.baseError.Error()
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", base, e.Cause)
	}
	return base
}

func (e *ExpressionError) Unwrap() error {
	return e.Cause
}

// UndefinedVariableError is returned in strict mode when an expression
// references a name with no binding.
type UndefinedVariableError struct {
	baseError
	Name string
}

// NewUndefinedVariableError creates a new undefined variable error.
func NewUndefinedVariableError(pos Position, name string) *UndefinedVariableError {
	return &UndefinedVariableError{
		baseError: baseError{pos: pos, msg: fmt.Sprintf("undefined variable %q", name)},
		Name:      name,
	}
}

package lang

import (
	"errors"
	"fmt"
)

// Error kinds. Every *EvalError wraps exactly one of them.
var (
	// ErrParse marks a line whose text is not a valid expression.
	ErrParse = errors.New("parse error")
	// ErrUnsupported marks an operand combination with no defined rule.
	ErrUnsupported = errors.New("unsupported operation")
	// ErrUndefined marks a reference to a name or line that has no value.
	ErrUndefined = errors.New("undefined reference")
	// ErrContract marks a function invoked with a shape it does not accept.
	// It indicates a parser or registry bug rather than bad input.
	ErrContract = errors.New("function contract violation")
)

// EvalError represents an evaluation error scoped to a single line.
type EvalError struct {
	Kind error
	Msg  string
}

func (e *EvalError) Error() string {
	if e.Kind == nil {
		return e.Msg
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Msg
}

func (e *EvalError) Unwrap() error {
	return e.Kind
}

func errorf(kind error, format string, args ...any) *EvalError {
	return &EvalError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

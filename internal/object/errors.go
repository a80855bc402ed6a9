package object

import (
	"errors"
	"fmt"
)

// UnknownSymbolError reports a qualified name that no registry, package or
// stub resolves.
type UnknownSymbolError struct {
	Name string
}

func (e *UnknownSymbolError) Error() string {
	return fmt.Sprintf("unknown symbol '%s'", e.Name)
}

// UnsupportedExpressionError reports an expression or operand shape outside
// the supported fragment.
type UnsupportedExpressionError struct {
	Detail string
}

func (e *UnsupportedExpressionError) Error() string {
	if e.Detail == "" {
		return "unsupported expression"
	}
	return "unsupported expression: " + e.Detail
}

// RaisedError is an exception raised by script code.
type RaisedError struct {
	Message string
}

func (e *RaisedError) Error() string {
	return "raised exception: " + e.Message
}

// Unsupported returns an UnsupportedExpressionError with a formatted detail.
func Unsupported(format string, args ...any) error {
	return &UnsupportedExpressionError{Detail: fmt.Sprintf(format, args...)}
}

// IsUnknownSymbol reports whether err wraps an UnknownSymbolError.
func IsUnknownSymbol(err error) bool {
	var target *UnknownSymbolError
	return errors.As(err, &target)
}

// IsUnsupported reports whether err wraps an UnsupportedExpressionError.
func IsUnsupported(err error) bool {
	var target *UnsupportedExpressionError
	return errors.As(err, &target)
}

// IsRaised reports whether err wraps a RaisedError.
func IsRaised(err error) bool {
	var target *RaisedError
	return errors.As(err, &target)
}

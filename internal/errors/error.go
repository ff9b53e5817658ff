package errors

import (
	stderrors "errors"
	"fmt"
	"runtime/debug"
)

// Category represents the type of error.
type Category string

const (
	CategoryRender   Category = "render"
	CategoryRuntime  Category = "runtime"
	CategoryProtocol Category = "protocol"
	CategoryConfig   Category = "config"
	CategoryCLI      Category = "cli"
)

// Error is a structured error with a code, suggestions, and documentation.
type Error struct {
	// Code is a unique error identifier (e.g., "K001").
	Code string

	// Category is the error type (render, runtime, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Component names the component involved, if any.
	Component string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Stack is the goroutine stack captured when a panic was converted.
	Stack string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Component != "" {
		msg = fmt.Sprintf("%s (component %s)", msg, e.Component)
	}
	if e.Wrapped != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Wrapped)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// WithDetail adds a detailed explanation to the error.
func (e *Error) WithDetail(d string) *Error {
	e.Detail = d
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// WithComponent records the component involved.
func (e *Error) WithComponent(name string) *Error {
	e.Component = name
	return e
}

// Wrap wraps another error.
func (e *Error) Wrap(err error) *Error {
	e.Wrapped = err
	return e
}

// New creates an Error from a registered error code.
func New(code string) *Error {
	template, ok := registry[code]
	if !ok {
		return &Error{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &Error{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
		DocURL:     docURL(code),
	}
}

// Newf creates a new Error with a formatted message (no code).
func Newf(category Category, format string, args ...any) *Error {
	return &Error{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in an Error. An *Error is returned as is.
func FromError(err error, code string) *Error {
	if err == nil {
		return nil
	}
	var ke *Error
	if stderrors.As(err, &ke) {
		return ke
	}
	return New(code).Wrap(err)
}

// FromPanic converts a recovered panic value into an Error carrying the
// current stack.
func FromPanic(v any, code string) *Error {
	var err error
	switch x := v.(type) {
	case error:
		err = x
	default:
		err = fmt.Errorf("panic: %v", x)
	}
	e := New(code).Wrap(err)
	e.Stack = string(debug.Stack())
	return e
}

// Code returns the code of the first *Error in err's chain, or "".
func Code(err error) string {
	var ke *Error
	if stderrors.As(err, &ke) {
		return ke.Code
	}
	return ""
}

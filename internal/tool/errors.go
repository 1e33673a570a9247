package tool

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrMissingArgument is returned when a required argument is absent
	ErrMissingArgument = errors.New("missing argument")

	// ErrInvalidArgument is returned when an argument has the wrong type or range
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrToolNotFound is returned when no tool is registered under a name
	ErrToolNotFound = errors.New("tool not found")

	// ErrDenied is returned when a hook refuses a call
	ErrDenied = errors.New("tool call denied")
)

// ArgumentError describes a rejected invocation argument
type ArgumentError struct {
	Tool     string
	Argument string
	Reason   string
	Err      error // ErrMissingArgument or ErrInvalidArgument
}

func (e *ArgumentError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: %v '%s'", e.Tool, e.Err, e.Argument)
	}
	return fmt.Sprintf("%s: %v '%s': %s", e.Tool, e.Err, e.Argument, e.Reason)
}

func (e *ArgumentError) Unwrap() error {
	return e.Err
}

// MissingArgument creates an ArgumentError for an absent argument
func MissingArgument(toolName, argument string) error {
	return &ArgumentError{Tool: toolName, Argument: argument, Err: ErrMissingArgument}
}

// InvalidArgument creates an ArgumentError for a malformed argument
func InvalidArgument(toolName, argument, format string, args ...any) error {
	return &ArgumentError{
		Tool:     toolName,
		Argument: argument,
		Reason:   fmt.Sprintf(format, args...),
		Err:      ErrInvalidArgument,
	}
}

// IsCallerError reports whether err was caused by the caller's request
// rather than by the server. Such errors are reported back as tool results.
func IsCallerError(err error) bool {
	return errors.Is(err, ErrMissingArgument) ||
		errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrToolNotFound) ||
		errors.Is(err, ErrDenied)
}

// ErrorCode maps an execution error to a short, stable code for logs and metrics
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingArgument):
		return "missing_argument"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrToolNotFound):
		return "tool_not_found"
	case errors.Is(err, ErrDenied):
		return "denied"
	case errors.Is(err, context.DeadlineExceeded):
		return "deadline_exceeded"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return "internal"
	}
}

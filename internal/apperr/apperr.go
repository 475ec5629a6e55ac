// Package apperr defines the error taxonomy shared by the lifecycle core.
// Callers classify failures with errors.Is against the sentinels below;
// details travel in the wrapped message.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks a missing document, request, project, or user.
	ErrNotFound = errors.New("not found")
	// ErrForbidden marks a failed membership or role check.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict marks a duplicate non-terminal approval request or a
	// request that is already terminal.
	ErrConflict = errors.New("conflict")
	// ErrValidation marks a rejected input (disallowed file type or size).
	ErrValidation = errors.New("validation failed")
	// ErrExternal marks a transient blob storage or search index failure.
	ErrExternal = errors.New("external dependency failed")
)

// NotFound wraps ErrNotFound with a formatted detail message.
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, prepend(ErrNotFound, args)...)
}

// Forbidden wraps ErrForbidden with a formatted detail message.
func Forbidden(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, prepend(ErrForbidden, args)...)
}

// Conflict wraps ErrConflict with a formatted detail message.
func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, prepend(ErrConflict, args)...)
}

// Validation wraps ErrValidation with a formatted detail message.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, prepend(ErrValidation, args)...)
}

// External wraps ErrExternal around a dependency error.
func External(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrExternal, op, err)
}

func prepend(err error, args []any) []any {
	out := make([]any, 0, len(args)+1)
	out = append(out, err)
	return append(out, args...)
}

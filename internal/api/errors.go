package api

import (
	"errors"
	"fmt"
)

// Sentinel error kinds shared by every registry. Callers branch with
// errors.Is; Error translates them to 404 and 409.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// ValidationError reports a malformed or out-of-range request field.
// It maps to HTTP 400 and its message is safe to show callers.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

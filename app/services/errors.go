package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error kinds. Callers branch with errors.Is; every error a service returns
// wraps exactly one of these or is an unexpected storage failure.
var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrTransport        = errors.New("notification transport failed")
)

// ValidationError carries per-field messages and matches ErrValidation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// invalid builds a single-field ValidationError.
func invalid(field, format string, args ...any) error {
	return &ValidationError{Fields: map[string]string{field: fmt.Sprintf(format, args...)}}
}

// fieldErrors converts a validate.Struct result into an error, or nil.
func fieldErrors(errs map[string]string) error {
	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{Fields: errs}
}

func notFound(what string, id uint) error {
	return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
}

package apperror

import (
	"errors"
	"net/http"
)

// Kind classifies an AppError. The HTTP layer derives the status code from it.
type Kind string

const (
	KindValidation       Kind = "validation"
	KindNotFound         Kind = "not_found"
	KindUnauthorized     Kind = "unauthorized"
	KindForbidden        Kind = "forbidden"
	KindUnsupportedMedia Kind = "unsupported_media"
	KindConflict         Kind = "conflict"
	KindTooLarge         Kind = "too_large"
	KindStorage          Kind = "storage"
	KindPersistence      Kind = "persistence"
	KindInternal         Kind = "internal"
)

// AppError is a tagged error result carrying its kind, a user-facing message
// and, for validation failures, the itemized field messages.
type AppError struct {
	Kind    Kind
	Message string              // User-facing error message
	Fields  map[string][]string // Per-field messages (validation only)
	Err     error               // The underlying error, if any (not exposed to user)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Status maps the error kind to an HTTP status code.
func (e *AppError) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindUnsupportedMedia:
		return http.StatusUnsupportedMediaType
	case KindConflict:
		return http.StatusConflict
	case KindTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// New creates a new AppError with a kind and message.
func New(kind Kind, message string) *AppError {
	return &AppError{
		Kind:    kind,
		Message: message,
	}
}

// Wrap creates a new AppError wrapping an existing error.
func Wrap(err error, kind Kind, message string) *AppError {
	return &AppError{
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Validation creates a validation AppError with itemized field messages.
func Validation(fields map[string][]string) *AppError {
	return &AppError{
		Kind:    KindValidation,
		Message: "validation failed",
		Fields:  fields,
	}
}

// KindOf returns the kind of err if it is (or wraps) an AppError, or "" otherwise.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// Is reports whether err is an AppError of the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

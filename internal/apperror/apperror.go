// Package apperror defines the error kinds shared by the meeting, participant
// and attendance services and maps them to HTTP responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// Kind is a machine-readable error category.
type Kind string

const (
	KindValidation Kind = "VALIDATION"
	KindConflict   Kind = "CONFLICT"
	KindNotFound   Kind = "NOT_FOUND"
	KindStore      Kind = "STORE"
)

// Error is a categorized failure returned by the core services.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// Sentinels for errors.Is; matching is by kind only.
var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrConflict   = &Error{Kind: KindConflict}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrStore      = &Error{Kind: KindStore}
)

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// Validation reports missing or malformed caller input.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// Conflict reports a violated uniqueness or singleton rule.
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// NotFound reports a missing entity or one not in the expected state.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Store wraps a document store failure.
func Store(message string, cause error) *Error {
	return &Error{Kind: KindStore, Message: message, Cause: cause}
}

// KindOf returns the kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// HTTPStatus maps err to a response status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to show to a caller. Store and
// unknown failures collapse to fallback so driver details stay in the logs.
func PublicMessage(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindStore {
		return e.Message
	}
	return fallback
}

var (
	errRequired = errors.New("is required")
	errEmail    = errors.New("must be a valid email address")
	errDate     = errors.New("must be a date in YYYY-MM-DD format")
)

var tagErrors = map[string]error{
	"required": errRequired,
	"email":    errEmail,
	"datetime": errDate,
}

// BindingMessages converts gin binding failures into per-field messages.
// Errors that are not validator errors (malformed JSON) yield a single
// "body" entry.
func BindingMessages(err error) []map[string]string {
	out := make([]map[string]string, 0)

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return append(out, map[string]string{"body": "must be valid JSON"})
	}
	for _, e := range verrs {
		msg := fmt.Sprintf("%s is invalid", e.Field())
		if v, ok := tagErrors[e.Tag()]; ok {
			msg = v.Error()
		}
		out = append(out, map[string]string{e.Field(): msg})
	}
	return out
}

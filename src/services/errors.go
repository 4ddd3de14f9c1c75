package services

import (
	"errors"
	"net/http"
)

// ErrorKind discriminates operational failures so callers can branch with
// errors.Is/As instead of string matching
type ErrorKind string

const (
	KindValidation        ErrorKind = "validation"
	KindConflict          ErrorKind = "conflict"
	KindAuthentication    ErrorKind = "authentication"
	KindForbidden         ErrorKind = "forbidden"
	KindNotFound          ErrorKind = "not_found"
	KindResetTokenInvalid ErrorKind = "reset_token_invalid"
	KindInternal          ErrorKind = "internal"
)

// Error is an operational service error carrying the HTTP status and a
// safe-to-display message. Unexpected failures are wrapped as KindInternal
// and the handler boundary replaces their message with a generic one.
type Error struct {
	Kind    ErrorKind
	Status  int
	Message string
	cause   error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.cause }

// Is matches two service errors by kind
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

func newError(kind ErrorKind, status int, message string) *Error {
	return &Error{Kind: kind, Status: status, Message: message}
}

// ValidationError reports bad or missing input (400)
func ValidationError(message string) *Error {
	return newError(KindValidation, http.StatusBadRequest, message)
}

// ConflictError reports a uniqueness violation (409)
func ConflictError(message string) *Error {
	return newError(KindConflict, http.StatusConflict, message)
}

// AuthenticationError reports bad credentials or a bad token (401)
func AuthenticationError(message string) *Error {
	return newError(KindAuthentication, http.StatusUnauthorized, message)
}

// ForbiddenError reports a deactivated account or a role/ownership denial (403)
func ForbiddenError(message string) *Error {
	return newError(KindForbidden, http.StatusForbidden, message)
}

// NotFoundError reports a missing resource (404)
func NotFoundError(message string) *Error {
	return newError(KindNotFound, http.StatusNotFound, message)
}

// ResetTokenError reports an invalid or expired reset token (400).
// Invalid and expired are deliberately indistinguishable to the caller.
func ResetTokenError() *Error {
	return newError(KindResetTokenInvalid, http.StatusBadRequest, "Invalid or expired reset token.")
}

// InternalError wraps an unexpected failure. The cause is kept for
// server-side logging; the message shown to clients stays generic.
func InternalError(cause error) *Error {
	return &Error{
		Kind:    KindInternal,
		Status:  http.StatusInternalServerError,
		Message: "Something went wrong, please try again later.",
		cause:   cause,
	}
}

// AsServiceError extracts a service error from an error chain
func AsServiceError(err error) (*Error, bool) {
	var se *Error
	ok := errors.As(err, &se)
	return se, ok
}

// Package apperr defines the closed set of failure kinds shared by every feature
// and their mapping onto HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure. The set is closed; anything that cannot be
// classified is treated as Internal.
type Kind string

const (
	ValidationFailure     Kind = "VALIDATION_ERROR"
	UnsupportedLanguage   Kind = "UNSUPPORTED_LANGUAGE"
	UnsupportedFormat     Kind = "UNSUPPORTED_FORMAT"
	PayloadTooLarge       Kind = "PAYLOAD_TOO_LARGE"
	UpstreamQuotaExceeded Kind = "QUOTA_EXCEEDED"
	UpstreamInputRejected Kind = "INPUT_REJECTED"
	SessionExpired        Kind = "SESSION_EXPIRED"
	NotFound              Kind = "NOT_FOUND"
	Unimplemented         Kind = "NOT_IMPLEMENTED"
	Internal              Kind = "INTERNAL_ERROR"
)

// Status returns the HTTP status for the kind. Unknown kinds map to 500.
func (k Kind) Status() int {
	switch k {
	case ValidationFailure, UnsupportedLanguage, UnsupportedFormat, PayloadTooLarge, UpstreamInputRejected:
		return http.StatusBadRequest
	case UpstreamQuotaExceeded:
		return http.StatusTooManyRequests
	case SessionExpired:
		return http.StatusUnauthorized
	case NotFound:
		return http.StatusNotFound
	case Unimplemented:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified failure. Message is safe to show to clients; Err
// carries the underlying cause, which is only exposed outside production.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E creates a classified error without a cause.
func E(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err under kind with a client-facing message.
func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf reports the kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// StatusCode is the HTTP status for err.
func StatusCode(err error) int {
	return KindOf(err).Status()
}

// Message returns the client-facing message for err. Unclassified errors get a
// generic message so internals are not leaked.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Internal server error"
}

// Detail returns the raw cause text, used only in development responses.
func Detail(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Err != nil {
		return e.Err.Error()
	}
	return err.Error()
}

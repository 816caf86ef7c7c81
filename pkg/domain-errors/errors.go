// Package domainerrors provides code-carrying errors for domain and service
// layers. Handlers translate codes to HTTP statuses; services translate
// store sentinel errors into these.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error. The set is closed; adding a code means the
// HTTP mapping in httputil must learn it too.
type Code string

const (
	// CodeInvalidInput marks malformed input at a trust boundary (bad UUID,
	// unsupported enum value, failed field validation).
	CodeInvalidInput Code = "invalid_input"
	// CodeBadRequest marks a structurally broken request (unparseable body,
	// missing multipart part).
	CodeBadRequest Code = "bad_request"
	// CodeUnauthorized marks a missing or unverifiable identity.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden marks a present identity that lacks authority.
	CodeForbidden Code = "forbidden"
	// CodeNotFound marks an absent entity, or one invisible to the caller.
	CodeNotFound Code = "not_found"
	// CodeConflict marks a uniqueness or concurrent-update collision.
	CodeConflict Code = "conflict"
	// CodeInvalidTransition marks a status change the state machine rejects.
	CodeInvalidTransition Code = "invalid_transition"
	// CodeGenerationExhausted marks reference number collision retries running out.
	CodeGenerationExhausted Code = "generation_exhausted"
	// CodeInvariantViolation marks a broken aggregate invariant.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeUnavailable marks a collaborator (store, vault, broker) being down.
	CodeUnavailable Code = "unavailable"
	// CodeInternal marks everything else.
	CodeInternal Code = "internal"
)

// Error is the concrete domain error. Message is safe to surface to clients;
// wrapped causes are for logs only.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a domain error with the given code and client-safe message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted client-safe message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause. The cause is
// preserved for errors.Is/As chains and log output.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is an alias for HasCode kept for call-site readability.
func Is(err error, code Code) bool { return HasCode(err, code) }

// CodeOf extracts the code from err, defaulting to CodeInternal for
// non-domain errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the client-safe message from err. Non-domain errors get
// a generic message so internals never leak.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal server error"
}

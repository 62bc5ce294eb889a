package failure

import (
	"errors"
	"fmt"
)

// Kind tags a failure so callers can branch without matching message text.
type Kind string

const (
	// validation
	EmptyInput              Kind = "EmptyInput"
	TooShort                Kind = "TooShort"
	TooLong                 Kind = "TooLong"
	MissingCredential       Kind = "MissingCredential"
	InvalidCredentialFormat Kind = "InvalidCredentialFormat"
	InvalidOptions          Kind = "InvalidOptions"

	// transport
	Timeout      Kind = "Timeout"
	Cancelled    Kind = "Cancelled"
	NetworkError Kind = "NetworkError"

	// vendor
	InvalidCredential    Kind = "InvalidCredential"
	RateLimited          Kind = "RateLimited"
	QuotaExceeded        Kind = "QuotaExceeded"
	AuthenticationFailed Kind = "AuthenticationFailed"

	// contract
	MalformedResponse    Kind = "MalformedResponse"
	InvalidGeneratedCode Kind = "InvalidGeneratedCode"

	Unknown Kind = "Unknown"
)

// Category groups kinds by who is at fault.
type Category string

const (
	CategoryValidation Category = "validation"
	CategoryTransport  Category = "transport"
	CategoryVendor     Category = "vendor"
	CategoryContract   Category = "contract"
	CategoryUnknown    Category = "unknown"
)

// Category returns the taxonomy bucket of k.
func (k Kind) Category() Category {
	switch k {
	case EmptyInput, TooShort, TooLong, MissingCredential, InvalidCredentialFormat, InvalidOptions:
		return CategoryValidation
	case Timeout, Cancelled, NetworkError:
		return CategoryTransport
	case InvalidCredential, RateLimited, QuotaExceeded, AuthenticationFailed:
		return CategoryVendor
	case MalformedResponse, InvalidGeneratedCode:
		return CategoryContract
	default:
		return CategoryUnknown
	}
}

// Retryable reports whether a failure of kind k is worth an automatic retry.
// Only throttling qualifies; everything else is surfaced to the caller.
func (k Kind) Retryable() bool {
	return k == RateLimited
}

// Error is a classified failure. Message is a single line suitable for display.
type Error struct {
	Kind      Kind
	Message   string
	Retryable bool
	Cause     error
}

// New returns an Error of the given kind. Retryable follows the kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Retryable: kind.Retryable()}
}

// Newf is New with a format string.
func Newf(kind Kind, format string, args ...any) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

// Wrap returns an Error of the given kind carrying cause.
func Wrap(kind Kind, cause error, message string) *Error {
	e := New(kind, message)
	e.Cause = cause
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches another *Error by kind, so errors.Is(err, failure.New(failure.Timeout, ""))
// works regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind
}

// From extracts an *Error from err's chain.
func From(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// KindOf returns the kind of err, or Unknown when err is not classified.
func KindOf(err error) Kind {
	if e, ok := From(err); ok {
		return e.Kind
	}
	return Unknown
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

package llm

import (
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind is the adapter-level failure vocabulary, independent of vendor.
type ErrorKind string

const (
	KindUnauthorized      ErrorKind = "Unauthorized"
	KindInvalidArgument   ErrorKind = "InvalidArgument"
	KindResourceExhausted ErrorKind = "ResourceExhausted"
	KindPermissionDenied  ErrorKind = "PermissionDenied"
	KindUnavailable       ErrorKind = "Unavailable"
	KindMalformedResponse ErrorKind = "MalformedResponse"
	KindUnknown           ErrorKind = "Unknown"
)

// APIError is returned by every adapter. StatusCode is the HTTP status (0 when
// the call never got a response) and Status the vendor code, e.g. RESOURCE_EXHAUSTED.
type APIError struct {
	Provider   string
	Kind       ErrorKind
	StatusCode int
	Status     string
	Message    string
	Cause      error
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s", e.Provider)
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, " status %d", e.StatusCode)
	}
	if e.Status != "" {
		fmt.Fprintf(&b, " %s", e.Status)
	}
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if msg != "" {
		fmt.Fprintf(&b, ": %s", msg)
	}
	return b.String()
}

func (e *APIError) Unwrap() error { return e.Cause }

// kindForStatus maps an HTTP status and optional vendor status to an ErrorKind.
// The vendor status wins when it is recognised.
func kindForStatus(httpStatus int, vendorStatus string) ErrorKind {
	switch strings.ToUpper(vendorStatus) {
	case "UNAUTHENTICATED":
		return KindUnauthorized
	case "INVALID_ARGUMENT":
		return KindInvalidArgument
	case "RESOURCE_EXHAUSTED":
		return KindResourceExhausted
	case "PERMISSION_DENIED":
		return KindPermissionDenied
	case "UNAVAILABLE":
		return KindUnavailable
	}
	switch {
	case httpStatus == http.StatusUnauthorized:
		return KindUnauthorized
	case httpStatus == http.StatusForbidden:
		return KindPermissionDenied
	case httpStatus == http.StatusTooManyRequests:
		return KindResourceExhausted
	case httpStatus == http.StatusBadRequest:
		return KindInvalidArgument
	case httpStatus == http.StatusServiceUnavailable, httpStatus == http.StatusBadGateway, httpStatus == http.StatusGatewayTimeout:
		return KindUnavailable
	}
	return KindUnknown
}

func malformed(provider, msg string) *APIError {
	return &APIError{Provider: provider, Kind: KindMalformedResponse, Message: msg}
}

func transportError(provider string, err error) *APIError {
	return &APIError{Provider: provider, Kind: KindUnavailable, Message: err.Error(), Cause: err}
}

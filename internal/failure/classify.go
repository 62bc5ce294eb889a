package failure

import (
	"context"
	"errors"
	"net"
	"regexp"
	"strings"

	"github.com/example/app-builder/internal/providers/llm"
)

const maxDetail = 200

var (
	status401 = regexp.MustCompile(`\b401\b`)
	status403 = regexp.MustCompile(`\b403\b`)
	status429 = regexp.MustCompile(`\b429\b`)
)

// hardQuota marks throttling responses that will not clear by waiting: the
// account is out of credit or over its plan, as opposed to a per-minute limit.
var hardQuota = []string{"exceeded your current quota", "insufficient_quota", "billing details"}

var messages = map[Kind]string{
	InvalidCredential:    "Invalid API key. Please check your API key in Settings.",
	RateLimited:          "Rate limit exceeded. Please wait a few seconds and try again.",
	QuotaExceeded:        "API quota exceeded. Check your provider console for usage and limits.",
	AuthenticationFailed: "Authentication failed. Please check your API key in Settings.",
	NetworkError:         "Failed to connect to the API. Please check your internet connection.",
	MalformedResponse:    "Invalid response from AI model.",
	Cancelled:            "Generation cancelled.",
	Timeout:              "Request timeout: no response from AI model.",
}

// Classify maps a raw failure to an *Error. Structured signals (adapter error
// kinds, context errors, net.Error) are used first; message text is the fallback.
// A nil err yields nil and an already classified error is returned as is.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := From(err); ok {
		return e
	}
	switch {
	case errors.Is(err, context.Canceled):
		return Wrap(Cancelled, err, messages[Cancelled])
	case errors.Is(err, context.DeadlineExceeded):
		return Wrap(Timeout, err, messages[Timeout])
	}

	var apiErr *llm.APIError
	if errors.As(err, &apiErr) {
		if kind, ok := kindFromAPI(apiErr); ok {
			if kind == RateLimited && isHardQuota(strings.ToLower(apiErr.Error())) {
				kind = QuotaExceeded
			}
			return build(kind, err)
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return build(NetworkError, err)
	}
	return build(kindFromMessage(err.Error()), err)
}

func kindFromAPI(e *llm.APIError) (Kind, bool) {
	switch e.Kind {
	case llm.KindUnauthorized, llm.KindInvalidArgument:
		return InvalidCredential, true
	case llm.KindResourceExhausted:
		return RateLimited, true
	case llm.KindPermissionDenied:
		return AuthenticationFailed, true
	case llm.KindUnavailable:
		return NetworkError, true
	case llm.KindMalformedResponse:
		return MalformedResponse, true
	}
	return "", false
}

// kindFromMessage applies the substring rules in priority order.
func kindFromMessage(msg string) Kind {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "api key"),
		strings.Contains(lower, "invalid_argument"),
		status401.MatchString(lower):
		return InvalidCredential
	case isHardQuota(lower):
		return QuotaExceeded
	case status429.MatchString(lower),
		strings.Contains(lower, "rate limit"),
		strings.Contains(lower, "resource_exhausted"),
		strings.Contains(lower, "too many requests"):
		return RateLimited
	case strings.Contains(lower, "quota"):
		return QuotaExceeded
	case strings.Contains(lower, "permission_denied"),
		strings.Contains(lower, "unauthenticated"),
		status403.MatchString(lower):
		return AuthenticationFailed
	case strings.Contains(lower, "connection refused"),
		strings.Contains(lower, "connection reset"),
		strings.Contains(lower, "no such host"),
		strings.Contains(lower, "fetch"),
		strings.Contains(lower, "network"):
		return NetworkError
	}
	return Unknown
}

func isHardQuota(lower string) bool {
	for _, s := range hardQuota {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

func build(kind Kind, cause error) *Error {
	detail := oneLine(cause.Error())
	msg, ok := messages[kind]
	switch {
	case !ok:
		msg = "Failed to generate code: " + detail
	case detail != "":
		msg += " (" + detail + ")"
	}
	return Wrap(kind, cause, msg)
}

func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > maxDetail {
		s = string(r[:maxDetail]) + "..."
	}
	return s
}

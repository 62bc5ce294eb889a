package failure

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/example/app-builder/internal/providers/llm"
)

func TestClassifyMessages(t *testing.T) {
	RegisterTestingT(t)

	cases := []struct {
		msg  string
		kind Kind
	}{
		{"API key not valid. Please pass a valid API key.", InvalidCredential},
		{"[400 Bad Request] INVALID_ARGUMENT", InvalidCredential},
		{"request failed with status 401", InvalidCredential},
		{"got 429 from upstream", RateLimited},
		{"Rate limit reached for requests", RateLimited},
		{"RESOURCE_EXHAUSTED: quota exceeded for metric", RateLimited},
		{"Too Many Requests", RateLimited},
		{"You exceeded your current quota, please check your plan", QuotaExceeded},
		{"openai status 429 insufficient_quota: You exceeded your current quota", QuotaExceeded},
		{"PERMISSION_DENIED: caller lacks permission", AuthenticationFailed},
		{"UNAUTHENTICATED", AuthenticationFailed},
		{"HTTP 403 Forbidden", AuthenticationFailed},
		{"dial tcp 127.0.0.1:443: connect: connection refused", NetworkError},
		{"Failed to fetch", NetworkError},
		{"model overloaded", Unknown},
		{"took 4291ms", Unknown},
	}
	for _, tc := range cases {
		e := Classify(errors.New(tc.msg))
		Expect(e.Kind).To(Equal(tc.kind), tc.msg)
		Expect(e.Retryable).To(Equal(tc.kind == RateLimited), tc.msg)
		Expect(e.Message).NotTo(ContainSubstring("\n"), tc.msg)
	}
}

func TestClassifyAPIErrors(t *testing.T) {
	RegisterTestingT(t)

	cases := []struct {
		err  *llm.APIError
		kind Kind
	}{
		{&llm.APIError{Provider: "gemini", Kind: llm.KindUnauthorized, StatusCode: 401}, InvalidCredential},
		{&llm.APIError{Provider: "gemini", Kind: llm.KindInvalidArgument, StatusCode: 400, Status: "INVALID_ARGUMENT"}, InvalidCredential},
		{&llm.APIError{Provider: "gemini", Kind: llm.KindResourceExhausted, StatusCode: 429}, RateLimited},
		{&llm.APIError{Provider: "gemini", Kind: llm.KindResourceExhausted, StatusCode: 429, Status: "RESOURCE_EXHAUSTED", Message: "Resource has been exhausted (e.g. check quota)."}, RateLimited},
		{&llm.APIError{Provider: "gemini", Kind: llm.KindResourceExhausted, StatusCode: 429, Status: "RESOURCE_EXHAUSTED", Message: "You exceeded your current quota, please check your plan and billing details."}, QuotaExceeded},
		{&llm.APIError{Provider: "openai", Kind: llm.KindResourceExhausted, StatusCode: 429, Status: "insufficient_quota", Message: "You exceeded your current quota"}, QuotaExceeded},
		{&llm.APIError{Provider: "gemini", Kind: llm.KindPermissionDenied, StatusCode: 403}, AuthenticationFailed},
		{&llm.APIError{Provider: "openai", Kind: llm.KindUnavailable, StatusCode: 503}, NetworkError},
		{&llm.APIError{Provider: "gemini", Kind: llm.KindMalformedResponse, Message: "no candidates"}, MalformedResponse},
		// unknown adapter kinds fall back to the message
		{&llm.APIError{Provider: "gemini", Kind: llm.KindUnknown, StatusCode: 500, Message: "quota exhausted"}, QuotaExceeded},
		{&llm.APIError{Provider: "gemini", Kind: llm.KindUnknown, StatusCode: 500, Message: "internal"}, Unknown},
	}
	for _, tc := range cases {
		e := Classify(fmt.Errorf("complete: %w", tc.err))
		Expect(e.Kind).To(Equal(tc.kind), tc.err.Error())

		var apiErr *llm.APIError
		Expect(errors.As(e, &apiErr)).To(BeTrue())
	}
}

func TestClassifyKeepsSignal(t *testing.T) {
	RegisterTestingT(t)

	e := Classify(&llm.APIError{Provider: "gemini", Kind: llm.KindResourceExhausted, StatusCode: 429, Status: "RESOURCE_EXHAUSTED"})
	Expect(e.Message).To(HavePrefix("Rate limit exceeded."))
	Expect(e.Message).To(ContainSubstring("429"))
	Expect(e.Message).To(ContainSubstring("RESOURCE_EXHAUSTED"))

	long := Classify(errors.New(strings.Repeat("boom ", 100)))
	Expect(long.Kind).To(Equal(Unknown))
	Expect(long.Message).To(HavePrefix("Failed to generate code: boom"))
	Expect(long.Message).To(HaveSuffix("..."))
}

type timeoutNetErr struct{}

func (timeoutNetErr) Error() string   { return "i/o timeout" }
func (timeoutNetErr) Timeout() bool   { return true }
func (timeoutNetErr) Temporary() bool { return false }

func TestClassifyStructured(t *testing.T) {
	RegisterTestingT(t)

	Expect(Classify(nil)).To(BeNil())
	Expect(Classify(context.Canceled).Kind).To(Equal(Cancelled))
	Expect(Classify(fmt.Errorf("call: %w", context.DeadlineExceeded)).Kind).To(Equal(Timeout))

	var netErr net.Error = timeoutNetErr{}
	Expect(Classify(&net.OpError{Op: "dial", Net: "tcp", Err: netErr}).Kind).To(Equal(NetworkError))

	// a cancelled transport error is still a cancellation
	wrapped := &llm.APIError{Provider: "gemini", Kind: llm.KindUnavailable, Cause: context.Canceled}
	Expect(Classify(wrapped).Kind).To(Equal(Cancelled))
}

func TestClassifyPassesThroughClassified(t *testing.T) {
	RegisterTestingT(t)

	orig := Newf(Timeout, "Request timeout: No response from AI model after %dms", 1500)
	got := Classify(fmt.Errorf("attempt 2: %w", orig))
	Expect(got).To(BeIdenticalTo(orig))
}

func TestErrorIsAndKinds(t *testing.T) {
	RegisterTestingT(t)

	err := fmt.Errorf("wrapped: %w", New(RateLimited, "slow down"))
	Expect(errors.Is(err, New(RateLimited, ""))).To(BeTrue())
	Expect(errors.Is(err, New(Timeout, ""))).To(BeFalse())
	Expect(IsKind(err, RateLimited)).To(BeTrue())
	Expect(KindOf(errors.New("plain"))).To(Equal(Unknown))
	Expect(IsKind(nil, Unknown)).To(BeFalse())

	cause := errors.New("root")
	Expect(errors.Is(Wrap(NetworkError, cause, "x"), cause)).To(BeTrue())

	Expect(RateLimited.Retryable()).To(BeTrue())
	for _, k := range []Kind{Timeout, Cancelled, NetworkError, InvalidCredential, QuotaExceeded, AuthenticationFailed, MalformedResponse, InvalidGeneratedCode, Unknown, EmptyInput} {
		Expect(k.Retryable()).To(BeFalse(), string(k))
	}

	Expect(TooLong.Category()).To(Equal(CategoryValidation))
	Expect(Cancelled.Category()).To(Equal(CategoryTransport))
	Expect(QuotaExceeded.Category()).To(Equal(CategoryVendor))
	Expect(InvalidGeneratedCode.Category()).To(Equal(CategoryContract))
	Expect(Unknown.Category()).To(Equal(CategoryUnknown))
}

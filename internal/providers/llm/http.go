package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxErrorBody = 4 << 10

// vendorError is the union of the error envelopes used by Gemini, OpenAI and Anthropic.
type vendorError struct {
	Error struct {
		Code    any    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
		Type    string `json:"type"`
	} `json:"error"`
}

// anthropicStatus translates Anthropic error types into the google-style status vocabulary.
var anthropicStatus = map[string]string{
	"authentication_error":  "UNAUTHENTICATED",
	"permission_error":      "PERMISSION_DENIED",
	"invalid_request_error": "INVALID_ARGUMENT",
	"rate_limit_error":      "RESOURCE_EXHAUSTED",
	"overloaded_error":      "UNAVAILABLE",
}

// defaultClient has no overall timeout; each call is bounded by its context.
var defaultClient = &http.Client{}

// postJSON performs a single POST. Non-2xx responses become *APIError with the
// vendor status preserved; no retry happens here.
func postJSON(ctx context.Context, client *http.Client, provider, url string, headers map[string]string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", provider, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("build %s request: %w", provider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		return transportError(provider, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return decodeAPIError(provider, res)
	}
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return transportError(provider, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return malformed(provider, "empty response body")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		e := malformed(provider, "decode response: "+err.Error())
		e.Cause = err
		return e
	}
	return nil
}

func decodeAPIError(provider string, res *http.Response) *APIError {
	raw, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
	var ve vendorError
	msg := strings.TrimSpace(string(raw))
	status := ""
	if json.Unmarshal(raw, &ve) == nil {
		if ve.Error.Message != "" {
			msg = ve.Error.Message
		}
		status = ve.Error.Status
		if status == "" && provider == "anthropic" {
			status = anthropicStatus[ve.Error.Type]
		}
	}
	if msg == "" {
		msg = http.StatusText(res.StatusCode)
	}
	return &APIError{
		Provider:   provider,
		Kind:       kindForStatus(res.StatusCode, status),
		StatusCode: res.StatusCode,
		Status:     status,
		Message:    firstLine(msg),
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i != -1 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

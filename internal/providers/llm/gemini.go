package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/url"
	"strings"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// GeminiClient uses the Google Generative AI Go SDK. A fresh SDK client is
// opened per call so the credential never outlives the request.
type GeminiClient struct {
	APIKey   string
	Endpoint string
}

func (c *GeminiClient) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	opts := []option.ClientOption{option.WithAPIKey(c.APIKey)}
	if c.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.Endpoint))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, sdkError(err)
	}
	defer client.Close()

	model := client.GenerativeModel(req.Model)
	model.SetTemperature(req.Temperature)
	if req.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(req.MaxOutputTokens)
	}
	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return nil, sdkError(err)
	}
	if resp == nil {
		return nil, malformed("gemini", "missing response object")
	}
	text, finish := firstText(resp)
	if strings.TrimSpace(text) == "" {
		return nil, malformed("gemini", "no text content in response")
	}
	return &Completion{Text: text, Model: req.Model, FinishReason: finish}, nil
}

// firstText concatenates the text parts of the first candidate that has any.
func firstText(r *genai.GenerateContentResponse) (string, string) {
	for _, c := range r.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		var b strings.Builder
		for _, part := range c.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if b.Len() > 0 {
			return b.String(), c.FinishReason.String()
		}
	}
	return "", ""
}

var grpcKinds = map[codes.Code]ErrorKind{
	codes.Unauthenticated:   KindUnauthorized,
	codes.InvalidArgument:   KindInvalidArgument,
	codes.ResourceExhausted: KindResourceExhausted,
	codes.PermissionDenied:  KindPermissionDenied,
	codes.Unavailable:       KindUnavailable,
}

// sdkError maps SDK failures onto APIError, preferring structured codes.
func sdkError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return &APIError{Provider: "gemini", Kind: KindMalformedResponse, Message: blocked.Error(), Cause: err}
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		vendor := ""
		var ve vendorError
		if json.Unmarshal([]byte(gerr.Body), &ve) == nil {
			vendor = ve.Error.Status
		}
		msg := gerr.Message
		if msg == "" {
			msg = ve.Error.Message
		}
		return &APIError{
			Provider:   "gemini",
			Kind:       kindForStatus(gerr.Code, vendor),
			StatusCode: gerr.Code,
			Status:     vendor,
			Message:    firstLine(msg),
			Cause:      err,
		}
	}
	if st, ok := status.FromError(err); ok && st.Code() != codes.OK {
		kind, known := grpcKinds[st.Code()]
		if !known {
			kind = KindUnknown
		}
		return &APIError{
			Provider: "gemini",
			Kind:     kind,
			Status:   strings.ToUpper(toSnake(st.Code().String())),
			Message:  firstLine(st.Message()),
			Cause:    err,
		}
	}
	var nerr net.Error
	var uerr *url.Error
	if errors.As(err, &nerr) || errors.As(err, &uerr) {
		return transportError("gemini", err)
	}
	return &APIError{Provider: "gemini", Kind: KindUnknown, Message: firstLine(err.Error()), Cause: err}
}

// toSnake turns a gRPC code name such as ResourceExhausted into RESOURCE_EXHAUSTED form.
func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}
	return b.String()
}

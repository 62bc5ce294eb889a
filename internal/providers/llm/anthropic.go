package llm

import (
	"context"
	"net/http"
	"strings"
)

const (
	defaultAnthropicURL       = "https://api.anthropic.com/v1/messages"
	anthropicVersion          = "2023-06-01"
	defaultAnthropicMaxTokens = 8192
)

type AnthropicClient struct {
	APIKey string
	URL    string

	httpClient *http.Client
}

func (c *AnthropicClient) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	maxTokens := int(req.MaxOutputTokens)
	if maxTokens <= 0 {
		// max_tokens is mandatory on this API
		maxTokens = defaultAnthropicMaxTokens
	}
	body := map[string]any{
		"model":       req.Model,
		"max_tokens":  maxTokens,
		"temperature": req.Temperature,
		"messages": []map[string]any{{
			"role":    "user",
			"content": []map[string]string{{"type": "text", "text": req.Prompt}},
		}},
	}
	var resp struct {
		Model      string `json:"model"`
		StopReason string `json:"stop_reason"`
		Content    []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	url := c.URL
	if url == "" {
		url = defaultAnthropicURL
	}
	hc := c.httpClient
	if hc == nil {
		hc = defaultClient
	}
	headers := map[string]string{
		"x-api-key":         c.APIKey,
		"anthropic-version": anthropicVersion,
	}
	if err := postJSON(ctx, hc, "anthropic", url, headers, body, &resp); err != nil {
		return nil, err
	}
	var b strings.Builder
	for _, part := range resp.Content {
		if part.Type == "" || part.Type == "text" {
			b.WriteString(part.Text)
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return nil, malformed("anthropic", "no content")
	}
	model := resp.Model
	if model == "" {
		model = req.Model
	}
	return &Completion{Text: b.String(), Model: model, FinishReason: resp.StopReason}, nil
}

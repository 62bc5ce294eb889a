package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiHTTPClient talks to the Generative Language REST API directly.
type GeminiHTTPClient struct {
	APIKey  string
	BaseURL string

	httpClient *http.Client
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float32 `json:"temperature"`
	MaxOutputTokens int32   `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

func (c *GeminiHTTPClient) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	base := strings.TrimRight(c.BaseURL, "/")
	if base == "" {
		base = defaultGeminiBaseURL
	}
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", base, url.PathEscape(req.Model))
	body := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: req.Prompt}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxOutputTokens,
		},
	}
	hc := c.httpClient
	if hc == nil {
		hc = defaultClient
	}
	var out geminiResponse
	headers := map[string]string{"x-goog-api-key": c.APIKey}
	if err := postJSON(ctx, hc, "gemini", endpoint, headers, body, &out); err != nil {
		return nil, err
	}
	if out.PromptFeedback != nil && out.PromptFeedback.BlockReason != "" {
		return nil, malformed("gemini", "prompt blocked: "+out.PromptFeedback.BlockReason)
	}
	if len(out.Candidates) == 0 {
		return nil, malformed("gemini", "no candidates")
	}
	var b strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	if strings.TrimSpace(b.String()) == "" {
		return nil, malformed("gemini", "no text content in response")
	}
	return &Completion{Text: b.String(), Model: req.Model, FinishReason: out.Candidates[0].FinishReason}, nil
}

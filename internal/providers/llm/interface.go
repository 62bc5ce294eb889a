package llm

import (
	"context"
)

// CompletionRequest is one fully formed text-generation call.
type CompletionRequest struct {
	Prompt      string
	Model       string
	Temperature float32
	// MaxOutputTokens caps the response; zero leaves the vendor default.
	MaxOutputTokens int32
}

// Completion carries the raw text returned by the model.
type Completion struct {
	Text  string
	Model string
	// FinishReason is vendor specific and informational only.
	FinishReason string
}

// Client issues exactly one generation call. Implementations must not retry or
// sleep; retry discipline belongs to the caller.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}

// Factory binds a credential to a Client for one logical request.
type Factory func(credential string) Client

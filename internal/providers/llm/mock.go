package llm

import (
	"context"
	"fmt"
	"html"
	"strings"
)

// MockClient is used when no real provider is configured. It returns a small,
// deterministic page echoing the request so the pipeline can run offline.
type MockClient struct{}

func (m *MockClient) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	title := req.Prompt
	if i := strings.LastIndex(title, "User Request:"); i != -1 {
		title = title[i+len("User Request:"):]
	}
	title = html.EscapeString(strings.TrimSpace(title))
	page := fmt.Sprintf("```html\n<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"UTF-8\">\n<title>%s</title>\n</head>\n<body>\n<h1>%s</h1>\n</body>\n</html>\n```", title, title)
	return &Completion{Text: page, Model: "mock"}, nil
}

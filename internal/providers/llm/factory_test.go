package llm

import (
	"context"
	"strings"
	"testing"

	. "github.com/onsi/gomega"
)

func TestNewFactory(t *testing.T) {
	RegisterTestingT(t)

	cases := []struct {
		provider string
		want     Client
	}{
		{"", &GeminiClient{}},
		{"Google", &GeminiClient{}},
		{"gemini", &GeminiClient{}},
		{"something-else", &GeminiClient{}},
		{"gemini-http", &GeminiHTTPClient{}},
		{" OpenAI ", &OpenAIClient{}},
		{"anthropic", &AnthropicClient{}},
		{"mock", &MockClient{}},
	}
	for _, tc := range cases {
		c := NewFactory(Config{Provider: tc.provider})("AIzaSyValidLookingKey123456")
		Expect(c).To(BeAssignableToTypeOf(tc.want), tc.provider)
	}
}

func TestNewFactoryBindsCredentialPerCall(t *testing.T) {
	RegisterTestingT(t)

	f := NewFactory(Config{Provider: "openai", BaseURL: "http://localhost:9999/"})
	a := f("key-a-123456").(*OpenAIClient)
	b := f("key-b-123456").(*OpenAIClient)
	Expect(a.APIKey).To(Equal("key-a-123456"))
	Expect(b.APIKey).To(Equal("key-b-123456"))
	Expect(a.BaseURL).To(Equal("http://localhost:9999"))
}

func TestDefaultModel(t *testing.T) {
	RegisterTestingT(t)

	Expect(DefaultModel("")).To(Equal("gemini-2.5-flash"))
	Expect(DefaultModel("gemini-http")).To(Equal("gemini-2.5-flash"))
	Expect(DefaultModel("openai")).To(Equal("gpt-4o-mini"))
	Expect(DefaultModel("anthropic")).To(Equal("claude-3-5-sonnet-latest"))
	Expect(DefaultModel("mock")).To(Equal("mock"))
}

func TestMockClient(t *testing.T) {
	RegisterTestingT(t)

	prompt := "instructions\n\nUser Request: Build a <b>timer</b>"
	res, err := (&MockClient{}).Complete(context.Background(), CompletionRequest{Prompt: prompt})
	Expect(err).NotTo(HaveOccurred())
	Expect(res.Text).To(HavePrefix("```html\n<!DOCTYPE html>"))
	Expect(res.Text).To(ContainSubstring("<h1>Build a &lt;b&gt;timer&lt;/b&gt;</h1>"))
	Expect(strings.Count(res.Text, "<body>")).To(Equal(1))

	again, _ := (&MockClient{}).Complete(context.Background(), CompletionRequest{Prompt: prompt})
	Expect(again.Text).To(Equal(res.Text))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = (&MockClient{}).Complete(ctx, CompletionRequest{Prompt: prompt})
	Expect(err).To(MatchError(context.Canceled))
}

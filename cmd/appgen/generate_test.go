package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/example/app-builder/internal/config"
)

func TestDescribeJoinsBrief(t *testing.T) {
	RegisterTestingT(t)

	path := filepath.Join(t.TempDir(), "brief.txt")
	Expect(os.WriteFile(path, []byte("Track daily water intake."), 0o644)).To(Succeed())

	generateFlags.brief = path
	t.Cleanup(func() { generateFlags.brief = "" })

	got, err := describe(context.Background(), &config.Config{BriefMaxBytes: 1 << 20, BriefMaxPages: 5}, []string{"a habit tracker"})
	Expect(err).NotTo(HaveOccurred())
	Expect(got).To(Equal("a habit tracker\n\nTrack daily water intake."))
}

func TestDescribeMissingBrief(t *testing.T) {
	RegisterTestingT(t)

	generateFlags.brief = filepath.Join(t.TempDir(), "nope.pdf")
	t.Cleanup(func() { generateFlags.brief = "" })

	_, err := describe(context.Background(), &config.Config{}, nil)
	Expect(err).To(MatchError(ContainSubstring("read brief")))
}

func TestCredentialPrecedence(t *testing.T) {
	RegisterTestingT(t)

	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("LLM_API_KEY", "llm-key-value")
	Expect(credential()).To(Equal("llm-key-value"))

	t.Setenv("GOOGLE_API_KEY", "google-key-value")
	Expect(credential()).To(Equal("google-key-value"))

	generateFlags.apiKey = "flag-key-value"
	t.Cleanup(func() { generateFlags.apiKey = "" })
	Expect(credential()).To(Equal("flag-key-value"))
}

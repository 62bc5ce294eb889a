package generation

import (
	"testing"

	. "github.com/onsi/gomega"

	"github.com/example/app-builder/internal/failure"
)

const todoPage = "<!DOCTYPE html><html><body>Todo</body></html>"

func TestStripFences(t *testing.T) {
	RegisterTestingT(t)

	cases := []struct{ in, want string }{
		{"```html\n" + todoPage + "\n```", todoPage},
		{"```\n" + todoPage + "\n```", todoPage},
		{"  ```HTML " + todoPage + "```  ", todoPage},
		{"```html\n```html\n" + todoPage + "\n```\n```", todoPage},
		{todoPage, todoPage},
		{"\n\n" + todoPage + "\n", todoPage},
		{"```", ""},
		{"```vue.js\n<div></div>\n```", "<div></div>"},
		{"plain text", "plain text"},
	}
	for _, tc := range cases {
		Expect(StripFences(tc.in)).To(Equal(tc.want), "%q", tc.in)
	}
}

func TestStripFencesIsIdempotent(t *testing.T) {
	RegisterTestingT(t)

	inputs := []string{
		"",
		"```",
		"``````",
		"```html",
		"```html\n```",
		"```html\n" + todoPage + "\n```",
		"```\n```\n```html " + todoPage + " ``` ```",
		"text ``` with a fence inside",
		"````html\n" + todoPage + "\n````",
		"  \n```c++\nint main() {}\n```\n  ",
	}
	for _, in := range inputs {
		once := StripFences(in)
		Expect(StripFences(once)).To(Equal(once), "%q", in)
	}
}

func TestExtractDocument(t *testing.T) {
	RegisterTestingT(t)

	got, err := ExtractDocument(todoPage)
	Expect(err).NotTo(HaveOccurred())
	Expect(got).To(Equal(todoPage))

	// preamble ahead of the doctype is dropped
	got, err = ExtractDocument("Here is your app:\n" + todoPage)
	Expect(err).NotTo(HaveOccurred())
	Expect(got).To(Equal(todoPage))

	// an <html> tag alone is enough
	got, err = ExtractDocument("<html lang=\"en\"><head></head><BODY class=\"x\"></BODY></html>")
	Expect(err).NotTo(HaveOccurred())
	Expect(got).To(HavePrefix("<html"))

	// lowercase doctype
	_, err = ExtractDocument("<!doctype html>\n<html><body></body></html>")
	Expect(err).NotTo(HaveOccurred())
}

func TestExtractDocumentRejects(t *testing.T) {
	RegisterTestingT(t)

	cases := []struct{ name, in string }{
		{"no markers", "<div>Todo</div>"},
		{"plain text", "I cannot help with that."},
		{"empty", ""},
		{"no body", "<!DOCTYPE html><html><head><title>x</title></head></html>"},
		{"body only in script", "<!DOCTYPE html><html><head><script>var s = '<body>';</script></head></html>"},
		{"body before doctype", "<body></body> intro <!DOCTYPE html><html></html>"},
		{"html only in a comment", "<!-- <html> --><div></div>"},
	}
	for _, tc := range cases {
		_, err := ExtractDocument(tc.in)
		Expect(err).To(HaveOccurred(), tc.name)
		Expect(failure.KindOf(err)).To(Equal(failure.InvalidGeneratedCode), tc.name)
		Expect(failure.Classify(err).Retryable).To(BeFalse(), tc.name)
	}
}

func TestNormalize(t *testing.T) {
	RegisterTestingT(t)

	got, err := Normalize("```html\n" + todoPage + "\n```")
	Expect(err).NotTo(HaveOccurred())
	Expect(got).To(Equal(todoPage))

	again, err := Normalize(got)
	Expect(err).NotTo(HaveOccurred())
	Expect(again).To(Equal(got))
}

func TestNormalizeDropsProseAfterClosingFence(t *testing.T) {
	RegisterTestingT(t)

	got, err := Normalize("```html\n" + todoPage + "\n```\nThis app stores todos in localStorage.")
	Expect(err).NotTo(HaveOccurred())
	Expect(got).To(Equal(todoPage))

	again, err := Normalize(got)
	Expect(err).NotTo(HaveOccurred())
	Expect(again).To(Equal(got))

	// text after </html> without a fence is left alone
	got, err = Normalize(todoPage + "\n<!-- build 7 -->")
	Expect(err).NotTo(HaveOccurred())
	Expect(got).To(Equal(todoPage + "\n<!-- build 7 -->"))
}

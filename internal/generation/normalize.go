package generation

import (
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/example/app-builder/internal/failure"
)

const fence = "```"

// StripFences removes Markdown code fences wrapped around text, including a
// language hint on the opening fence, and trims whitespace. Stripping repeats
// until nothing changes, so StripFences(StripFences(x)) == StripFences(x).
func StripFences(text string) string {
	t := strings.TrimSpace(text)
	for {
		next := stripOnce(t)
		if next == t {
			return t
		}
		t = next
	}
}

func stripOnce(t string) string {
	if strings.HasPrefix(t, fence) {
		t = strings.TrimPrefix(t, fence)
		t = strings.TrimLeftFunc(t, isLangRune)
	}
	if strings.HasSuffix(t, fence) {
		t = strings.TrimSuffix(t, fence)
	}
	return strings.TrimSpace(t)
}

// isLangRune matches the characters of a fence language hint such as html,
// c++ or vue.js.
func isLangRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '_', r == '+', r == '.', r == '-':
		return true
	}
	return false
}

// shape records where the structural markers of a document were found.
type shape struct {
	doctype int // byte offset of the first doctype, -1 when absent
	html    bool
	body    int // byte offset of the last <body> start tag, -1 when absent
	end     int // byte offset just past the last </html> end tag, -1 when absent
}

func scan(code string) (shape, error) {
	s := shape{doctype: -1, body: -1, end: -1}
	z := html.NewTokenizer(strings.NewReader(code))
	offset := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return s, err
			}
			return s, nil
		}
		at := offset
		offset += len(z.Raw())
		switch tt {
		case html.DoctypeToken:
			if s.doctype == -1 {
				s.doctype = at
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.Html:
				s.html = true
			case atom.Body:
				s.body = at
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if atom.Lookup(name) == atom.Html {
				s.end = offset
			}
		}
	}
}

// ExtractDocument checks that code is a complete HTML document and returns it.
// Text leaked ahead of a doctype declaration is dropped, and so is a closing
// fence left after </html> together with whatever follows it. Anything without a
// doctype or <html> tag, or without a <body> tag, is InvalidGeneratedCode.
func ExtractDocument(code string) (string, error) {
	s, err := scan(code)
	if err != nil {
		return "", failure.Wrap(failure.InvalidGeneratedCode, err, "Generated code could not be parsed as HTML")
	}
	if s.doctype == -1 && !s.html {
		return "", failure.New(failure.InvalidGeneratedCode, "Generated code does not appear to be valid HTML")
	}
	start := 0
	if s.doctype > 0 {
		start = s.doctype
	}
	if s.body < start {
		return "", failure.New(failure.InvalidGeneratedCode, "Generated code is missing a <body> element")
	}
	end := len(code)
	if s.end > start && strings.Contains(code[s.end:], fence) {
		end = s.end
	}
	return code[start:end], nil
}

// Normalize strips fences from raw model output and validates the document.
func Normalize(raw string) (string, error) {
	return ExtractDocument(StripFences(raw))
}

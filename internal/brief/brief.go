// Package brief turns an uploaded document into a plain-text app description.
// PDF, HTML and plain text files are supported.
package brief

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrEmpty       = errors.New("brief is empty")
	ErrTooLarge    = errors.New("brief too large")
	ErrUnsupported = errors.New("unsupported brief type; provide PDF, HTML or text")
)

// Kind names the detected format of a brief.
type Kind string

const (
	KindPDF  Kind = "pdf"
	KindHTML Kind = "html"
	KindText Kind = "text"
)

// Limits bound the work done on a single brief. Zero values take defaults.
type Limits struct {
	MaxBytes int64
	MaxPages int
	// Pages selects PDF pages, e.g. "1-3,7". Empty means all pages.
	Pages string
}

const (
	defaultMaxBytes = 20 << 20
	defaultMaxPages = 20
)

func (l Limits) withDefaults() Limits {
	if l.MaxBytes <= 0 {
		l.MaxBytes = defaultMaxBytes
	}
	if l.MaxPages <= 0 {
		l.MaxPages = defaultMaxPages
	}
	return l
}

// Brief is the text extracted from a document.
type Brief struct {
	Text  string
	Kind  Kind
	Pages int // PDF pages read, zero for other kinds
	Bytes int
}

// Extract detects the format of data and returns its text. filename and
// contentType are hints and may be empty.
func Extract(ctx context.Context, data []byte, filename, contentType string, limits Limits) (*Brief, error) {
	limits = limits.withDefaults()
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if int64(len(data)) > limits.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes > limit %d", ErrTooLarge, len(data), limits.MaxBytes)
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	ctype := strings.ToLower(contentType)

	var (
		b   *Brief
		err error
	)
	switch {
	case strings.HasPrefix(string(data[:min(len(data), 5)]), "%PDF-") || ext == "pdf" || strings.Contains(ctype, "pdf"):
		b, err = extractPDF(ctx, data, limits)
	case looksHTML(data, ext, ctype):
		b, err = extractHTML(data)
	case isText(ext, ctype):
		b = &Brief{Text: strings.TrimSpace(string(data)), Kind: KindText}
	default:
		return nil, ErrUnsupported
	}
	if err != nil {
		return nil, err
	}
	if b.Text == "" {
		return nil, ErrEmpty
	}
	b.Bytes = len(data)
	return b, nil
}

// ReadFile loads and extracts the brief stored at path.
func ReadFile(ctx context.Context, path string, limits Limits) (*Brief, error) {
	limits = limits.withDefaults()
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > limits.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes > limit %d", ErrTooLarge, info.Size(), limits.MaxBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Extract(ctx, data, filepath.Base(path), "", limits)
}

// DecodeBase64 decodes standard base64, accepting a data: URL prefix.
func DecodeBase64(s string) ([]byte, error) {
	if i := strings.Index(s, ","); i != -1 && strings.HasPrefix(s, "data:") {
		s = s[i+1:]
	}
	buf, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}
	return buf, nil
}

func looksHTML(data []byte, ext, ctype string) bool {
	if ext == "html" || ext == "htm" || strings.Contains(ctype, "html") {
		return true
	}
	head := strings.ToLower(string(data[:min(len(data), 1024)]))
	return strings.Contains(head, "<html") || strings.Contains(head, "<body") || strings.Contains(head, "<!doctype html")
}

var textExts = map[string]bool{
	"": true, "txt": true, "md": true, "markdown": true, "csv": true,
	"json": true, "log": true, "yaml": true, "yml": true,
}

func isText(ext, ctype string) bool {
	if ctype != "" {
		return strings.Contains(ctype, "text/") || strings.Contains(ctype, "json") ||
			strings.Contains(ctype, "csv") || strings.Contains(ctype, "yaml")
	}
	return textExts[ext]
}

package brief

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	pdfx "github.com/ledongthuc/pdf"
)

func extractPDF(ctx context.Context, data []byte, limits Limits) (*Brief, error) {
	r, err := pdfx.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	total := r.NumPage()
	selected := expandPages(limits.Pages, total)
	if len(selected) == 0 {
		for i := 1; i <= total; i++ {
			selected = append(selected, i)
		}
	}
	if len(selected) > limits.MaxPages {
		selected = selected[:limits.MaxPages]
	}

	var out strings.Builder
	for _, n := range selected {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := r.Page(n)
		if p.V.IsNull() {
			continue
		}
		txt, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("read pdf page %d: %w", n, err)
		}
		if t := strings.TrimSpace(txt); t != "" {
			out.WriteString(t)
			out.WriteString("\n\n")
		}
	}
	return &Brief{Text: strings.TrimSpace(out.String()), Kind: KindPDF, Pages: len(selected)}, nil
}

// expandPages parses a page list such as "1-3,7" into page numbers within
// [1, total], in order and without duplicates.
func expandPages(spec string, total int) []int {
	var out []int
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return out
	}
	seen := map[int]struct{}{}
	add := func(n int) {
		if n < 1 || n > total {
			return
		}
		if _, ok := seen[n]; !ok {
			out = append(out, n)
			seen[n] = struct{}{}
		}
	}
	for _, p := range strings.Split(spec, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if lo, hi, ok := strings.Cut(p, "-"); ok {
			a, _ := strconv.Atoi(strings.TrimSpace(lo))
			b, _ := strconv.Atoi(strings.TrimSpace(hi))
			if a > b {
				a, b = b, a
			}
			a, b = max(a, 1), min(b, total)
			for i := a; i <= b; i++ {
				add(i)
			}
			continue
		}
		n, _ := strconv.Atoi(p)
		add(n)
	}
	return out
}

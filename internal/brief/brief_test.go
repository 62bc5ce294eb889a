package brief

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/onsi/gomega"
)

func TestExtractHTML(t *testing.T) {
	RegisterTestingT(t)

	doc := `<!DOCTYPE html><html><head><title>Brief</title><style>p{color:red}</style></head>
<body><h1>Todo   app</h1><p>Add, remove and   check items.</p><script>alert(1)</script><ul><li>Dark mode</li></ul></body></html>`
	b, err := Extract(context.Background(), []byte(doc), "brief.bin", "", Limits{})
	Expect(err).NotTo(HaveOccurred())
	Expect(b.Kind).To(Equal(KindHTML))
	Expect(b.Text).To(Equal("Brief\nTodo app\nAdd, remove and check items.\nDark mode"))
	Expect(b.Bytes).To(Equal(len(doc)))
}

func TestExtractText(t *testing.T) {
	RegisterTestingT(t)

	b, err := Extract(context.Background(), []byte("  Build a pomodoro timer\n"), "idea.md", "", Limits{})
	Expect(err).NotTo(HaveOccurred())
	Expect(b.Kind).To(Equal(KindText))
	Expect(b.Text).To(Equal("Build a pomodoro timer"))

	b, err = Extract(context.Background(), []byte("a weather widget"), "", "text/plain; charset=utf-8", Limits{})
	Expect(err).NotTo(HaveOccurred())
	Expect(b.Text).To(Equal("a weather widget"))
}

func TestExtractRejects(t *testing.T) {
	RegisterTestingT(t)

	_, err := Extract(context.Background(), nil, "a.txt", "", Limits{})
	Expect(err).To(MatchError(ErrEmpty))

	_, err = Extract(context.Background(), []byte("   "), "a.txt", "", Limits{})
	Expect(err).To(MatchError(ErrEmpty))

	_, err = Extract(context.Background(), []byte(strings.Repeat("x", 11)), "a.txt", "", Limits{MaxBytes: 10})
	Expect(err).To(MatchError(ErrTooLarge))

	_, err = Extract(context.Background(), []byte{0x89, 'P', 'N', 'G'}, "logo.png", "", Limits{})
	Expect(err).To(MatchError(ErrUnsupported))

	_, err = Extract(context.Background(), []byte("%PDF-1.4 not really a pdf"), "", "", Limits{})
	Expect(err).To(MatchError(ContainSubstring("open pdf")))
}

func TestReadFile(t *testing.T) {
	RegisterTestingT(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "brief.txt")
	Expect(os.WriteFile(path, []byte("Create a calculator"), 0o600)).To(Succeed())

	b, err := ReadFile(context.Background(), path, Limits{})
	Expect(err).NotTo(HaveOccurred())
	Expect(b.Text).To(Equal("Create a calculator"))

	_, err = ReadFile(context.Background(), path, Limits{MaxBytes: 4})
	Expect(err).To(MatchError(ErrTooLarge))

	_, err = ReadFile(context.Background(), filepath.Join(dir, "missing.txt"), Limits{})
	Expect(os.IsNotExist(err)).To(BeTrue())
}

func TestDecodeBase64(t *testing.T) {
	RegisterTestingT(t)

	enc := base64.StdEncoding.EncodeToString([]byte("hello"))
	for _, in := range []string{enc, "data:text/plain;base64," + enc} {
		out, err := DecodeBase64(in)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(out)).To(Equal("hello"))
	}

	_, err := DecodeBase64("***")
	Expect(err).To(MatchError(ContainSubstring("invalid base64")))
}

func TestExpandPages(t *testing.T) {
	RegisterTestingT(t)

	Expect(expandPages("", 5)).To(BeEmpty())
	Expect(expandPages("1-3,7", 10)).To(Equal([]int{1, 2, 3, 7}))
	Expect(expandPages("3-1, 2, 9", 5)).To(Equal([]int{1, 2, 3}))
	Expect(expandPages("4-1000000", 6)).To(Equal([]int{4, 5, 6}))
	Expect(expandPages("x, 0, 9", 3)).To(BeEmpty())
}

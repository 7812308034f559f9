package normalize

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/joseph-ayodele/invoice-renamer/constants"
	"github.com/joseph-ayodele/invoice-renamer/internal/common"
)

// stubRunner routes converter invocations to test functions keyed by binary name.
type stubRunner struct {
	run func(ctx context.Context, name string, args ...string) ([]byte, []byte, error)
}

func (s stubRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	return s.run(ctx, name, args...)
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewInputDocument(t *testing.T) {
	dir := t.TempDir()
	txt := writeFile(t, dir, "notes.TXT", []byte("hello"))

	doc, err := NewInputDocument(txt)
	if err != nil {
		t.Fatalf("NewInputDocument: %v", err)
	}
	if doc.Kind != constants.TEXT || doc.Ext != "txt" || doc.Size != 5 {
		t.Errorf("doc = %+v", doc)
	}

	if _, err := NewInputDocument(dir); !common.IsKind(err, common.KindUnsupportedFormat) {
		t.Errorf("directory: want UNSUPPORTED_FORMAT, got %v", err)
	}

	exe := writeFile(t, dir, "tool.exe", []byte("x"))
	if _, err := NewInputDocument(exe); !common.IsKind(err, common.KindUnsupportedFormat) {
		t.Errorf(".exe: want UNSUPPORTED_FORMAT, got %v", err)
	}

	if _, err := NewInputDocument(filepath.Join(dir, "missing.pdf")); err == nil {
		t.Error("missing file: want error")
	}
}

func TestNormalizeTextDocument(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "invoice.txt", []byte("Invoice from Acme\nTotal: $40\n"))

	n := NewNormalizer(Config{}, nil)
	doc, err := NewInputDocument(path)
	if err != nil {
		t.Fatal(err)
	}
	units, err := n.Normalize(context.Background(), doc, false)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(units) != 1 || units[0].Kind != UnitText {
		t.Fatalf("units = %+v", units)
	}
	if !strings.Contains(units[0].Text, "Acme") {
		t.Errorf("Text = %q", units[0].Text)
	}
}

func TestNormalizeTextTruncatesToBudget(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "big.txt", []byte(strings.Repeat("a", 500)))

	n := NewNormalizer(Config{MaxTextChars: 100}, nil)
	doc, _ := NewInputDocument(path)
	units, err := n.Normalize(context.Background(), doc, false)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(units[0].Text) != 100 {
		t.Errorf("len = %d, want 100", len(units[0].Text))
	}
}

func TestNormalizeTextTruncationKeepsRunesWhole(t *testing.T) {
	dir := t.TempDir()
	// the euro sign is 3 bytes; a 5-byte budget lands inside it
	path := writeFile(t, dir, "utf8.txt", []byte("aaaa€"))

	n := NewNormalizer(Config{MaxTextChars: 5}, nil)
	doc, _ := NewInputDocument(path)
	units, err := n.Normalize(context.Background(), doc, false)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	got := units[0].Text
	if !utf8.ValidString(got) {
		t.Errorf("truncated text is not valid UTF-8: %q", got)
	}
	if got != "aaaa" {
		t.Errorf("Text = %q, want %q", got, "aaaa")
	}
}

func TestNormalizePDFWithTextLayer(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "statement.pdf", []byte("%PDF-1.4 fake"))

	pageOne := "ACCOUNT STATEMENT\nChase Bank\nJanuary 2024\n"
	pageTwo := "Transactions continued\n"
	n := NewNormalizer(Config{}, nil).WithRunner(stubRunner{
		run: func(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
			if name != "pdftotext" {
				t.Errorf("unexpected binary %q", name)
			}
			return []byte(pageOne + "\f" + pageTwo), nil, nil
		},
	})

	doc, _ := NewInputDocument(path)

	units, err := n.Normalize(context.Background(), doc, false)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(units) != 1 || units[0].Page != 0 {
		t.Fatalf("units = %+v", units)
	}
	if strings.Contains(units[0].Text, "continued") {
		t.Error("first-page mode leaked later pages")
	}

	units, err = n.Normalize(context.Background(), doc, true)
	if err != nil {
		t.Fatalf("Normalize all pages: %v", err)
	}
	if len(units) != 2 || units[1].Page != 1 {
		t.Fatalf("all-pages units = %+v", units)
	}
}

func TestNormalizeScannedPDFRasterizes(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "scan.pdf", []byte("not really a pdf"))

	n := NewNormalizer(Config{}, nil).WithRunner(stubRunner{
		run: func(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
			switch name {
			case "pdftotext":
				// scanned page: whitespace only
				return []byte("  \n \f "), nil, nil
			case "pdftoppm":
				prefix := args[len(args)-1]
				if err := os.WriteFile(prefix+"-1.png", encodePNG(t, 8, 8), 0o644); err != nil {
					t.Fatal(err)
				}
				return nil, nil, nil
			default:
				t.Fatalf("unexpected binary %q", name)
				return nil, nil, nil
			}
		},
	})

	doc, _ := NewInputDocument(path)
	units, err := n.Normalize(context.Background(), doc, false)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(units) != 1 || units[0].Kind != UnitImage || units[0].MimeType != "image/png" {
		t.Fatalf("units = %+v", units)
	}
	if len(units[0].Bytes) == 0 {
		t.Error("empty image payload")
	}
}

func TestNormalizePDFConverterMissing(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "doc.pdf", []byte("x"))

	n := NewNormalizer(Config{}, nil).WithRunner(stubRunner{
		run: func(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
			return nil, nil, exec.ErrNotFound
		},
	})

	doc, _ := NewInputDocument(path)
	_, err := n.Normalize(context.Background(), doc, false)
	if !common.IsKind(err, common.KindUnsupportedFormat) {
		t.Fatalf("want UNSUPPORTED_FORMAT, got %v", err)
	}
}

func TestNormalizeSmallImagePassesThrough(t *testing.T) {
	dir := t.TempDir()
	raw := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10}
	path := writeFile(t, dir, "photo.jpg", raw)

	n := NewNormalizer(Config{}, nil)
	doc, _ := NewInputDocument(path)
	units, err := n.Normalize(context.Background(), doc, false)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if units[0].Kind != UnitImage || units[0].MimeType != "image/jpeg" {
		t.Errorf("unit = %+v", units[0])
	}
	if !bytes.Equal(units[0].Bytes, raw) {
		t.Error("under-limit image was modified")
	}
}

func TestRecompressProducesJPEGUnderLimit(t *testing.T) {
	n := NewNormalizer(Config{}, nil)
	out, mime, err := n.recompress(encodePNG(t, 120, 120), 50_000)
	if err != nil {
		t.Fatalf("recompress: %v", err)
	}
	if mime != "image/jpeg" {
		t.Errorf("mime = %q", mime)
	}
	if len(out) > 50_000 {
		t.Errorf("still %d bytes", len(out))
	}
}

func TestRecompressGivesUpOnImpossibleLimit(t *testing.T) {
	n := NewNormalizer(Config{}, nil)
	_, _, err := n.recompress(encodePNG(t, 64, 64), 50)
	if !common.IsKind(err, common.KindContentTooLarge) {
		t.Fatalf("want CONTENT_TOO_LARGE, got %v", err)
	}
}

func TestRecompressUndecodableImage(t *testing.T) {
	n := NewNormalizer(Config{}, nil)
	_, _, err := n.recompress([]byte("definitely not an image"), 100)
	if !common.IsKind(err, common.KindContentTooLarge) {
		t.Fatalf("want CONTENT_TOO_LARGE, got %v", err)
	}
}

// encodePNG renders a small gradient so the bytes are a valid decodable image.
func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 7), G: uint8(y * 5), B: uint8(x + y), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

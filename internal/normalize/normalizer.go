package normalize

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"unicode"

	"github.com/joseph-ayodele/invoice-renamer/constants"
	"github.com/joseph-ayodele/invoice-renamer/internal/common"
)

// Config for the normalizer. Zero values fall back to the converter names and
// payload limits in constants.
type Config struct {
	Pdftotext string
	Pdftoppm  string
	DPI       int

	MaxRawBytes  int
	MaxTextChars int
}

// Normalizer converts an InputDocument into one or more service-ready
// ContentUnits. Temp files created along the way (rasterized pages, extracted
// images) are removed before Normalize returns, on every exit path.
type Normalizer struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewNormalizer(cfg Config, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = constants.RasterDPI
	}
	if cfg.MaxRawBytes <= 0 {
		cfg.MaxRawBytes = constants.MaxRawPayloadBytes
	}
	if cfg.MaxTextChars <= 0 {
		cfg.MaxTextChars = constants.MaxTextChars
	}
	return &Normalizer{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
}

// WithRunner swaps the exec runner; used by tests to stub converters.
func (n *Normalizer) WithRunner(r Runner) *Normalizer {
	n.runner = r
	return n
}

// Normalize produces a non-empty ordered unit sequence for doc. When allPages
// is false only page 0 (or the whole content) is normalized.
func (n *Normalizer) Normalize(ctx context.Context, doc InputDocument, allPages bool) ([]ContentUnit, error) {
	switch doc.Kind {
	case constants.TEXT:
		return n.normalizeText(doc)
	case constants.IMAGE:
		return n.normalizeImage(doc)
	case constants.PDF:
		return n.normalizePDF(ctx, doc, allPages)
	default:
		return nil, common.NewAppError(common.KindUnsupportedFormat,
			fmt.Sprintf("no normalizer for kind %q", doc.Kind), nil)
	}
}

func (n *Normalizer) normalizeText(doc InputDocument) ([]ContentUnit, error) {
	b, err := os.ReadFile(doc.Path)
	if err != nil {
		return nil, common.NewAppError(common.KindPermission, "read text file", err)
	}
	text := string(b)
	if len(text) > n.cfg.MaxTextChars {
		n.logger.Warn("normalize.text.truncated",
			"path", doc.Path, "chars", len(text), "budget", n.cfg.MaxTextChars)
		text = n.clampText(text)
	}
	return []ContentUnit{{Kind: UnitText, Page: 0, Text: text}}, nil
}

func (n *Normalizer) normalizeImage(doc InputDocument) ([]ContentUnit, error) {
	b, err := os.ReadFile(doc.Path)
	if err != nil {
		return nil, common.NewAppError(common.KindPermission, "read image file", err)
	}

	mime := constants.MimeTypeForExt(doc.Ext)
	if len(b) > n.cfg.MaxRawBytes {
		n.logger.Info("normalize.image.compressing",
			"path", doc.Path, "bytes", len(b), "limit", n.cfg.MaxRawBytes)
		cb, cm, err := n.recompress(b, n.cfg.MaxRawBytes)
		if err != nil {
			return nil, err
		}
		b, mime = cb, cm
	}

	return []ContentUnit{{Kind: UnitImage, Page: 0, Bytes: b, MimeType: mime}}, nil
}

// countPrintable counts characters that would carry signal for the analysis
// service; whitespace and control characters don't.
func countPrintable(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsPrint(r) && !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

func firstPage(text string) string {
	// pdftotext separates pages with form feeds.
	if i := strings.IndexByte(text, '\f'); i >= 0 {
		return text[:i]
	}
	return text
}

package normalize

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/joseph-ayodele/invoice-renamer/constants"
	"github.com/joseph-ayodele/invoice-renamer/internal/common"
)

// normalizePDF tries text extraction first; PDFs with no meaningful text are
// treated as scanned and go through the image path (embedded images when
// present, rasterized pages otherwise).
func (n *Normalizer) normalizePDF(ctx context.Context, doc InputDocument, allPages bool) ([]ContentUnit, error) {
	text, pages, err := n.pdfToText(ctx, doc.Path)
	if err == nil && countPrintable(text) >= constants.MinMeaningfulText {
		n.logger.Info("normalize.pdf.text",
			"path", doc.Path, "pages", pages, "chars", len(text), "all_pages", allPages)
		return n.textUnits(text, allPages), nil
	}

	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, common.NewAppError(common.KindUnsupportedFormat,
				"pdftotext not available; install poppler-utils", err)
		}
		n.logger.Warn("normalize.pdf.text_failed", "path", doc.Path, "error", err)
	} else {
		pageCount, cntErr := api.PageCountFile(doc.Path)
		if cntErr != nil {
			pageCount = pages
		}
		n.logger.Info("normalize.pdf.scanned",
			"path", doc.Path, "printable_chars", countPrintable(text), "pages", pageCount)
	}

	// Embedded image extraction is cheaper than rasterizing; try it first.
	units, imgErr := n.extractEmbeddedImages(doc.Path, allPages)
	if imgErr == nil && len(units) > 0 {
		n.logger.Info("normalize.pdf.embedded_images", "path", doc.Path, "units", len(units))
		return units, nil
	}
	if imgErr != nil {
		if common.IsKind(imgErr, common.KindContentTooLarge) {
			return nil, imgErr
		}
		n.logger.Warn("normalize.pdf.embedded_failed", "path", doc.Path, "error", imgErr)
	}

	return n.rasterizePages(ctx, doc.Path, allPages)
}

func (n *Normalizer) pdfToText(ctx context.Context, path string) (string, int, error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := n.runner.Run(ctx, n.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		if len(errb) > 0 {
			return "", 0, fmt.Errorf("pdftotext: %w: %s", err, truncate(string(errb), 512))
		}
		return "", 0, fmt.Errorf("pdftotext: %w", err)
	}
	text := string(out)
	// A form-feed \f is used as page separator by default.
	pages := 1 + strings.Count(text, "\f")
	return text, pages, nil
}

// textUnits splits extracted text into per-page units. Without allPages only
// the first page survives, as a single page-0 unit.
func (n *Normalizer) textUnits(text string, allPages bool) []ContentUnit {
	if !allPages {
		return []ContentUnit{{Kind: UnitText, Page: 0, Text: n.clampText(CleanText(firstPage(text)))}}
	}

	var units []ContentUnit
	for i, page := range strings.Split(text, "\f") {
		cleaned := CleanText(page)
		if cleaned == "" {
			continue
		}
		units = append(units, ContentUnit{Kind: UnitText, Page: i, Text: n.clampText(cleaned)})
	}
	if len(units) == 0 {
		units = []ContentUnit{{Kind: UnitText, Page: 0, Text: ""}}
	}
	return units
}

// clampText cuts s down to the text budget, backing up to a rune boundary so
// a multi-byte character is never split mid-sequence.
func (n *Normalizer) clampText(s string) string {
	if len(s) <= n.cfg.MaxTextChars {
		return s
	}
	cut := n.cfg.MaxTextChars
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// extractEmbeddedImages pulls image XObjects out of the PDF via pdfcpu.
// Returns (nil, nil) when the PDF carries no embedded images.
func (n *Normalizer) extractEmbeddedImages(path string, allPages bool) ([]ContentUnit, error) {
	tmpDir, err := os.MkdirTemp("", "ir-embed-*")
	if err != nil {
		return nil, err
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			n.logger.Warn("normalize.tmp_cleanup_failed", "dir", tmpDir, "error", rmErr)
		}
	}()

	var pages []string
	if !allPages {
		pages = []string{"1"}
	}
	if err := api.ExtractImagesFile(path, tmpDir, pages, nil); err != nil {
		return nil, fmt.Errorf("pdfcpu extract images: %w", err)
	}

	matches, _ := filepath.Glob(filepath.Join(tmpDir, "*"))
	sort.Strings(matches)
	if len(matches) == 0 {
		return nil, nil
	}
	if !allPages && len(matches) > 1 {
		matches = matches[:1]
	}

	units := make([]ContentUnit, 0, len(matches))
	for i, m := range matches {
		b, err := os.ReadFile(m)
		if err != nil {
			return nil, err
		}
		mime := constants.MimeTypeForExt(filepath.Ext(m))
		if len(b) > n.cfg.MaxRawBytes {
			cb, cm, err := n.recompress(b, n.cfg.MaxRawBytes)
			if err != nil {
				return nil, err
			}
			b, mime = cb, cm
		}
		units = append(units, ContentUnit{Kind: UnitImage, Page: i, Bytes: b, MimeType: mime})
	}
	return units, nil
}

// rasterizePages renders selected pages to PNG with pdftoppm and returns one
// image unit per page, compressed under the payload limit.
func (n *Normalizer) rasterizePages(ctx context.Context, path string, allPages bool) ([]ContentUnit, error) {
	tmpDir, err := os.MkdirTemp("", "ir-raster-*")
	if err != nil {
		return nil, err
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			n.logger.Warn("normalize.tmp_cleanup_failed", "dir", tmpDir, "error", rmErr)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	args := []string{"-png", "-r", fmt.Sprintf("%d", n.cfg.DPI), "-f", "1"}
	if !allPages {
		args = append(args, "-l", "1")
	}
	args = append(args, path, prefix)

	_, errb, err := n.runner.Run(ctx, n.cfg.Pdftoppm, args...)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, common.NewAppError(common.KindUnsupportedFormat,
				"pdftoppm not available; install poppler-utils", err)
		}
		return nil, common.NewAppError(common.KindUnsupportedFormat,
			fmt.Sprintf("pdf rasterization failed: %s", truncate(string(errb), 512)), err)
	}

	// pdftoppm writes prefix-1.png, prefix-2.png, ...
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		return nil, common.NewAppError(common.KindUnsupportedFormat,
			"pdftoppm produced no images", nil)
	}

	units := make([]ContentUnit, 0, len(matches))
	for i, m := range matches {
		b, err := os.ReadFile(m)
		if err != nil {
			return nil, err
		}
		mime := "image/png"
		if len(b) > n.cfg.MaxRawBytes {
			n.logger.Info("normalize.raster.compressing", "page", i, "bytes", len(b))
			cb, cm, err := n.recompress(b, n.cfg.MaxRawBytes)
			if err != nil {
				return nil, err
			}
			b, mime = cb, cm
		}
		units = append(units, ContentUnit{Kind: UnitImage, Page: i, Bytes: b, MimeType: mime})
	}
	return units, nil
}

package normalize

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"

	// Decoders for the formats we accept; registration only.
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/joseph-ayodele/invoice-renamer/constants"
	"github.com/joseph-ayodele/invoice-renamer/internal/common"
)

// recompress re-encodes an oversized image as JPEG, walking the quality ladder
// first and then the downscale ladder. Fails with CONTENT_TOO_LARGE when even
// the smallest rendition stays over the limit.
func (n *Normalizer) recompress(data []byte, maxBytes int) ([]byte, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", common.NewAppError(common.KindContentTooLarge,
			fmt.Sprintf("image exceeds %d bytes and cannot be decoded for recompression", maxBytes), err)
	}

	for _, q := range constants.JPEGQualityLadder {
		out, err := encodeJPEG(img, q)
		if err != nil {
			return nil, "", err
		}
		if len(out) <= maxBytes {
			n.logger.Info("normalize.image.recompressed",
				"source_format", format, "quality", q, "bytes", len(out))
			return out, "image/jpeg", nil
		}
	}

	for _, scale := range constants.ScaleLadder {
		scaled := downscale(img, scale)
		out, err := encodeJPEG(scaled, 70)
		if err != nil {
			return nil, "", err
		}
		if len(out) <= maxBytes {
			n.logger.Info("normalize.image.downscaled",
				"source_format", format, "scale", scale, "bytes", len(out))
			return out, "image/jpeg", nil
		}
	}

	return nil, "", common.NewAppError(common.KindContentTooLarge,
		fmt.Sprintf("image still exceeds %d bytes after recompression", maxBytes), nil)
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("jpeg encode: %w", err)
	}
	return buf.Bytes(), nil
}

func downscale(img image.Image, scale float64) image.Image {
	b := img.Bounds()
	w := int(float64(b.Dx()) * scale)
	h := int(float64(b.Dy()) * scale)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

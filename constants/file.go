package constants

import "strings"

// Formats holds the source formats the pipeline understands.
const (
	PDF   = "PDF"
	IMAGE = "IMAGE"
	TEXT  = "TEXT"
)

// AllowedExtensions holds the default allowed file extensions for renaming.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"gif":  {},
	"bmp":  {},
	"webp": {},
	"tiff": {},
	"tif":  {},
	"txt":  {},
	"text": {},
	"md":   {},
}

var imageExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"gif":  {},
	"bmp":  {},
	"webp": {},
	"tiff": {},
	"tif":  {},
}

var textExtensions = map[string]struct{}{
	"txt":  {},
	"text": {},
	"md":   {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps a (raw or normalized) extension to a source format.
// Returns "" for extensions the pipeline does not handle.
func MapExtToFormat(ext string) string {
	e := NormalizeExt(ext)
	switch {
	case e == "pdf":
		return PDF
	case isImageExt(e):
		return IMAGE
	case isTextExt(e):
		return TEXT
	default:
		return ""
	}
}

func isImageExt(e string) bool {
	_, ok := imageExtensions[e]
	return ok
}

func isTextExt(e string) bool {
	_, ok := textExtensions[e]
	return ok
}

// MimeTypeForExt returns the MIME type used when submitting image payloads.
func MimeTypeForExt(ext string) string {
	switch NormalizeExt(ext) {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "bmp":
		return "image/bmp"
	case "webp":
		return "image/webp"
	case "tiff", "tif":
		return "image/tiff"
	default:
		return "application/octet-stream"
	}
}

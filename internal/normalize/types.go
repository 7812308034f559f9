package normalize

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/invoice-renamer/constants"
	"github.com/joseph-ayodele/invoice-renamer/internal/common"
)

// InputDocument is an immutable reference to a source file. Constructed once
// per CLI invocation and never mutated.
type InputDocument struct {
	Path string
	Kind string // constants.PDF | constants.IMAGE | constants.TEXT
	Ext  string // normalized, without dot
	Size int64
}

// NewInputDocument stats the file and detects its kind from the extension.
func NewInputDocument(path string) (InputDocument, error) {
	st, err := os.Stat(path)
	if err != nil {
		return InputDocument{}, common.NewAppError(common.KindPermission,
			fmt.Sprintf("cannot stat %q", path), err)
	}
	if st.IsDir() {
		return InputDocument{}, common.NewAppError(common.KindUnsupportedFormat,
			fmt.Sprintf("%q is a directory", path), nil)
	}

	ext := constants.NormalizeExt(filepath.Ext(path))
	kind := constants.MapExtToFormat(ext)
	if kind == "" {
		return InputDocument{}, common.NewAppError(common.KindUnsupportedFormat,
			fmt.Sprintf("unsupported or missing extension %q", ext), nil)
	}

	return InputDocument{Path: path, Kind: kind, Ext: ext, Size: st.Size()}, nil
}

// UnitKind discriminates normalized payloads.
type UnitKind string

const (
	UnitText  UnitKind = "text"
	UnitImage UnitKind = "image-bytes"
)

// ContentUnit is one normalized, service-ready payload derived from part or
// all of a source document. Page is 0-based; text documents and standalone
// images always use page 0.
type ContentUnit struct {
	Kind     UnitKind
	Page     int
	Text     string
	Bytes    []byte
	MimeType string
}

func (u ContentUnit) SizeBytes() int {
	if u.Kind == UnitText {
		return len(u.Text)
	}
	return len(u.Bytes)
}

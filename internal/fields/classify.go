package fields

import (
	"strings"

	"github.com/joseph-ayodele/invoice-renamer/constants"
)

// ClassifyDocumentType scans text for type markers in fixed priority order
// (statement > invoice > receipt > confirmation > notice > letter > report).
// Ties resolve to the earlier-checked type; nothing matching means Other.
func ClassifyDocumentType(text string) constants.DocumentType {
	lower := strings.ToLower(text)
	for _, t := range constants.ClassificationOrder {
		for _, kw := range constants.ClassificationKeywords[t] {
			if strings.Contains(lower, kw) {
				return t
			}
		}
	}
	return constants.DocOther
}

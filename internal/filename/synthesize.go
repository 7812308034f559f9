package filename

import (
	"strings"

	"github.com/joseph-ayodele/invoice-renamer/constants"
	"github.com/joseph-ayodele/invoice-renamer/internal/fields"
)

// Synthesize renders one filename for a validated record:
//
//	{BusinessName} [{AccountType}] {DocumentType} [{Last4}] [- {PatientOrAnimal}] [{InvoiceNumber}] {YYYYMMDD}.{ext}
//
// Segment order is fixed; optional segments whose source field is empty are
// omitted entirely, so no double spaces or empty brackets ever appear. Pure
// function: the same record and extension always produce the same string.
// The invoice-number segment is suppressed when account info is present —
// statements carry account numbers, not invoice numbers.
func Synthesize(rec fields.DocumentRecord, ext string) string {
	parts := []string{CleanBusinessName(rec.BusinessName)}

	if rec.AccountType != "" {
		parts = append(parts, CleanSegment(string(rec.AccountType)))
	}
	parts = append(parts, CleanSegment(string(rec.DocumentType)))
	if rec.AccountLast4 != "" {
		parts = append(parts, rec.AccountLast4)
	}
	if p := CleanSegment(rec.PatientOrAnimalName); p != "" {
		parts = append(parts, "- "+p)
	}
	if rec.InvoiceNumber != "" && !rec.HasAccountInfo() {
		parts = append(parts, rec.InvoiceNumber)
	}
	parts = append(parts, rec.DocumentDate.Format("20060102"))

	return strings.Join(compact(parts), " ") + "." + constants.NormalizeExt(ext)
}

// compact drops segments that cleaned down to nothing.
func compact(parts []string) []string {
	out := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

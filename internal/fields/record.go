package fields

import (
	"time"

	"github.com/joseph-ayodele/invoice-renamer/constants"
)

// DocumentRecord is the validated, typed outcome of extraction. Invariant:
// AccountLast4 and InvoiceNumber, once populated, are never longer than 4
// characters, regardless of what the analysis service returned.
type DocumentRecord struct {
	BusinessName        string // never empty; "Unknown" when the service had nothing usable
	DocumentType        constants.DocumentType
	AccountType         constants.AccountType // "" when absent
	AccountLast4        string
	PatientOrAnimalName string
	InvoiceNumber       string
	DocumentDate        time.Time
}

// HasAccountInfo reports whether any account detail was extracted. Statements
// with account info suppress the invoice-number filename segment.
func (r DocumentRecord) HasAccountInfo() bool {
	return r.AccountType != "" || r.AccountLast4 != ""
}

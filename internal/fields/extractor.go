package fields

import (
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/invoice-renamer/constants"
	"github.com/joseph-ayodele/invoice-renamer/internal/common"
	"github.com/joseph-ayodele/invoice-renamer/internal/llm"
)

// Extractor turns an untrusted AnalysisResult into a validated DocumentRecord.
type Extractor struct {
	logger *slog.Logger
}

func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Extract maps known keys from a structured result, or runs the deterministic
// fallback parser over unstructured text. Fails fast with a specific kind
// rather than producing a partially-valid record:
//   - MISSING_REQUIRED_FIELD when neither a business name nor a date is usable
//   - DATE_EXTRACTION when a business name exists but no parsable date does
func (e *Extractor) Extract(res llm.AnalysisResult, reqID string) (DocumentRecord, error) {
	var f llm.DocumentFields
	if res.Structured() {
		parsed, err := res.Fields()
		if err != nil {
			// sanitized JSON failing to decode means a bug upstream, but the
			// fallback parser still gives the document a chance
			e.logger.Error("fields.decode_failed", "req_id", reqID, "error", err)
			f = fallbackFields(res.Text)
		} else {
			f = parsed
		}
	} else {
		e.logger.Info("fields.fallback_parse", "req_id", reqID, "reply_len", len(res.Text))
		f = fallbackFields(res.Text)
	}

	name := strings.TrimSpace(f.BusinessName)
	date, dateErr := ParseDocumentDate(f.DocumentDate)

	if name == "" && dateErr != nil {
		return DocumentRecord{}, common.NewAppError(common.KindMissingRequiredField,
			"no usable business name and no usable date in analysis result", dateErr)
	}
	if dateErr != nil {
		return DocumentRecord{}, dateErr
	}
	if name == "" {
		name = "Unknown"
	}

	docType, known := constants.CanonicalizeDocumentType(f.DocumentType)
	if !known && res.Structured() {
		e.logger.Warn("fields.unknown_document_type", "req_id", reqID, "value", f.DocumentType)
	}

	rec := DocumentRecord{
		BusinessName:        name,
		DocumentType:        docType,
		PatientOrAnimalName: strings.TrimSpace(f.PatientAnimalName),
		DocumentDate:        date,
	}

	if at, ok := constants.CanonicalizeAccountType(f.AccountType); ok {
		rec.AccountType = at
	}

	// Last-4 truncation again at the typed boundary: the record must satisfy
	// the privacy invariant even if a caller bypassed sanitization.
	rec.AccountLast4 = llm.TruncateIdentifier(f.AccountLast4)
	rec.InvoiceNumber = llm.TruncateIdentifier(f.InvoiceNumber)

	e.logger.Info("fields.extract.ok",
		"req_id", reqID,
		"business", rec.BusinessName,
		"type", rec.DocumentType,
		"date", rec.DocumentDate.Format("2006-01-02"),
		"has_account", rec.HasAccountInfo(),
	)
	return rec, nil
}

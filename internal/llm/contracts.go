package llm

import (
	"context"
	"encoding/json"

	"github.com/joseph-ayodele/invoice-renamer/internal/normalize"
)

// DocumentFields is the normalized shape we want from the analysis service.
// Wire keys follow the extraction prompt; every field is optional on the wire
// and validated downstream.
type DocumentFields struct {
	BusinessName      string `json:"business_name,omitempty"`
	DocumentType      string `json:"document_type,omitempty"`
	DocumentDate      string `json:"invoice_date,omitempty"` // YYYY-MM-DD preferred
	InvoiceNumber     string `json:"invoice_number,omitempty"`
	PatientAnimalName string `json:"patient_animal_name,omitempty"`
	AccountType       string `json:"account_type,omitempty"`
	AccountLast4      string `json:"account_last_4,omitempty"`
}

// AnalysisResult is the raw adapter response: either structured JSON pulled
// out of the reply, or unstructured text requiring the fallback parser.
// Treated as untrusted input either way.
type AnalysisResult struct {
	RawJSON []byte // sanitized JSON document, nil when no JSON was found
	Text    string // full reply text, kept for the fallback parser
}

// Structured reports whether the service gave us a parsable JSON object.
func (r AnalysisResult) Structured() bool {
	return len(r.RawJSON) > 0
}

// Fields decodes the structured payload. Only meaningful when Structured().
func (r AnalysisResult) Fields() (DocumentFields, error) {
	var f DocumentFields
	err := json.Unmarshal(r.RawJSON, &f)
	return f, err
}

// Analyzer is the analysis-service boundary the pipeline depends on. Exactly
// one AnalysisResult is produced per input document, regardless of how many
// content units were submitted.
type Analyzer interface {
	Analyze(ctx context.Context, units []normalize.ContentUnit, reqID string) (AnalysisResult, error)
}

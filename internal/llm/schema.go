package llm

import "github.com/joseph-ayodele/invoice-renamer/constants"

// BuildDocumentJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. We send it to the analysis service as the expected response
// shape and also use it locally to validate what comes back. No field is
// required at this layer: presence rules (business name / date) are enforced
// by the field extractor, which owns the error taxonomy for them.
func BuildDocumentJSONSchema() map[string]any {
	props := map[string]any{
		"business_name": map[string]any{"type": "string", "minLength": 1},
		"document_type": map[string]any{
			"type": "string",
			"enum": constants.DocumentTypesAsStrings(),
		},
		"invoice_date":        map[string]any{"type": "string", "minLength": 4},
		"invoice_number":      map[string]any{"type": "string"},
		"patient_animal_name": map[string]any{"type": "string"},
		"account_type": map[string]any{
			"type": "string",
			"enum": constants.AccountTypesAsStrings(),
		},
		"account_last_4": map[string]any{"type": "string", "pattern": `^\d{1,4}$`},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
	}
}

package llm

import "strings"

// BuildExtractionPrompt composes the field-extraction instructions sent with
// every document. The response contract (exact JSON keys, null for unknowns)
// matches BuildDocumentJSONSchema after sanitization.
func BuildExtractionPrompt() string {
	parts := []string{
		"Extract the following information from this document:",
		"1. Business name. Use the most recognizable ISSUING company or bank name:",
		"   - Credit card statements: the issuing bank (e.g. \"Chase\", \"American Express\"), not the card product name.",
		"   - Store credit cards: the store name rather than the backing bank.",
		"   - Subsidiaries or billing entities: the parent company if more recognizable.",
		"   - Utility bills: the main utility company. Subscriptions: the service name.",
		"   Prioritize the brand a customer would recognize over legal billing entities.",
		"2. Document type (one word): Invoice, Statement, Receipt, Confirmation, Notice, Letter, Report, or Other.",
		"   If the document prominently says \"statement\", classify it as Statement, not Report.",
		"3. Document date in YYYY-MM-DD format.",
		"4. Invoice number, if clearly labeled (\"Invoice #\", \"Bill #\", \"Reference #\"); otherwise null.",
		"5. Patient or animal name, only for medical or veterinary documents; look for",
		"   \"Patient:\", \"Animal:\", \"Pet Name:\" fields or columns. Otherwise null.",
		"6. Account details for bank/credit-card statements, notices and letters:",
		"   - account_type: the specific category (Checking, Credit Card, Investment). Null if only a generic \"Account\" appears.",
		"   - account_last_4: the last 4 digits of the account or card number (patterns like \"xxxx1234\" or \"ending in 1234\").",
		"",
		"Return the response in this exact JSON format:",
		`{`,
		`  "business_name": "Company Name Here",`,
		`  "document_type": "Type Here",`,
		`  "invoice_date": "YYYY-MM-DD",`,
		`  "invoice_number": "Number Here or null",`,
		`  "patient_animal_name": "Name Here or null",`,
		`  "account_type": "Account Type Here or null",`,
		`  "account_last_4": "Last 4 digits or null"`,
		`}`,
		"",
		"If you cannot find any piece of information, use null for that field.",
	}
	return strings.Join(parts, "\n")
}

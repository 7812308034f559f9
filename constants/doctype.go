package constants

import "strings"

// DocumentType is the canonical classification of a processed document.
type DocumentType string

const (
	DocInvoice      DocumentType = "Invoice"
	DocStatement    DocumentType = "Statement"
	DocReceipt      DocumentType = "Receipt"
	DocConfirmation DocumentType = "Confirmation"
	DocNotice       DocumentType = "Notice"
	DocLetter       DocumentType = "Letter"
	DocReport       DocumentType = "Report"
	DocOther        DocumentType = "Other"
)

// ClassificationOrder is the priority in which keyword classification is
// attempted: an explicit statement marker beats an invoice marker, which beats
// receipt/confirmation markers, and so on. Ties resolve to the earlier type.
var ClassificationOrder = []DocumentType{
	DocStatement,
	DocInvoice,
	DocReceipt,
	DocConfirmation,
	DocNotice,
	DocLetter,
	DocReport,
}

// ClassificationKeywords maps each document type to the markers the fallback
// parser looks for in unstructured analysis output.
var ClassificationKeywords = map[DocumentType][]string{
	DocStatement:    {"statement", "account statement", "billing statement", "statement period"},
	DocInvoice:      {"invoice", "bill to", "amount due", "invoice no"},
	DocReceipt:      {"receipt", "paid", "payment received", "transaction record"},
	DocConfirmation: {"confirmation", "trade confirmation", "order confirmed", "we confirm"},
	DocNotice:       {"notice", "notification", "policy change", "important information about your account"},
	DocLetter:       {"dear ", "sincerely", "regards"},
	DocReport:       {"report", "annual summary", "quarterly summary"},
}

var allDocumentTypes = []DocumentType{
	DocInvoice, DocStatement, DocReceipt, DocConfirmation,
	DocNotice, DocLetter, DocReport, DocOther,
}

// DocumentTypesAsStrings returns the enum for schema construction.
func DocumentTypesAsStrings() []string {
	out := make([]string, len(allDocumentTypes))
	for i, t := range allDocumentTypes {
		out[i] = string(t)
	}
	return out
}

// CanonicalizeDocumentType maps free-form input onto the enum.
// Unknown or empty input falls back to DocOther.
func CanonicalizeDocumentType(input string) (DocumentType, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return DocOther, false
	}

	synonyms := map[string]DocumentType{
		"bill":               DocInvoice,
		"bank statement":     DocStatement,
		"account statement":  DocStatement,
		"trade confirmation": DocConfirmation,
		"order confirmation": DocConfirmation,
		"notification":       DocNotice,
		"correspondence":     DocLetter,
		"summary":            DocReport,
		"document":           DocOther,
	}
	if t, ok := synonyms[normalized]; ok {
		return t, true
	}

	for _, t := range allDocumentTypes {
		if normalized == strings.ToLower(string(t)) {
			return t, true
		}
	}
	return DocOther, false
}

// AccountType is the canonical account category for financial documents.
type AccountType string

const (
	AccountChecking   AccountType = "Checking"
	AccountCreditCard AccountType = "Credit Card"
	AccountInvestment AccountType = "Investment"
	AccountOther      AccountType = "Other"
)

var allAccountTypes = []AccountType{
	AccountChecking, AccountCreditCard, AccountInvestment, AccountOther,
}

// AccountTypesAsStrings returns the enum for schema construction.
func AccountTypesAsStrings() []string {
	out := make([]string, len(allAccountTypes))
	for i, t := range allAccountTypes {
		out[i] = string(t)
	}
	return out
}

// CanonicalizeAccountType maps free-form input onto the enum. The boolean is
// false when the input was empty or unrecognized.
func CanonicalizeAccountType(input string) (AccountType, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return "", false
	}

	synonyms := map[string]AccountType{
		"checking account": AccountChecking,
		"chequing":         AccountChecking,
		"credit-card":      AccountCreditCard,
		"creditcard":       AccountCreditCard,
		"credit":           AccountCreditCard,
		"visa":             AccountCreditCard,
		"mastercard":       AccountCreditCard,
		"brokerage":        AccountInvestment,
		"401k":             AccountInvestment,
		"ira":              AccountInvestment,
		"annuity":          AccountInvestment,
		"savings":          AccountOther,
		"money market":     AccountOther,
	}
	if t, ok := synonyms[normalized]; ok {
		return t, true
	}

	for _, t := range allAccountTypes {
		if normalized == strings.ToLower(string(t)) {
			return t, true
		}
	}
	return AccountOther, true
}

package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/invoice-renamer/constants"
)

var reNonDigit = regexp.MustCompile(`[^\d]`)

// NormalizeAndSanitizeJSON
// - Renames known synonyms (document_date -> invoice_date, etc.)
// - Drops null / empty / literal-"null" values
// - Truncates account_last_4 and invoice_number to their last 4 digits
//   (the privacy invariant holds no matter what the service returned)
// - Removes unknown keys (strict additionalProperties friendliness)
func NormalizeAndSanitizeJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	dropped := make([]string, 0, 8)
	renamed := func(from, to string) {
		if v, ok := m[from]; ok {
			// don't overwrite an existing value if already present
			if _, exists := m[to]; !exists {
				m[to] = v
			}
			delete(m, from)
			dropped = append(dropped, from+"->"+to)
		}
	}

	// 1) rename synonyms to our schema
	renamed("company_name", "business_name")
	renamed("merchant_name", "business_name")
	renamed("document_date", "invoice_date")
	renamed("statement_date", "invoice_date")
	renamed("date", "invoice_date")
	renamed("account_last4", "account_last_4")
	renamed("last_4", "account_last_4")
	renamed("last_four", "account_last_4")
	renamed("patient_name", "patient_animal_name")
	renamed("animal_name", "patient_animal_name")
	renamed("pet_name", "patient_animal_name")

	// 2) drop null / "" / "null" everywhere
	for k, v := range maps.Clone(m) {
		switch t := v.(type) {
		case nil:
			delete(m, k)
			dropped = append(dropped, k+"(null)")
		case string:
			s := strings.TrimSpace(t)
			if s == "" || strings.EqualFold(s, "null") {
				delete(m, k)
				dropped = append(dropped, k+"(empty)")
			} else {
				m[k] = s
			}
		case float64:
			// identifiers sometimes arrive as numbers; stringify
			m[k] = fmt.Sprintf("%.0f", t)
		default:
			delete(m, k)
			dropped = append(dropped, k+"(type)")
		}
	}

	// 3) last-4 truncation for identifiers
	if v, ok := m["account_last_4"].(string); ok {
		digits := reNonDigit.ReplaceAllString(v, "")
		switch {
		case len(digits) == 0:
			delete(m, "account_last_4")
			dropped = append(dropped, "account_last_4(no-digits)")
		case len(digits) > 4:
			m["account_last_4"] = digits[len(digits)-4:]
			dropped = append(dropped, "account_last_4(truncated)")
		default:
			m["account_last_4"] = digits
		}
	}
	if v, ok := m["invoice_number"].(string); ok {
		m["invoice_number"] = TruncateIdentifier(v)
		if m["invoice_number"] == "" {
			delete(m, "invoice_number")
			dropped = append(dropped, "invoice_number(empty)")
		}
	}

	// 4) canonicalize enum fields so "statement" or "credit-card" pass schema
	// validation the way their canonical spellings would
	if v, ok := m["document_type"].(string); ok {
		if t, known := constants.CanonicalizeDocumentType(v); known {
			m["document_type"] = string(t)
		} else {
			m["document_type"] = string(constants.DocOther)
			dropped = append(dropped, "document_type(unrecognized)")
		}
	}
	if v, ok := m["account_type"].(string); ok {
		if t, known := constants.CanonicalizeAccountType(v); known {
			m["account_type"] = string(t)
		} else {
			delete(m, "account_type")
			dropped = append(dropped, "account_type(unrecognized)")
		}
	}

	// 5) remove unknown keys
	allowed := map[string]struct{}{
		"business_name": {}, "document_type": {}, "invoice_date": {},
		"invoice_number": {}, "patient_animal_name": {},
		"account_type": {}, "account_last_4": {},
	}
	for k := range maps.Clone(m) {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("llm.sanitize", "dropped", dropped)
	}
	return out, dropped, nil
}

// TruncateIdentifier applies the last-4 rule to an account or invoice
// identifier: alphanumerics only, and never more than the final 4 characters
// when 4 or more remain.
func TruncateIdentifier(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if len(cleaned) > 4 {
		return cleaned[len(cleaned)-4:]
	}
	return cleaned
}

package fields

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/invoice-renamer/internal/llm"
)

// Pattern recognition for replies that ignored the JSON contract. Deliberately
// deterministic: same text in, same fields out.
var (
	reLast4Hint = regexp.MustCompile(`(?i)(?:ending\s+in|xx+|\*{2,})\s*[- ]?(\d{4})\b`)
	reAcctLine  = regexp.MustCompile(`(?i)account(?:\s+number)?[:#\s]+[\dXx*\- ]*(\d{4})\b`)
	reDateToken = regexp.MustCompile(`\b(?:\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}/\d{4}|(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?\s+\d{1,2},?\s+\d{4})\b`)
	reInvoiceNo = regexp.MustCompile(`(?i)invoice\s*(?:#|no\.?|number)?[:\s]+([A-Za-z0-9-]{2,})`)
)

// fallbackFields derives what it can from unstructured analysis text:
// date tokens, account-number shapes, keyword classification, and a business
// name heuristic (first short line that looks like a name).
func fallbackFields(text string) llm.DocumentFields {
	var f llm.DocumentFields

	f.DocumentType = string(ClassifyDocumentType(text))
	f.BusinessName = firstNameLike(text)

	if m := reDateToken.FindString(text); m != "" {
		f.DocumentDate = m
	}
	if m := reLast4Hint.FindStringSubmatch(text); m != nil {
		f.AccountLast4 = m[1]
	} else if m := reAcctLine.FindStringSubmatch(text); m != nil {
		f.AccountLast4 = m[1]
	}
	if m := reInvoiceNo.FindStringSubmatch(text); m != nil {
		f.InvoiceNumber = m[1]
	}

	return f
}

// firstNameLike returns the first line that plausibly names a business:
// short, starts with a letter, not a sentence fragment of the reply.
func firstNameLike(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || len(line) > 60 {
			continue
		}
		if !startsWithLetter(line) {
			continue
		}
		// skip obvious prose ("The document is a ...", "I cannot ...")
		lower := strings.ToLower(line)
		if strings.HasPrefix(lower, "the ") || strings.HasPrefix(lower, "this ") ||
			strings.HasPrefix(lower, "i ") || strings.HasPrefix(lower, "here ") {
			continue
		}
		return strings.TrimRight(line, ".:,;")
	}
	return ""
}

func startsWithLetter(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

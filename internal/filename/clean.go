package filename

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/joseph-ayodele/invoice-renamer/constants"
)

var (
	// characters that are illegal or hostile in filenames across filesystems
	reIllegal    = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f\[\]]`)
	reWhitespace = regexp.MustCompile(`\s+`)

	titleCaser = cases.Title(language.AmericanEnglish)

	// words dropped from the tail of a truncated business name
	trailingFiller = map[string]struct{}{
		"and": {}, "or": {}, "of": {}, "the": {}, "a": {}, "an": {}, "for": {},
		"to": {}, "in": {}, "at": {}, "by": {}, "with": {}, "company": {},
		"inc": {}, "llc": {}, "ltd": {}, "corp": {}, "corporation": {},
	}
)

// CleanSegment makes text safe for filename use: strips illegal characters,
// collapses whitespace, and title-cases shouty all-caps names (short names
// are left alone — they are usually acronyms like USAA or IBM).
func CleanSegment(text string) string {
	cleaned := reIllegal.ReplaceAllString(text, "")
	cleaned = strings.TrimSpace(reWhitespace.ReplaceAllString(cleaned, " "))
	if cleaned == "" {
		return ""
	}

	if mostlyUppercase(cleaned) && len(cleaned) >= 5 {
		cleaned = titleCaser.String(strings.ToLower(cleaned))
	}

	if len(cleaned) > constants.MaxSegmentChars {
		cleaned = strings.TrimSpace(cleaned[:constants.MaxSegmentChars])
	}
	return cleaned
}

// CleanBusinessName additionally caps the name at MaxBusinessNameWords words
// and drops trailing filler ("Acme Products Of" -> "Acme Products").
func CleanBusinessName(text string) string {
	cleaned := CleanSegment(text)
	if cleaned == "" {
		return "Unknown"
	}

	words := strings.Fields(cleaned)
	if len(words) > constants.MaxBusinessNameWords {
		words = words[:constants.MaxBusinessNameWords]
	}
	for len(words) > 0 {
		if _, filler := trailingFiller[strings.ToLower(words[len(words)-1])]; !filler {
			break
		}
		words = words[:len(words)-1]
	}
	if len(words) == 0 {
		return "Unknown"
	}
	return strings.Join(words, " ")
}

// mostlyUppercase reports whether >70% of the letters are capitals.
func mostlyUppercase(s string) bool {
	var letters, upper int
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	return letters > 0 && float64(upper) > float64(letters)*0.7
}

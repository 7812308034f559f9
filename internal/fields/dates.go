package fields

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/joseph-ayodele/invoice-renamer/constants"
	"github.com/joseph-ayodele/invoice-renamer/internal/common"
)

// Unambiguous layouts tried in order. Numeric day/month layouts are handled
// separately because "01/02/2024" can mean two different days.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"2 January 2006",
	"2 Jan 2006",
	"20060102",
}

var (
	reNumericDate = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{4})$`)
	reISOish      = regexp.MustCompile(`(\d{4})-?(\d{2})-?(\d{2})`)
)

// ParseDocumentDate normalizes a recognized date representation to time.Time.
// Dates it cannot disambiguate (e.g. "01/02/2024", where both month-first and
// day-first readings are valid calendar dates) are rejected with a
// DATE_EXTRACTION error rather than guessed. Years outside the plausibility
// window are treated as extraction noise.
func ParseDocumentDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, common.NewAppError(common.KindDateExtraction, "no date value", nil)
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return validateWindow(t, s)
		}
	}

	if m := reNumericDate.FindStringSubmatch(s); m != nil {
		return parseNumericDate(m[1], m[2], m[3], s)
	}

	// last resort: a YYYYMMDD / YYYY-MM-DD shape buried in a longer string
	if m := reISOish.FindStringSubmatch(s); m != nil {
		if t, err := time.Parse("20060102", m[1]+m[2]+m[3]); err == nil {
			return validateWindow(t, s)
		}
	}

	return time.Time{}, common.NewAppError(common.KindDateExtraction,
		fmt.Sprintf("unrecognized date format %q", s), nil)
}

// parseNumericDate resolves a/b/yyyy. When only one reading of (a,b) is a
// valid calendar date the value is unambiguous; when both are valid and
// differ, we refuse to guess.
func parseNumericDate(a, b, year, orig string) (time.Time, error) {
	monthFirst, errMF := time.Parse("1/2/2006", fmt.Sprintf("%s/%s/%s", a, b, year))
	dayFirst, errDF := time.Parse("2/1/2006", fmt.Sprintf("%s/%s/%s", a, b, year))

	switch {
	case errMF == nil && errDF != nil:
		return validateWindow(monthFirst, orig)
	case errMF != nil && errDF == nil:
		return validateWindow(dayFirst, orig)
	case errMF == nil && errDF == nil:
		if monthFirst.Equal(dayFirst) { // e.g. 5/5/2024
			return validateWindow(monthFirst, orig)
		}
		return time.Time{}, common.NewAppError(common.KindDateExtraction,
			fmt.Sprintf("ambiguous date %q: month-first and day-first readings differ", orig), nil)
	default:
		return time.Time{}, common.NewAppError(common.KindDateExtraction,
			fmt.Sprintf("invalid date %q", orig), nil)
	}
}

func validateWindow(t time.Time, orig string) (time.Time, error) {
	maxYear := time.Now().Year() + constants.MaxFutureYears
	if t.Year() < constants.MinDocumentYear || t.Year() > maxYear {
		return time.Time{}, common.NewAppError(common.KindDateExtraction,
			fmt.Sprintf("date %q outside plausible window %d..%d", orig, constants.MinDocumentYear, maxYear), nil)
	}
	return t, nil
}

package llm

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"
)

// The service usually complies with the JSON contract but sometimes wraps the
// object in prose or a markdown fence. Look for the object that carries our
// anchor key before falling back to whole-reply decoding.
var reJSONObject = regexp.MustCompile(`(?s)\{[^{}]*"business_name".*?\}`)

// ParseAnalysisText turns a raw service reply into an AnalysisResult. The
// structured payload, when found, is sanitized and schema-validated here so
// downstream stages only ever see conforming JSON; replies with no usable
// JSON come back as unstructured text for the fallback parser.
func ParseAnalysisText(text string, logger *slog.Logger) AnalysisResult {
	if logger == nil {
		logger = slog.Default()
	}

	candidate := extractJSONCandidate(text)
	if candidate == "" {
		logger.Warn("llm.parse.no_json", "reply_len", len(text))
		return AnalysisResult{Text: text}
	}

	cleaned, _, err := NormalizeAndSanitizeJSON([]byte(candidate), logger)
	if err != nil {
		logger.Warn("llm.parse.sanitize_failed", "error", err)
		return AnalysisResult{Text: text}
	}
	if err := ValidateJSONAgainstSchema(BuildDocumentJSONSchema(), cleaned); err != nil {
		logger.Warn("llm.parse.schema_validation_failed", "error", err)
		return AnalysisResult{Text: text}
	}
	return AnalysisResult{RawJSON: cleaned, Text: text}
}

func extractJSONCandidate(text string) string {
	trimmed := strings.TrimSpace(stripFences(text))
	if json.Valid([]byte(trimmed)) && strings.HasPrefix(trimmed, "{") {
		return trimmed
	}
	if m := reJSONObject.FindString(text); m != "" && json.Valid([]byte(m)) {
		return m
	}
	return ""
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return s
}

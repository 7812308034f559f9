package common

import (
	"errors"
	"fmt"
)

// Kind categorizes pipeline failures. Every stage fails with exactly one kind
// so callers (and the CLI exit path) can name what went wrong.
type Kind string

const (
	KindUnsupportedFormat    Kind = "UNSUPPORTED_FORMAT"
	KindContentTooLarge      Kind = "CONTENT_TOO_LARGE"
	KindAnalysisService      Kind = "ANALYSIS_SERVICE"
	KindAuthentication       Kind = "AUTHENTICATION"
	KindDateExtraction       Kind = "DATE_EXTRACTION"
	KindMissingRequiredField Kind = "MISSING_REQUIRED_FIELD"
	KindDestination          Kind = "DESTINATION"
	KindPermission           Kind = "PERMISSION"
	KindCollisionExhausted   Kind = "COLLISION_EXHAUSTED"
)

// AppError carries a failure kind plus a human-readable message and cause.
type AppError struct {
	Kind    Kind
	Message string
	Cause   error

	// Status holds the HTTP-like status for ANALYSIS_SERVICE errors; zero otherwise.
	Status int
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError builds an AppError with the given kind.
func NewAppError(kind Kind, message string, cause error) *AppError {
	return &AppError{Kind: kind, Message: message, Cause: cause}
}

// NewServiceError builds an ANALYSIS_SERVICE error carrying the upstream status.
func NewServiceError(status int, message string, cause error) *AppError {
	return &AppError{Kind: KindAnalysisService, Message: message, Cause: cause, Status: status}
}

// KindOf extracts the failure kind from an error chain. Unclassified errors
// report an empty kind.
func KindOf(err error) Kind {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// IsKind reports whether err (or anything it wraps) carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

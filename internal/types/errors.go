package types

import "fmt"

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

// Complete error code constants.
// All components MUST use these constants instead of hardcoded strings.
const (
	// Validation — bad input, rejected before any network call
	ErrCodeValidationFileType      ErrorCode = "validation_unsupported_file_type"
	ErrCodeValidationMissingColumn ErrorCode = "validation_missing_column"
	ErrCodeValidationBadRow        ErrorCode = "validation_malformed_row"
	ErrCodeValidationBadGeometry   ErrorCode = "validation_invalid_geometry"
	ErrCodeValidationMissingField  ErrorCode = "validation_missing_required_field"

	// File access
	ErrCodeFileUnreadable ErrorCode = "file_unreadable"
	ErrCodeFileNoCSV      ErrorCode = "file_no_csv_found"

	// Upstream stores
	ErrCodeUpstreamGeostreams  ErrorCode = "upstream_geostreams_error"
	ErrCodeUpstreamTraits      ErrorCode = "upstream_traits_error"
	ErrCodeUpstreamSiteLookup  ErrorCode = "upstream_site_lookup_error"
	ErrCodeUpstreamUnavailable ErrorCode = "upstream_unavailable"
	ErrCodeUpstreamRateLimited ErrorCode = "upstream_rate_limited"

	// Internal
	ErrCodeInternalUnexpected ErrorCode = "internal_unexpected_error"
)

// AppError is the standard application error type used throughout the loader.
// All component errors should be expressed as AppError to enable consistent
// error classification, logging, and error chain support.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails returns a copy of the error with the provided details merged in.
// This is useful for adding context without mutating the original error.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	merged := make(map[string]any, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     e.Err,
		Details: merged,
	}
}

// NewAppError constructs an AppError with the given code, message, and
// optional underlying error.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

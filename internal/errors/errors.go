package errors

import (
	"fmt"
	"net/http"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeStorage    ErrorType = "storage"
	ErrorTypeInternal   ErrorType = "internal"

	// Extraction pipeline taxonomy. QualityBelowThreshold is advisory and
	// never surfaced as a request failure; CacheCorruption is handled
	// internally as a cache miss.
	ErrorTypeQualityBelowThreshold  ErrorType = "quality_below_threshold"
	ErrorTypeRecognitionUnavailable ErrorType = "recognition_unavailable"
	ErrorTypeRecognitionTimeout     ErrorType = "recognition_timeout"
	ErrorTypeExtractionFailed       ErrorType = "extraction_failed"
	ErrorTypeCacheCorruption        ErrorType = "cache_corruption"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"status_code"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a new validation error
func NewValidationError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Cause:      cause,
	}
}

// NewStorageError creates an error for document-store failures
func NewStorageError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeStorage,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

// NewRecognitionUnavailableError indicates the recognition engine could not
// be reached or initialized for any strategy.
func NewRecognitionUnavailableError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeRecognitionUnavailable,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

// NewRecognitionTimeoutError indicates every strategy exceeded its deadline
func NewRecognitionTimeoutError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeRecognitionTimeout,
		Message:    message,
		StatusCode: http.StatusGatewayTimeout,
		Cause:      cause,
	}
}

// NewExtractionFailedError indicates the orchestrator exhausted all
// strategies without a usable result.
func NewExtractionFailedError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeExtractionFailed,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
		Cause:      cause,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// IsType checks if the error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Type == errorType
	}
	return false
}

// GetStatusCode extracts the HTTP status code from an error
func GetStatusCode(err error) int {
	if appErr, ok := err.(*AppError); ok {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeProvider      = "PROVIDER_ERROR"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrInvalidProjectID     = NewDomainError(ErrCodeValidation, "project id must be a 24-character hex string")
	ErrEmptyBatch           = NewDomainError(ErrCodeValidation, "batch must contain at least one item")
	ErrBatchTooLarge        = NewDomainError(ErrCodeValidation, "batch exceeds the 50 item limit")
	ErrInvalidThreshold     = NewDomainError(ErrCodeValidation, "threshold must be between 0 and 1")
	ErrInvalidLimit         = NewDomainError(ErrCodeValidation, "limit must be between 1 and 50")
	ErrInvalidContextLimit  = NewDomainError(ErrCodeValidation, "limit must be between 1 and 100")
	ErrEmptyContent         = NewDomainError(ErrCodeValidation, "content is required")
	ErrEmptyEmbedding       = NewDomainError(ErrCodeValidation, "query embedding is empty")
	ErrTooManyCoverageItems = NewDomainError(ErrCodeValidation, "coverage analysis accepts at most 100 items")
	ErrNoCoverageItems      = NewDomainError(ErrCodeValidation, "coverage analysis requires at least one item")
)

// Not found errors
var (
	ErrNodeNotFound    = NewDomainError(ErrCodeNotFound, "node not found")
	ErrProfileNotFound = NewDomainError(ErrCodeNotFound, "profile not found")
)

// Authorization errors
var (
	ErrInvalidAPIKey = NewDomainError(ErrCodeUnauthorized, "invalid api key")
)

// NewProviderError wraps a provider failure after the retry budget is exhausted.
func NewProviderError(message string, err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeProvider, message, err)
}

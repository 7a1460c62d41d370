package errors

import (
	"fmt"
	"strings"
)

// DomainErrorType categorizes a domain-level failure
type DomainErrorType string

const (
	// DomainValidationError indicates input validation failure
	DomainValidationError DomainErrorType = "VALIDATION_ERROR"

	// DomainBusinessRuleError indicates a resolution rule violation
	DomainBusinessRuleError DomainErrorType = "BUSINESS_RULE_ERROR"

	// DomainNotFoundError indicates a resource was not found
	DomainNotFoundError DomainErrorType = "NOT_FOUND"

	// DomainConflictError indicates a conflict with existing state
	DomainConflictError DomainErrorType = "CONFLICT"

	// DomainFetchError indicates a platform fetch failure
	DomainFetchError DomainErrorType = "FETCH_ERROR"

	// DomainInfrastructureError indicates an infrastructure-level failure
	DomainInfrastructureError DomainErrorType = "INFRASTRUCTURE_ERROR"
)

// DomainError carries a categorized domain failure with context details.
// Domain errors never cross the API boundary raw; the HTTP layer maps them
// through their status code.
type DomainError struct {
	Type       DomainErrorType        `json:"type"`
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	Retryable  bool                   `json:"retryable"`
	StatusCode int                    `json:"status_code"`
}

// NewDomainError creates a new domain error
func NewDomainError(errorType DomainErrorType, code string, message string) *DomainError {
	return &DomainError{
		Type:       errorType,
		Code:       code,
		Message:    message,
		Details:    make(map[string]interface{}),
		StatusCode: domainErrorTypeToStatusCode(errorType),
	}
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Type, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
}

// WithCause attaches the underlying error
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// WithDetail adds a single context detail
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	e.Details[key] = value
	return e
}

// WithRetryable marks whether retrying the operation can succeed
func (e *DomainError) WithRetryable(retryable bool) *DomainError {
	e.Retryable = retryable
	return e
}

// Is matches on type and code so errors.Is works with the predefined set
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// Unwrap returns the underlying cause
func (e *DomainError) Unwrap() error {
	return e.Cause
}

func domainErrorTypeToStatusCode(errorType DomainErrorType) int {
	switch errorType {
	case DomainValidationError:
		return 400
	case DomainBusinessRuleError:
		return 422
	case DomainNotFoundError:
		return 404
	case DomainConflictError:
		return 409
	case DomainFetchError:
		return 502
	default:
		return 500
	}
}

// Predefined domain errors for the resolution core

var (
	ErrGraphNotFound = NewDomainError(
		DomainNotFoundError,
		"GRAPH_NOT_FOUND",
		"The requested resolution graph does not exist",
	)

	ErrProfileNotFound = NewDomainError(
		DomainNotFoundError,
		"PROFILE_NOT_FOUND",
		"No synthesized profile exists for this graph",
	)

	ErrUnknownPlatform = NewDomainError(
		DomainValidationError,
		"UNKNOWN_PLATFORM",
		"Platform is not in the supported set",
	)

	ErrDuplicateNode = NewDomainError(
		DomainConflictError,
		"DUPLICATE_NODE",
		"A node for this platform and identifier is already attached",
	)

	ErrNodeLimitExceeded = NewDomainError(
		DomainBusinessRuleError,
		"NODE_LIMIT_EXCEEDED",
		"Maximum number of platform nodes per graph exceeded",
	).WithDetail("limit", 20)

	ErrPersonNameRequired = NewDomainError(
		DomainValidationError,
		"PERSON_NAME_REQUIRED",
		"A person name is required to start a resolution",
	)

	ErrFetchFailed = NewDomainError(
		DomainFetchError,
		"PLATFORM_FETCH_FAILED",
		"Platform fetch failed; node degraded and excluded from scoring",
	).WithRetryable(true)

	ErrResolutionInProgress = NewDomainError(
		DomainConflictError,
		"RESOLUTION_IN_PROGRESS",
		"A resolution for this person is already in progress",
	)

	ErrConcurrentModification = NewDomainError(
		DomainConflictError,
		"CONCURRENT_MODIFICATION",
		"The graph was modified by another process",
	).WithRetryable(true)

	ErrEventPublishFailed = NewDomainError(
		DomainInfrastructureError,
		"EVENT_PUBLISH_FAILED",
		"Failed to publish resolution event",
	).WithRetryable(true)
)

// ValidationErrors collects field-level validation failures so a caller
// sees every bad field at once instead of the first.
type ValidationErrors struct {
	Errors []*DomainError `json:"errors"`
}

// NewValidationErrors creates an empty collection
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{Errors: make([]*DomainError, 0)}
}

// Add records a failure for one field
func (v *ValidationErrors) Add(field string, message string) {
	err := NewDomainError(DomainValidationError, "FIELD_VALIDATION_ERROR", message).
		WithDetail("field", field)
	v.Errors = append(v.Errors, err)
}

// AddError records a pre-built domain error
func (v *ValidationErrors) AddError(err *DomainError) {
	v.Errors = append(v.Errors, err)
}

// HasErrors reports whether anything was recorded
func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

func (v *ValidationErrors) Error() string {
	if len(v.Errors) == 0 {
		return ""
	}
	messages := make([]string, len(v.Errors))
	for i, err := range v.Errors {
		messages[i] = err.Message
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// ToMap groups messages by field for JSON responses
func (v *ValidationErrors) ToMap() map[string][]string {
	result := make(map[string][]string)
	for _, err := range v.Errors {
		field, ok := err.Details["field"].(string)
		if !ok {
			field = "general"
		}
		result[field] = append(result[field], err.Message)
	}
	return result
}

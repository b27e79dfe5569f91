// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Degraded-data codes. The engine reports these as issues, never as failures.
const (
	ErrCodeMissingInput         ErrorCode = "MISSING_INPUT"
	ErrCodeMalformedInput       ErrorCode = "MALFORMED_INPUT"
	ErrCodeUnresolvableConflict ErrorCode = "UNRESOLVABLE_CONFLICT"
)

// Job-level codes thrown to the workflow engine.
const (
	ErrCodeParseError         ErrorCode = "PARSE_ERROR"
	ErrCodeInputSchemaInvalid ErrorCode = "INPUT_SCHEMA_INVALID"
	ErrCodeEvaluationFailed   ErrorCode = "EVALUATION_FAILED"

	ErrCodeDatabaseConnectionFailed  ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeRecommendationStoreFailed ErrorCode = "RECOMMENDATION_STORE_FAILED"
	ErrCodeCacheUnavailable          ErrorCode = "CACHE_UNAVAILABLE"

	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout         ErrorCode = "TIMEOUT_ERROR"
	ErrCodeNotFound        ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeBusinessRule    ErrorCode = "BUSINESS_RULE_VIOLATION"
	ErrCodeAuthentication  ErrorCode = "AUTHENTICATION_ERROR"
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewParseError is returned when job variables cannot be decoded.
func NewParseError(err error) *StandardError {
	return newError(ErrCodeParseError, "Failed to parse job variables", err.Error(), false)
}

// NewInputSchemaInvalidError wraps schema validation messages.
func NewInputSchemaInvalidError(messages []string) *StandardError {
	return newError(ErrCodeInputSchemaInvalid, "Job variables do not match the activity input schema",
		strings.Join(messages, "; "), false)
}

// NewMissingInputError flags a required field that is absent.
func NewMissingInputError(field string) *StandardError {
	return newError(ErrCodeMissingInput, "Required input is missing", fmt.Sprintf("field: %s", field), false)
}

// NewMalformedInputError flags a field that is present but unusable.
func NewMalformedInputError(field, reason string) *StandardError {
	return newError(ErrCodeMalformedInput, "Input is malformed", fmt.Sprintf("field: %s, reason: %s", field, reason), false)
}

// NewEvaluationFailedError is a non-retryable failure of the decision pipeline.
func NewEvaluationFailedError(details string) *StandardError {
	return newError(ErrCodeEvaluationFailed, "Acquisition evaluation failed", details, false)
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
}

// NewRecommendationStoreFailedError creates a retryable persistence error.
func NewRecommendationStoreFailedError(requestID string, err error) *StandardError {
	return newError(ErrCodeRecommendationStoreFailed, "Failed to store recommendation",
		fmt.Sprintf("requestId: %s, error: %s", requestID, err.Error()), true)
}

func NewBusinessRuleError(message, details string) *StandardError {
	return newError(ErrCodeBusinessRule, message, details, false)
}

func NewExternalServiceError(service string, err error) *StandardError {
	return newError(ErrCodeExternalService, fmt.Sprintf("External service '%s' error", service), err.Error(), true)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError(ErrCodeTimeout, fmt.Sprintf("Service '%s' timeout", service), err.Error(), true)
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return newError(ErrCodeNotFound, fmt.Sprintf("Resource not found in %s", service), details, false)
}

func NewAuthenticationError(details string) *StandardError {
	return newError(ErrCodeAuthentication, "Authentication failed", details, false)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to the error codes modelled in the BPMN diagrams.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeParseError:                "ACQUISITION_INPUT_INVALID",
	ErrCodeInputSchemaInvalid:        "ACQUISITION_INPUT_INVALID",
	ErrCodeMissingInput:              "ACQUISITION_INPUT_INVALID",
	ErrCodeMalformedInput:            "ACQUISITION_INPUT_INVALID",
	ErrCodeEvaluationFailed:          "ACQUISITION_EVALUATION_FAILED",
	ErrCodeDatabaseConnectionFailed:  "DATABASE_CONNECTION_FAILED",
	ErrCodeRecommendationStoreFailed: "RECOMMENDATION_STORE_FAILED",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeRecommendationStoreFailed,
		ErrCodeExternalService:
		return 3
	case ErrCodeTimeout, ErrCodeCacheUnavailable:
		return 2
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "INPUT") || strings.Contains(codeStr, "PARSE"):
		return "VALIDATION"
	case strings.Contains(codeStr, "CONFLICT") || strings.Contains(codeStr, "EVALUATION"):
		return "ENGINE"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "STORE"):
		return "DATABASE"
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	default:
		return "OTHER"
	}
}

// Package errors provides standardized error handling for the reporting pipeline.
package errors

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"

	ErrCodeTemplateNotFound ErrorCode = "TEMPLATE_NOT_FOUND"

	ErrCodeIngestionFailed   ErrorCode = "INGESTION_FAILED"
	ErrCodeNoRelevantContext ErrorCode = "NO_RELEVANT_CONTEXT"

	ErrCodeStoreConnectionFailed ErrorCode = "STORE_CONNECTION_FAILED"
	ErrCodeStoreQueryFailed      ErrorCode = "STORE_QUERY_FAILED"
	ErrCodeStoreTimeout          ErrorCode = "STORE_TIMEOUT"

	ErrCodeEmbeddingFailed  ErrorCode = "EMBEDDING_FAILED"
	ErrCodeEmbeddingTimeout ErrorCode = "EMBEDDING_TIMEOUT"

	ErrCodeLLMTimeout             ErrorCode = "LLM_TIMEOUT"
	ErrCodeGenerationFailed       ErrorCode = "GENERATION_FAILED"
	ErrCodeSchemaValidationFailed ErrorCode = "SCHEMA_VALIDATION_FAILED"
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
// 2. Error Constructors
// ==========================

// NewInvalidRequestError creates a non-retryable request validation error.
func NewInvalidRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequest,
		Message:   "Request validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTemplateNotFoundError creates a non-retryable template error.
func NewTemplateNotFoundError(templateCode string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTemplateNotFound,
		Message:   "Template not found in registry",
		Details:   fmt.Sprintf("templateCode: %s", templateCode),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewIngestionFailedError creates a non-retryable document ingestion error.
func NewIngestionFailedError(path string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeIngestionFailed,
		Message:   "Document ingestion failed",
		Details:   fmt.Sprintf("path: %s, error: %s", path, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNoRelevantContextError creates a non-retryable empty retrieval error.
func NewNoRelevantContextError(query string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoRelevantContext,
		Message:   "No relevant regulatory context found",
		Details:   fmt.Sprintf("query: %s", query),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreConnectionFailedError creates a retryable vector store connection error.
func NewStoreConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreConnectionFailed,
		Message:   "Vector store connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreQueryFailedError creates a retryable vector store query error.
func NewStoreQueryFailedError(backend string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreQueryFailed,
		Message:   "Vector store query error",
		Details:   fmt.Sprintf("backend: %s, error: %s", backend, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreTimeoutError creates a retryable vector store timeout error.
func NewStoreTimeoutError(backend string) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreTimeout,
		Message:   "Vector store query timeout",
		Details:   fmt.Sprintf("backend: %s", backend),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewEmbeddingFailedError creates a retryable embedding API error.
func NewEmbeddingFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEmbeddingFailed,
		Message:   "Embedding API error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewEmbeddingTimeoutError creates a retryable embedding timeout error.
func NewEmbeddingTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeEmbeddingTimeout,
		Message:   "Embedding API timeout",
		Details:   "API call exceeded timeout threshold",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewLLMTimeoutError creates a retryable LLM timeout error.
func NewLLMTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMTimeout,
		Message:   "LLM completion timeout",
		Details:   "LLM call exceeded timeout threshold",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewGenerationFailedError creates a retryable LLM generation error.
func NewGenerationFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeGenerationFailed,
		Message:   "LLM generation API error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSchemaValidationFailedError creates a non-retryable structured output error.
func NewSchemaValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSchemaValidationFailed,
		Message:   "Generated payload failed schema validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// Generic constructors

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "TIMEOUT_ERROR",
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. HTTP Boundary Mapping
// ==========================

// HTTPStatus returns the response status the API boundary uses for a code.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case ErrCodeNoRelevantContext, ErrCodeTemplateNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeStoreConnectionFailed,
		ErrCodeStoreQueryFailed,
		ErrCodeEmbeddingFailed,
		ErrCodeGenerationFailed:
		return 3 // Retryable technical errors

	case ErrCodeStoreTimeout,
		ErrCodeEmbeddingTimeout:
		return 2 // Partial retry for timeouts

	case ErrCodeLLMTimeout:
		return 1

	default:
		return 0 // Business errors: no retry
	}
}

// ==========================
// 4. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "TEMPLATE"):
		return "TEMPLATE"
	case strings.Contains(codeStr, "INGESTION") || strings.Contains(codeStr, "CONTEXT"):
		return "RETRIEVAL"
	case strings.Contains(codeStr, "STORE"):
		return "STORE"
	case strings.Contains(codeStr, "EMBEDDING"):
		return "EMBEDDING"
	case strings.Contains(codeStr, "LLM") || strings.Contains(codeStr, "GENERATION") || strings.Contains(codeStr, "SCHEMA"):
		return "GENERATION"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	internalErrors "github.com/gcbaptista/go-concordance-engine/internal/errors"
)

// ErrorCode represents standardized error codes for the API
type ErrorCode string

const (
	// Client Error Codes (4xx)
	ErrorCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrorCodeCorpusNotFound   ErrorCode = "CORPUS_NOT_FOUND"
	ErrorCodeTextNotFound     ErrorCode = "TEXT_NOT_FOUND"
	ErrorCodeJobNotFound      ErrorCode = "JOB_NOT_FOUND"
	ErrorCodeCorpusExists     ErrorCode = "CORPUS_ALREADY_EXISTS"
	ErrorCodeInvalidRequest   ErrorCode = "INVALID_REQUEST"
	ErrorCodeInvalidJSON      ErrorCode = "INVALID_JSON"
	ErrorCodeInvalidPattern   ErrorCode = "INVALID_PATTERN"
	ErrorCodeSameName         ErrorCode = "SAME_NAME_PROVIDED"

	// Server Error Codes (5xx)
	ErrorCodeInternalError      ErrorCode = "INTERNAL_ERROR"
	ErrorCodeIndexingFailed     ErrorCode = "INDEXING_FAILED"
	ErrorCodeSearchFailed       ErrorCode = "SEARCH_FAILED"
	ErrorCodeJobExecutionFailed ErrorCode = "JOB_EXECUTION_FAILED"
)

// ErrorDetail provides additional context for an error
type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// APIError represents a standardized API error response
type APIError struct {
	Error     string        `json:"error"`
	Code      ErrorCode     `json:"code"`
	Message   string        `json:"message"`
	Details   []ErrorDetail `json:"details,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	RequestID string        `json:"request_id,omitempty"`
}

// APIErrorResponse creates a standardized error response
func APIErrorResponse(code ErrorCode, message string, details ...ErrorDetail) *APIError {
	return &APIError{
		Error:     "Request failed",
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now(),
	}
}

// SendError sends a standardized error response
func SendError(c *gin.Context, statusCode int, code ErrorCode, message string, details ...ErrorDetail) {
	errorResponse := APIErrorResponse(code, message, details...)

	// Add request ID if available
	if requestID, exists := c.Get(requestIDKey); exists {
		if id, ok := requestID.(string); ok {
			errorResponse.RequestID = id
		}
	}

	c.JSON(statusCode, errorResponse)
}

// SendStructuredValidationError sends a validation error with structured details
func SendStructuredValidationError(c *gin.Context, result *ValidationResult) {
	details := make([]ErrorDetail, len(result.Errors))
	for i, err := range result.Errors {
		details[i] = ErrorDetail{
			Field:   err.Field,
			Message: err.Message,
			Code:    "VALIDATION_ERROR",
		}
	}

	SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed, "Request validation failed", details...)
}

// SendCorpusNotFoundError sends a standardized corpus not found error
func SendCorpusNotFoundError(c *gin.Context, corpusName string) {
	SendError(c, http.StatusNotFound, ErrorCodeCorpusNotFound,
		"Corpus '"+corpusName+"' not found")
}

// SendJobNotFoundError sends a standardized job not found error
func SendJobNotFoundError(c *gin.Context, jobID string) {
	SendError(c, http.StatusNotFound, ErrorCodeJobNotFound,
		"Job '"+jobID+"' not found")
}

// SendInvalidJSONError sends a standardized invalid JSON error
func SendInvalidJSONError(c *gin.Context, err error) {
	SendError(c, http.StatusBadRequest, ErrorCodeInvalidJSON,
		"Invalid JSON in request body: "+err.Error())
}

// SendInvalidPatternError sends a standardized invalid pattern error
func SendInvalidPatternError(c *gin.Context, err error) {
	detail := ErrorDetail{Message: err.Error()}
	var patternErr *internalErrors.PatternError
	if errors.As(err, &patternErr) {
		detail.Field = patternErr.Path
		detail.Message = patternErr.Message
	}
	SendError(c, http.StatusBadRequest, ErrorCodeInvalidPattern, "Pattern does not compile", detail)
}

// SendInternalError sends a standardized internal server error
func SendInternalError(c *gin.Context, operation string, err error) {
	SendError(c, http.StatusInternalServerError, ErrorCodeInternalError,
		"Internal error during "+operation+": "+err.Error())
}

// SendEngineError maps an engine error onto the matching status and code.
// Errors without a sentinel become failures of the given kind.
func SendEngineError(c *gin.Context, fallback ErrorCode, operation string, err error) {
	switch {
	case errors.Is(err, internalErrors.ErrCorpusNotFound):
		SendError(c, http.StatusNotFound, ErrorCodeCorpusNotFound, err.Error())
	case errors.Is(err, internalErrors.ErrTextNotFound):
		SendError(c, http.StatusNotFound, ErrorCodeTextNotFound, err.Error())
	case errors.Is(err, internalErrors.ErrJobNotFound):
		SendError(c, http.StatusNotFound, ErrorCodeJobNotFound, err.Error())
	case errors.Is(err, internalErrors.ErrCorpusAlreadyExists):
		SendError(c, http.StatusConflict, ErrorCodeCorpusExists, err.Error())
	case errors.Is(err, internalErrors.ErrSameName):
		SendError(c, http.StatusBadRequest, ErrorCodeSameName, err.Error())
	case errors.Is(err, internalErrors.ErrInvalidPattern):
		SendInvalidPatternError(c, err)
	case errors.Is(err, internalErrors.ErrInvalidInput):
		detail := ErrorDetail{Message: err.Error(), Code: "VALIDATION_ERROR"}
		var validationErr *internalErrors.ValidationError
		if errors.As(err, &validationErr) {
			detail.Field = validationErr.Field
			detail.Message = validationErr.Message
		}
		SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed, "Request validation failed", detail)
	default:
		SendError(c, http.StatusInternalServerError, fallback, operation+" failed: "+err.Error())
	}
}

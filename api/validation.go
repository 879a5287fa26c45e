// Package api provides the gin HTTP API of the concordance server.
package api

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-concordance-engine/config"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult holds the result of validation operations
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// AddError adds a validation error to the result
func (vr *ValidationResult) AddError(field, message string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

func validateName(field, label, value string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if value == "" {
		result.AddError(field, label+" is required")
		return result
	}

	if strings.TrimSpace(value) != value {
		result.AddError(field, label+" cannot have leading or trailing whitespace")
	}

	return result
}

// ValidateCorpusName validates a corpus name parameter
func ValidateCorpusName(corpusName string) *ValidationResult {
	return validateName("corpusName", "Corpus name", corpusName)
}

// ValidateTextID validates a text ID
func ValidateTextID(textID string) *ValidationResult {
	return validateName("textId", "Text ID", textID)
}

// ValidateCorpusSettings validates corpus settings for creation. Defaults are
// applied when the settings are valid.
func ValidateCorpusSettings(settings *config.CorpusSettings) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if settings == nil {
		result.AddError("settings", "Corpus settings are required")
		return result
	}

	if settings.Name == "" {
		result.AddError("name", "Corpus name is required")
		return result
	}

	for _, problem := range settings.Validate() {
		result.AddError("settings", problem)
	}
	if !result.HasErrors() {
		settings.ApplyDefaults()
	}

	return result
}

// ValidatePagination validates pagination parameters
func ValidatePagination(page, pageSize int) (int, int, *ValidationResult) {
	result := &ValidationResult{Valid: true}

	if page < 0 {
		result.AddError("page", "Page number cannot be negative")
	}
	if pageSize < 0 {
		result.AddError("page_size", "Page size cannot be negative")
	}

	// Set defaults
	if page == 0 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	return page, pageSize, result
}

// ValidateRenameRequest validates a rename corpus request
func ValidateRenameRequest(oldName, newName string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if oldName == "" {
		result.AddError("oldName", "Current corpus name is required")
	}

	if newName == "" {
		result.AddError("new_name", "New name is required and cannot be empty")
	}

	if strings.TrimSpace(newName) != newName {
		result.AddError("new_name", "New name cannot have leading or trailing whitespace")
	}

	if oldName == newName {
		result.AddError("new_name", "New name must be different from current name")
	}

	return result
}

// SendValidationError sends a standardized validation error response
func SendValidationError(c *gin.Context, result *ValidationResult) {
	SendStructuredValidationError(c, result)
}

// ValidateJSONBinding validates JSON binding and returns a standardized error
func ValidateJSONBinding(c *gin.Context, target any) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if err := c.ShouldBindJSON(target); err != nil {
		result.AddError("request_body", "Invalid request body: "+err.Error())
	}

	return result
}

// ValidateQueryBinding validates query parameter binding
func ValidateQueryBinding(c *gin.Context, target any) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if err := c.ShouldBindQuery(target); err != nil {
		result.AddError("query_parameters", "Invalid query parameters: "+err.Error())
	}

	return result
}

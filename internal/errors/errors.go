package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions
var (
	// ErrCorpusNotFound is returned when a corpus is not found
	ErrCorpusNotFound = errors.New("corpus not found")

	// ErrCorpusAlreadyExists is returned when trying to create a corpus that already exists
	ErrCorpusAlreadyExists = errors.New("corpus already exists")

	// ErrTextNotFound is returned when a text is not found
	ErrTextNotFound = errors.New("text not found")

	// ErrJobNotFound is returned when a job is not found
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrSameName is returned when trying to rename to the same name
	ErrSameName = errors.New("same name provided")

	// ErrInvalidPattern is returned when a pattern tree fails to compile
	ErrInvalidPattern = errors.New("invalid pattern")

	// ErrNotCompiled is returned when a pattern is searched before a successful compile
	ErrNotCompiled = errors.New("pattern not compiled")

	// ErrPatternChanged is returned when a pattern tree was modified after it was compiled
	ErrPatternChanged = errors.New("pattern changed since last compile")
)

// CorpusNotFoundError represents a corpus not found error with context
type CorpusNotFoundError struct {
	CorpusName string
}

func (e *CorpusNotFoundError) Error() string {
	return fmt.Sprintf("corpus named '%s' not found", e.CorpusName)
}

func (e *CorpusNotFoundError) Is(target error) bool {
	return target == ErrCorpusNotFound
}

// NewCorpusNotFoundError creates a new CorpusNotFoundError
func NewCorpusNotFoundError(corpusName string) *CorpusNotFoundError {
	return &CorpusNotFoundError{CorpusName: corpusName}
}

// CorpusAlreadyExistsError represents a corpus already exists error with context
type CorpusAlreadyExistsError struct {
	CorpusName string
}

func (e *CorpusAlreadyExistsError) Error() string {
	return fmt.Sprintf("corpus named '%s' already exists", e.CorpusName)
}

func (e *CorpusAlreadyExistsError) Is(target error) bool {
	return target == ErrCorpusAlreadyExists
}

// NewCorpusAlreadyExistsError creates a new CorpusAlreadyExistsError
func NewCorpusAlreadyExistsError(corpusName string) *CorpusAlreadyExistsError {
	return &CorpusAlreadyExistsError{CorpusName: corpusName}
}

// TextNotFoundError represents a text not found error with context
type TextNotFoundError struct {
	TextID     string
	CorpusName string
}

func (e *TextNotFoundError) Error() string {
	if e.CorpusName != "" {
		return fmt.Sprintf("text with ID '%s' not found in corpus '%s'", e.TextID, e.CorpusName)
	}
	return fmt.Sprintf("text with ID '%s' not found", e.TextID)
}

func (e *TextNotFoundError) Is(target error) bool {
	return target == ErrTextNotFound
}

// NewTextNotFoundError creates a new TextNotFoundError
func NewTextNotFoundError(textID string, corpusName ...string) *TextNotFoundError {
	err := &TextNotFoundError{TextID: textID}
	if len(corpusName) > 0 {
		err.CorpusName = corpusName[0]
	}
	return err
}

// JobNotFoundError represents a job not found error with context
type JobNotFoundError struct {
	JobID string
}

func (e *JobNotFoundError) Error() string {
	return fmt.Sprintf("job with ID '%s' not found", e.JobID)
}

func (e *JobNotFoundError) Is(target error) bool {
	return target == ErrJobNotFound
}

// NewJobNotFoundError creates a new JobNotFoundError
func NewJobNotFoundError(jobID string) *JobNotFoundError {
	return &JobNotFoundError{JobID: jobID}
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// SameNameError represents an error when trying to rename to the same name
type SameNameError struct {
	Name string
}

func (e *SameNameError) Error() string {
	return fmt.Sprintf("new name '%s' is the same as the current name", e.Name)
}

func (e *SameNameError) Is(target error) bool {
	return target == ErrSameName
}

// NewSameNameError creates a new SameNameError
func NewSameNameError(name string) *SameNameError {
	return &SameNameError{Name: name}
}

// PatternError locates a structural problem in a pattern tree.
// Path has the form "root.children[1].children[0]".
type PatternError struct {
	Path    string
	Message string
}

func (e *PatternError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("invalid pattern at %s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("invalid pattern: %s", e.Message)
}

func (e *PatternError) Is(target error) bool {
	return target == ErrInvalidPattern
}

// NewPatternError creates a new PatternError
func NewPatternError(path, format string, args ...any) *PatternError {
	return &PatternError{Path: path, Message: fmt.Sprintf(format, args...)}
}

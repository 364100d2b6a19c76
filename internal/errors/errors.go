package errors

import (
	"fmt"
)

// Detail keys used across packages.
const (
	DetailField     = "field"
	DetailColumn    = "column"
	DetailAlgorithm = "algorithm"
	DetailPath      = "path"
)

// MatchError is the structured error type for fuzzymatch.
// It provides rich context for error handling, logging, and user presentation.
type MatchError struct {
	// Code is the unique error code (e.g., "ERR_506_NO_RESULT").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Validation, Internal).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs
	// (offending field, column, algorithm).
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *MatchError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *MatchError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with MatchError.
func (e *MatchError) Is(target error) bool {
	if t, ok := target.(*MatchError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *MatchError) WithDetail(key, value string) *MatchError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithField records the offending field name.
func (e *MatchError) WithField(field string) *MatchError {
	return e.WithDetail(DetailField, field)
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *MatchError) WithSuggestion(suggestion string) *MatchError {
	e.Suggestion = suggestion
	return e
}

// New creates a new MatchError with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *MatchError {
	return &MatchError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates a MatchError from an existing error.
// The error's message becomes the MatchError message.
func Wrap(code string, err error) *MatchError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *MatchError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// IOError creates an I/O-related error.
func IOError(message string, cause error) *MatchError {
	return New(ErrCodeFileNotFound, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *MatchError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *MatchError {
	return New(ErrCodeInternal, message, cause)
}

// IsFatal checks if an error has fatal severity.
// Fatal errors should abort the current operation.
func IsFatal(err error) bool {
	if me := asMatchError(err); me != nil {
		return me.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from the first MatchError in the chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	if me := asMatchError(err); me != nil {
		return me.Code
	}
	return ""
}

// GetCategory extracts the category from a MatchError.
// Returns empty string if not a MatchError.
func GetCategory(err error) Category {
	if me := asMatchError(err); me != nil {
		return me.Category
	}
	return ""
}

// GetField returns the offending field recorded on a MatchError, if any.
func GetField(err error) string {
	if me := asMatchError(err); me != nil {
		return me.Details[DetailField]
	}
	return ""
}

// asMatchError walks single-cause chains looking for a MatchError.
func asMatchError(err error) *MatchError {
	for err != nil {
		if me, ok := err.(*MatchError); ok {
			return me
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil
		}
		err = u.Unwrap()
	}
	return nil
}

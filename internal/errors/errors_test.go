package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchError_Unwrap_PreservesOriginalError(t *testing.T) {
	// Given: an original error
	originalErr := errors.New("original error")

	// When: wrapping with MatchError
	matchErr := New(ErrCodeFileNotFound, "file not found: people.csv", originalErr)

	// Then: unwrapping returns original error
	require.NotNil(t, matchErr)
	assert.Equal(t, originalErr, errors.Unwrap(matchErr))
	assert.True(t, errors.Is(matchErr, originalErr))
}

func TestMatchError_Error_ReturnsFormattedMessage(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		message  string
		expected string
	}{
		{
			name:     "config error",
			code:     ErrCodeConfigNotFound,
			message:  "config file not found",
			expected: "[ERR_101_CONFIG_NOT_FOUND] config file not found",
		},
		{
			name:     "unknown algorithm",
			code:     ErrCodeUnknownAlgorithm,
			message:  "unknown algorithm: soundex",
			expected: "[ERR_104_UNKNOWN_ALGORITHM] unknown algorithm: soundex",
		},
		{
			name:     "no result",
			code:     ErrCodeNoResult,
			message:  "field name produced no result",
			expected: "[ERR_506_NO_RESULT] field name produced no result",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, nil)
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestMatchError_Is_MatchesByCode(t *testing.T) {
	// Given: two errors with the same code but different messages
	a := New(ErrCodeNoResult, "field name produced no result", nil)
	b := New(ErrCodeNoResult, "", nil)
	c := New(ErrCodeMatchFailed, "", nil)

	// Then: errors.Is matches by code only
	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, c))
}

func TestMatchError_Is_FindsCodeThroughWrapping(t *testing.T) {
	// Given: a MatchError wrapped by fmt.Errorf
	inner := New(ErrCodeKeyMismatch, "encryption key does not match", nil)
	wrapped := fmt.Errorf("open vault: %w", inner)

	// Then: code and category are still reachable
	assert.True(t, errors.Is(wrapped, New(ErrCodeKeyMismatch, "", nil)))
	assert.Equal(t, ErrCodeKeyMismatch, GetCode(wrapped))
	assert.Equal(t, CategoryIO, GetCategory(wrapped))
	assert.True(t, IsFatal(wrapped))
}

func TestNew_DerivesCategoryAndSeverity(t *testing.T) {
	tests := []struct {
		code     string
		category Category
		severity Severity
	}{
		{ErrCodeConfigInvalid, CategoryConfig, SeverityError},
		{ErrCodeEncryptionKeyMissing, CategoryConfig, SeverityError},
		{ErrCodeCorruptIndex, CategoryIO, SeverityFatal},
		{ErrCodeStorageLocked, CategoryIO, SeverityWarning},
		{ErrCodeInvalidTarget, CategoryValidation, SeverityError},
		{ErrCodeTeardownFailed, CategoryInternal, SeverityError},
		{"bogus", CategoryInternal, SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "msg", nil)
			assert.Equal(t, tt.category, err.Category)
			assert.Equal(t, tt.severity, err.Severity)
		})
	}
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestWithField_RecordsOffendingField(t *testing.T) {
	// Given: a build failure for a field
	err := New(ErrCodeIndexFailed, "build failed", nil).
		WithField("joined_date").
		WithDetail(DetailAlgorithm, "timedelta").
		WithSuggestion("check the date format")

	// Then: the field is retrievable even through wrapping
	wrapped := fmt.Errorf("create: %w", err)
	assert.Equal(t, "joined_date", GetField(wrapped))
	assert.Equal(t, "timedelta", err.Details[DetailAlgorithm])
	assert.Equal(t, "check the date format", err.Suggestion)
}

func TestHelpers_ReturnEmptyForPlainErrors(t *testing.T) {
	plain := errors.New("boom")

	assert.Empty(t, GetCode(plain))
	assert.Empty(t, GetCategory(plain))
	assert.Empty(t, GetField(plain))
	assert.False(t, IsFatal(plain))
	assert.False(t, IsFatal(nil))
}

func TestConstructors_UseExpectedCodes(t *testing.T) {
	assert.Equal(t, ErrCodeConfigInvalid, ConfigError("x", nil).Code)
	assert.Equal(t, ErrCodeFileNotFound, IOError("x", nil).Code)
	assert.Equal(t, ErrCodeInvalidInput, ValidationError("x", nil).Code)
	assert.Equal(t, ErrCodeInternal, InternalError("x", nil).Code)
}

func TestFormatForCLI_IncludesDetailsHintAndCode(t *testing.T) {
	// Given: an error with details and a suggestion
	err := New(ErrCodeMissingFields, "data is missing configured fields", nil).
		WithDetail("missing", "email").
		WithDetail(DetailColumn, "id").
		WithSuggestion("add the columns or remove the fields from config")

	// When: formatting for CLI
	out := FormatForCLI(err)

	// Then: everything is present with details sorted by key
	assert.Contains(t, out, "Error: data is missing configured fields")
	assert.Contains(t, out, "  column: id\n  missing: email\n")
	assert.Contains(t, out, "Hint: add the columns")
	assert.Contains(t, out, "Code: ERR_408_MISSING_FIELDS")
}

func TestFormatForCLI_WrapsPlainErrors(t *testing.T) {
	out := FormatForCLI(errors.New("boom"))
	assert.Contains(t, out, "Error: boom")
	assert.Contains(t, out, ErrCodeInternal)
	assert.Empty(t, FormatForCLI(nil))
}

func TestFormatJSON_RoundTripsFields(t *testing.T) {
	// Given: an error with a cause
	err := New(ErrCodeNoResult, "field name produced no result", errors.New("scorer empty")).WithField("name")

	// When: formatting as JSON
	data, ferr := FormatJSON(err)
	require.NoError(t, ferr)

	// Then: the payload carries code, category and cause
	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, ErrCodeNoResult, got["code"])
	assert.Equal(t, string(CategoryInternal), got["category"])
	assert.Equal(t, "scorer empty", got["cause"])
	assert.Equal(t, map[string]any{"field": "name"}, got["details"])
}

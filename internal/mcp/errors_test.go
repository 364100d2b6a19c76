package mcp

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fmerrors "github.com/Aman-CERP/fuzzymatch/internal/errors"
)

func TestMapError_NilError(t *testing.T) {
	assert.Nil(t, MapError(nil))
}

func TestMapError_Context(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{"deadline", context.DeadlineExceeded, "timed out"},
		{"canceled", context.Canceled, "canceled"},
		{"wrapped deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), "timed out"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MapError(tt.err)

			require.NotNil(t, result)
			assert.Equal(t, ErrCodeTimeout, result.Code)
			assert.Contains(t, result.Message, tt.msg)
		})
	}
}

func TestMapError_ToolNotFound(t *testing.T) {
	result := MapError(fmt.Errorf("call: %w", ErrToolNotFound))

	require.NotNil(t, result)
	assert.Equal(t, ErrCodeMethodNotFound, result.Code)
}

func TestMapError_UnknownError_HidesDetails(t *testing.T) {
	// Given: an arbitrary error carrying internal detail
	err := errors.New("/var/lib/secret path exploded")

	// When: mapping it
	result := MapError(err)

	// Then: the client sees a generic internal error
	require.NotNil(t, result)
	assert.Equal(t, ErrCodeInternalError, result.Code)
	assert.NotContains(t, result.Message, "secret")
}

func TestMapError_PassesMCPErrorThrough(t *testing.T) {
	orig := NewInvalidParamsError("target is required")

	result := MapError(fmt.Errorf("wrapped: %w", orig))

	assert.Same(t, orig, result)
}

func TestMapError_MatchErrorCodes(t *testing.T) {
	tests := []struct {
		name string
		code string
		want int
	}{
		{"no result", fmerrors.ErrCodeNoResult, ErrCodeNoResult},
		{"match failed", fmerrors.ErrCodeMatchFailed, ErrCodeMatchFailed},
		{"invalid target", fmerrors.ErrCodeInvalidTarget, ErrCodeInvalidParams},
		{"key mismatch", fmerrors.ErrCodeKeyMismatch, ErrCodeStorage},
		{"corrupt index", fmerrors.ErrCodeCorruptIndex, ErrCodeStorage},
		{"internal", fmerrors.ErrCodeInternal, ErrCodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MapError(fmerrors.New(tt.code, "boom", nil))

			require.NotNil(t, result)
			assert.Equal(t, tt.want, result.Code)
			assert.Contains(t, result.Message, "boom")
		})
	}
}

func TestMapError_MatchError_FieldAndSuggestion(t *testing.T) {
	// Given: a wrapped no-result error naming its field and a suggestion
	err := fmt.Errorf("get: %w", fmerrors.New(fmerrors.ErrCodeNoResult, "no index", nil).
		WithField("joined_date").
		WithSuggestion("Run 'fuzzymatch create' first."))

	// When: mapping it
	result := MapError(err)

	// Then: both reach the client message
	require.NotNil(t, result)
	assert.Equal(t, ErrCodeNoResult, result.Code)
	assert.Equal(t, "no index (field joined_date) Run 'fuzzymatch create' first.", result.Message)
}

func TestMCPError_Error(t *testing.T) {
	err := &MCPError{Code: -32001, Message: "no index"}

	assert.Equal(t, "MCP error -32001: no index", err.Error())
}

func TestNewMethodNotFoundError(t *testing.T) {
	err := NewMethodNotFoundError("search")

	assert.Equal(t, ErrCodeMethodNotFound, err.Code)
	assert.Contains(t, err.Message, "search")
}

// Package mcp exposes a MatchingSet as a Model Context Protocol tool server.
package mcp

import (
	"context"
	"errors"
	"fmt"

	fmerrors "github.com/Aman-CERP/fuzzymatch/internal/errors"
)

// Custom MCP error codes for fuzzymatch.
const (
	// ErrCodeNoResult indicates a field has no index or cannot score the query value.
	ErrCodeNoResult = -32001

	// ErrCodeMatchFailed indicates a field failed while scoring.
	ErrCodeMatchFailed = -32002

	// ErrCodeTimeout indicates the request timed out or was canceled.
	ErrCodeTimeout = -32003

	// ErrCodeStorage indicates the storage could not be read or unlocked.
	ErrCodeStorage = -32004

	// Standard JSON-RPC error codes.
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// ErrToolNotFound indicates the requested tool does not exist.
var ErrToolNotFound = errors.New("tool not found")

// MCPError represents an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts internal errors to MCP errors.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var mcpErr *MCPError
	if errors.As(err, &mcpErr) {
		return mcpErr
	}

	var me *fmerrors.MatchError
	if errors.As(err, &me) {
		return mapMatchError(me)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request timed out."}
	case errors.Is(err, context.Canceled):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request was canceled."}
	case errors.Is(err, ErrToolNotFound):
		return &MCPError{Code: ErrCodeMethodNotFound, Message: "Tool not found."}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: "Internal server error."}
	}
}

// NewInvalidParamsError creates an error for invalid parameters with a custom message.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{Code: ErrCodeInvalidParams, Message: msg}
}

// NewMethodNotFoundError creates an error for unknown tools.
func NewMethodNotFoundError(name string) *MCPError {
	return &MCPError{
		Code:    ErrCodeMethodNotFound,
		Message: fmt.Sprintf("Tool '%s' not found.", name),
	}
}

func mapMatchError(me *fmerrors.MatchError) *MCPError {
	message := me.Message
	if field := fmerrors.GetField(me); field != "" {
		message = fmt.Sprintf("%s (field %s)", message, field)
	}
	if me.Suggestion != "" {
		message = fmt.Sprintf("%s %s", message, me.Suggestion)
	}

	switch me.Code {
	case fmerrors.ErrCodeNoResult:
		return &MCPError{Code: ErrCodeNoResult, Message: message}
	case fmerrors.ErrCodeMatchFailed:
		return &MCPError{Code: ErrCodeMatchFailed, Message: message}
	}

	switch me.Category {
	case fmerrors.CategoryValidation:
		return &MCPError{Code: ErrCodeInvalidParams, Message: message}
	case fmerrors.CategoryIO:
		return &MCPError{Code: ErrCodeStorage, Message: message}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: message}
	}
}

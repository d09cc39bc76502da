package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a namespaced error code for agent errors.
type ErrorCode string

// Configuration error codes
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_PARSE_FAILED      ErrorCode = "CONFIG_PARSE_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
)

// Database error codes
const (
	DB_OPEN_FAILED      ErrorCode = "DB_OPEN_FAILED"
	DB_MIGRATION_FAILED ErrorCode = "DB_MIGRATION_FAILED"
	DB_QUERY_FAILED     ErrorCode = "DB_QUERY_FAILED"
)

// Task error codes
const (
	TASK_NOT_FOUND         ErrorCode = "TASK_NOT_FOUND"
	TASK_VALIDATION_FAILED ErrorCode = "TASK_VALIDATION_FAILED"
	ARTIFACT_NOT_FOUND     ErrorCode = "ARTIFACT_NOT_FOUND"
)

// Guardrail error codes
const (
	GUARDRAIL_TRIPPED ErrorCode = "GUARDRAIL_TRIPPED"
	BUDGET_EXCEEDED   ErrorCode = "BUDGET_EXCEEDED"
)

// Workflow error codes
const (
	WORKFLOW_NOT_FOUND    ErrorCode = "WORKFLOW_NOT_FOUND"
	WORKFLOW_UNAVAILABLE  ErrorCode = "WORKFLOW_UNAVAILABLE"
	WORKFLOW_TERMINATED   ErrorCode = "WORKFLOW_TERMINATED"
	ACTIVITY_FAILED       ErrorCode = "ACTIVITY_FAILED"
	CHECKPOINT_CORRUPTED  ErrorCode = "CHECKPOINT_CORRUPTED"
	SIGNAL_NOT_DELIVERED  ErrorCode = "SIGNAL_NOT_DELIVERED"
)

// LLM error codes
const (
	LLM_PROVIDER_NOT_FOUND ErrorCode = "LLM_PROVIDER_NOT_FOUND"
	LLM_SLOT_UNRESOLVED    ErrorCode = "LLM_SLOT_UNRESOLVED"
	LLM_COMPLETION_FAILED  ErrorCode = "LLM_COMPLETION_FAILED"
)

// AgentError represents a structured error with error code, message, and optional cause.
// It supports error wrapping and retryability hints for error handling logic.
type AgentError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface, returning a formatted error message.
// Format: "[CODE] message" or "[CODE] message: cause" if cause exists.
func (e *AgentError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error unwrapping chains.
func (e *AgentError) Unwrap() error {
	return e.Cause
}

// Is checks if the target error matches this error by error code.
func (e *AgentError) Is(target error) bool {
	var agentErr *AgentError
	if errors.As(target, &agentErr) {
		return e.Code == agentErr.Code
	}
	return false
}

// NewError creates a new non-retryable AgentError with the given code and message.
func NewError(code ErrorCode, message string) *AgentError {
	return &AgentError{
		Code:    code,
		Message: message,
	}
}

// NewRetryableError creates a new retryable AgentError with the given code and message.
func NewRetryableError(code ErrorCode, message string) *AgentError {
	return &AgentError{
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// WrapError creates a new AgentError wrapping an underlying cause.
func WrapError(code ErrorCode, message string, cause error) *AgentError {
	return &AgentError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapRetryableError creates a retryable AgentError wrapping an underlying cause.
func WrapRetryableError(code ErrorCode, message string, cause error) *AgentError {
	return &AgentError{
		Code:      code,
		Message:   message,
		Retryable: true,
		Cause:     cause,
	}
}

// IsRetryable reports whether err carries a retryable hint.
// Non-AgentError values are treated as retryable so transient
// transport failures get retried by the workflow policy.
func IsRetryable(err error) bool {
	var agentErr *AgentError
	if errors.As(err, &agentErr) {
		return agentErr.Retryable
	}
	return err != nil
}

// CodeOf extracts the error code from err, or empty string if err
// is not an AgentError.
func CodeOf(err error) ErrorCode {
	var agentErr *AgentError
	if errors.As(err, &agentErr) {
		return agentErr.Code
	}
	return ""
}

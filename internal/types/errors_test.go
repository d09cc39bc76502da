package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgentError_Error(t *testing.T) {
	err := NewError(TASK_NOT_FOUND, "no task with that id")
	assert.Equal(t, "[TASK_NOT_FOUND] no task with that id", err.Error())

	wrapped := WrapError(DB_QUERY_FAILED, "lookup failed", fmt.Errorf("disk io"))
	assert.Equal(t, "[DB_QUERY_FAILED] lookup failed: disk io", wrapped.Error())
}

func TestAgentError_Unwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := WrapError(CONFIG_LOAD_FAILED, "cannot read config", cause)

	require.ErrorIs(t, err, cause)
}

func TestAgentError_Is(t *testing.T) {
	err := WrapError(TASK_NOT_FOUND, "gone", nil)
	target := NewError(TASK_NOT_FOUND, "different message")

	assert.True(t, errors.Is(err, target))
	assert.False(t, errors.Is(err, NewError(ARTIFACT_NOT_FOUND, "gone")))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewRetryableError(LLM_COMPLETION_FAILED, "timeout")))
	assert.False(t, IsRetryable(NewError(TASK_VALIDATION_FAILED, "bad input")))
	assert.True(t, IsRetryable(errors.New("plain transport error")))
	assert.False(t, IsRetryable(nil))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, BUDGET_EXCEEDED, CodeOf(NewError(BUDGET_EXCEEDED, "over limit")))
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))
}

func TestID_RoundTrip(t *testing.T) {
	id := NewID()
	require.NoError(t, id.Validate())

	parsed, err := ParseID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestParseID_Invalid(t *testing.T) {
	_, err := ParseID("")
	assert.Error(t, err)

	_, err = ParseID("not-a-uuid")
	assert.Error(t, err)
}

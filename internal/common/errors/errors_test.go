package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorFormatting(t *testing.T) {
	cause := stderrors.New("dial tcp: connection refused")
	err := NewLedgerError("getProfile", cause, true)

	assert.Equal(t, "[EXTERNAL_LEDGER_ERROR] Ledger operation failed: getProfile: dial tcp: connection refused", err.Error())
	assert.True(t, err.Retryable)
	assert.ErrorIs(t, err, cause)
	assert.True(t, err.IsInternal())
}

func TestAsAppErrorFollowsWrapping(t *testing.T) {
	appErr := New(ErrCodeAlreadyInFlight, "completion already in flight")
	wrapped := fmt.Errorf("submit: %w", appErr)

	got, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Same(t, appErr, got)
	assert.True(t, got.IsRejection())

	_, ok = AsAppError(stderrors.New("plain"))
	assert.False(t, ok)
	_, ok = AsAppError(nil)
	assert.False(t, ok)
}

func TestTimeoutErrorIsRetryable(t *testing.T) {
	err := NewTimeoutError("confirmation", 45*time.Second)
	assert.Equal(t, ErrCodeTimeout, err.Code)
	assert.True(t, err.Retryable)
	assert.Equal(t, "45s", err.Details["after"])
}

func TestStackSkipsErrorsPackage(t *testing.T) {
	err := New(ErrCodeInternal, "boom")
	require.NotEmpty(t, err.Stack)
	for _, frame := range err.Stack {
		assert.NotContains(t, frame, "internal/common/errors.New")
	}
}

package mapper

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "onchain-leveling-backend/internal/common/errors"
	activityrepo "onchain-leveling-backend/internal/features/activity/repository"
	activity "onchain-leveling-backend/internal/features/activity/service"
	completion "onchain-leveling-backend/internal/features/completion/service"
	ledger "onchain-leveling-backend/internal/features/ledger/repository"
	profile "onchain-leveling-backend/internal/features/profile/service"
	progression "onchain-leveling-backend/internal/features/progression/service"
	session "onchain-leveling-backend/internal/features/session/service"
)

func TestToAppError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		code      apperrors.ErrorCode
		retryable bool
	}{
		{"not registered", progression.ErrNotRegistered, apperrors.ErrCodeNotRegistered, false},
		{"disabled", fmt.Errorf("task 4: %w", progression.ErrTaskDisabled), apperrors.ErrCodeTaskDisabled, false},
		{"already completed", progression.ErrAlreadyCompleted, apperrors.ErrCodeAlreadyCompleted, false},
		{"in flight", progression.ErrAlreadyInFlight, apperrors.ErrCodeAlreadyInFlight, false},
		{"timeout", progression.ErrTimeout, apperrors.ErrCodeTimeout, true},
		{"task not found", ledger.ErrTaskNotFound, apperrors.ErrCodeTaskNotFound, false},
		{"bad address", ledger.ErrInvalidAddress, apperrors.ErrCodeValidation, false},
		{"attempt not found", completion.ErrAttemptNotFound, apperrors.ErrCodeAttemptNotFound, false},
		{"abandoned", completion.ErrAbandoned, apperrors.ErrCodeConflict, false},
		{"submit expired", completion.ErrSubmitExpired, apperrors.ErrCodeTimeout, true},
		{"ledger retryable", ledger.Classify("getProfile", errors.New("connection reset")), apperrors.ErrCodeExternalLedger, true},
		{"ledger reverted", ledger.Classify("completeTask", errors.New("execution reverted")), apperrors.ErrCodeExternalLedger, false},
		{"already registered", profile.ErrAlreadyRegistered, apperrors.ErrCodeConflict, false},
		{"bad name", fmt.Errorf("%w: too short", profile.ErrInvalidName), apperrors.ErrCodeValidation, false},
		{"bad activity", fmt.Errorf("%w: minutes", activity.ErrInvalidActivity), apperrors.ErrCodeValidation, false},
		{"quest active", activity.ErrQuestActive, apperrors.ErrCodeConflict, false},
		{"no quest", activityrepo.ErrQuestNotFound, apperrors.ErrCodeNotFound, false},
		{"session transition", fmt.Errorf("%w: x", session.ErrInvalidTransition), apperrors.ErrCodeConflict, false},
		{"other wallet", session.ErrWalletMismatch, apperrors.ErrCodeForbidden, false},
		{"unknown", errors.New("boom"), apperrors.ErrCodeInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToAppError(tt.err)
			assert.Equal(t, tt.code, got.Code)
			assert.Equal(t, tt.retryable, got.Retryable)
		})
	}
}

func TestToAppErrorPassesThrough(t *testing.T) {
	appErr := apperrors.NewValidationError("limit", "too large")
	assert.Same(t, appErr, ToAppError(fmt.Errorf("wrap: %w", appErr)))
	assert.Nil(t, ToAppError(nil))
}

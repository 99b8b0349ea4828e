package mapper

import (
	"context"
	"errors"

	apperrors "onchain-leveling-backend/internal/common/errors"
	activityrepo "onchain-leveling-backend/internal/features/activity/repository"
	activity "onchain-leveling-backend/internal/features/activity/service"
	completion "onchain-leveling-backend/internal/features/completion/service"
	ledger "onchain-leveling-backend/internal/features/ledger/repository"
	profile "onchain-leveling-backend/internal/features/profile/service"
	progression "onchain-leveling-backend/internal/features/progression/service"
	session "onchain-leveling-backend/internal/features/session/service"
)

// ToAppError maps domain errors onto the API error taxonomy.
func ToAppError(err error) *apperrors.AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}

	switch {
	case errors.Is(err, progression.ErrNotRegistered):
		return apperrors.Wrap(err, apperrors.ErrCodeNotRegistered, "Profile is not registered")
	case errors.Is(err, progression.ErrTaskDisabled):
		return apperrors.Wrap(err, apperrors.ErrCodeTaskDisabled, "Task is disabled")
	case errors.Is(err, progression.ErrAlreadyCompleted):
		return apperrors.Wrap(err, apperrors.ErrCodeAlreadyCompleted, "Task already completed in the current period")
	case errors.Is(err, progression.ErrAlreadyInFlight):
		return apperrors.Wrap(err, apperrors.ErrCodeAlreadyInFlight, "A completion for this task is already in flight")
	case errors.Is(err, progression.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return apperrors.Wrap(err, apperrors.ErrCodeTimeout, "Ledger did not confirm in time").WithRetryable(true)
	case errors.Is(err, ledger.ErrTaskNotFound):
		return apperrors.Wrap(err, apperrors.ErrCodeTaskNotFound, "Task not found")
	case errors.Is(err, ledger.ErrInvalidAddress):
		return apperrors.NewValidationError("address", "not a hex wallet address")
	case errors.Is(err, completion.ErrAttemptNotFound):
		return apperrors.Wrap(err, apperrors.ErrCodeAttemptNotFound, "Completion attempt not found")
	case errors.Is(err, completion.ErrSignerMismatch):
		return apperrors.Wrap(err, apperrors.ErrCodeForbidden, "Signer does not match the session wallet")
	case errors.Is(err, completion.ErrNotSubmitting), errors.Is(err, completion.ErrAbandoned):
		return apperrors.NewConflictError("attempt", err.Error())
	case errors.Is(err, profile.ErrAlreadyRegistered):
		return apperrors.NewConflictError("profile", err.Error())
	case errors.Is(err, profile.ErrRegistrationMissing):
		return apperrors.Wrap(err, apperrors.ErrCodeNotRegistered, "Registration did not take effect")
	case errors.Is(err, profile.ErrInvalidName):
		return apperrors.NewValidationError("name", err.Error())
	case errors.Is(err, profile.ErrInvalidCosmetic):
		return apperrors.NewValidationError("character", err.Error())
	case errors.Is(err, profile.ErrInvalidDevice):
		return apperrors.NewValidationError("device", err.Error())
	case errors.Is(err, activity.ErrInvalidActivity):
		return apperrors.NewValidationError("activity", err.Error())
	case errors.Is(err, activity.ErrQuestActive), errors.Is(err, activity.ErrQuestTransition):
		return apperrors.NewConflictError("quest", err.Error())
	case errors.Is(err, activityrepo.ErrQuestNotFound):
		return apperrors.NewNotFoundError("Quest", nil)
	case errors.Is(err, session.ErrInvalidDevice):
		return apperrors.NewValidationError("device", err.Error())
	case errors.Is(err, session.ErrEventNotAllowed):
		return apperrors.NewValidationError("event", err.Error())
	case errors.Is(err, session.ErrWalletMismatch):
		return apperrors.Wrap(err, apperrors.ErrCodeForbidden, "Session belongs to another wallet")
	case errors.Is(err, session.ErrInvalidTransition):
		return apperrors.NewConflictError("session", err.Error())
	}

	var le *ledger.LedgerError
	if errors.As(err, &le) {
		return apperrors.NewLedgerError(le.Op, le.Cause, le.Retryable)
	}

	return apperrors.Wrap(err, apperrors.ErrCodeInternal, "Internal server error")
}

package application

import (
	"errors"

	"github.com/wms-platform/execution-service/internal/domain"
	"github.com/wms-platform/execution-service/internal/voice"
	apperrors "github.com/wms-platform/execution-service/pkg/errors"
)

// ErrExecutionNotFound is returned for unknown execution IDs
var ErrExecutionNotFound = errors.New("execution not found")

// ErrVoiceNotAttached is returned by voice controls before a speech backend connects
var ErrVoiceNotAttached = errors.New("no voice session attached")

// toAppError maps engine errors onto API errors
func toAppError(err error) *apperrors.AppError {
	if err == nil {
		return nil
	}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return apperrors.ErrStepValidation(string(verr.Step), verr.Err.Error()).Wrap(err)
	}

	switch {
	case errors.Is(err, ErrExecutionNotFound):
		return apperrors.ErrNotFound("execution").Wrap(err)
	case errors.Is(err, domain.ErrListNotFound):
		return apperrors.ErrNotFound("list").Wrap(err)
	case errors.Is(err, domain.ErrCommitFailure):
		return apperrors.ErrCommitFailed(err.Error()).Wrap(err)
	case errors.Is(err, domain.ErrEmptyList),
		errors.Is(err, domain.ErrInvalidRow),
		errors.Is(err, domain.ErrUnknownOperation):
		return apperrors.ErrValidation(err.Error()).Wrap(err)
	case errors.Is(err, domain.ErrUnexpectedInput),
		errors.Is(err, domain.ErrRowAlreadyDone),
		errors.Is(err, domain.ErrNoPendingCommit),
		errors.Is(err, domain.ErrNoNextRow),
		errors.Is(err, domain.ErrNoPreviousRow),
		errors.Is(err, domain.ErrSessionClosed),
		errors.Is(err, ErrVoiceNotAttached),
		errors.Is(err, voice.ErrNotListening),
		errors.Is(err, voice.ErrNotPaused),
		errors.Is(err, voice.ErrSessionClosed):
		return apperrors.ErrConflict(err.Error()).Wrap(err)
	}

	var recErr *voice.RecognitionError
	if errors.As(err, &recErr) {
		return apperrors.ErrServiceUnavailable("speech recognition").Wrap(err)
	}
	return apperrors.MapDomainError(err)
}

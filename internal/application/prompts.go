package application

import (
	"errors"
	"strconv"

	"github.com/wms-platform/execution-service/internal/domain"
	"github.com/wms-platform/execution-service/internal/voice"
)

// StatusPrompt is the instruction for the state captured in s
func StatusPrompt(lex *voice.Lexicon, s Snapshot) string {
	if lex == nil {
		return string(s.Step)
	}

	switch {
	case s.Cancelled:
		return lex.Prompt(voice.PromptCancelled, nil)
	case s.Completed:
		return lex.Prompt(voice.PromptListCompleted, nil)
	case s.Paused:
		return lex.Prompt(voice.PromptPaused, nil)
	case s.CommitPending:
		return lex.Prompt(voice.PromptCommitFailed, nil)
	case s.Step == domain.StepDone:
		return RowConfirmedPrompt(lex, s.Operation)
	}

	return StepPrompt(lex, s.Step, s.Row, s.Session)
}

// StepPrompt tells the operator what the step expects
func StepPrompt(lex *voice.Lexicon, step domain.Step, row domain.ListRow, session domain.ExecutionSession) string {
	switch step {
	case domain.StepScanLocation:
		return lex.Prompt(voice.PromptLocation, map[string]string{
			"item":     row.ItemCode,
			"location": row.LocationCode,
		})
	case domain.StepConfirmItem:
		return lex.Prompt(voice.PromptItem, map[string]string{
			"item":        row.ItemCode,
			"description": row.ItemDescription,
		})
	case domain.StepInputQuantity:
		return lex.Prompt(voice.PromptQuantity, map[string]string{
			"quantity": strconv.Itoa(row.RequiredQuantity),
		})
	case domain.StepInputLot:
		return lex.Prompt(voice.PromptLot, nil)
	case domain.StepInputSerial:
		return lex.Prompt(voice.PromptSerial, nil)
	case domain.StepConfirm:
		vars := map[string]string{
			"required": strconv.Itoa(row.RequiredQuantity),
			"entered":  strconv.Itoa(session.Quantity),
		}
		if session.PendingMismatch {
			return lex.Prompt(voice.PromptMismatch, vars)
		}
		return lex.Prompt(voice.PromptConfirm, vars)
	default:
		return ""
	}
}

// RowConfirmedPrompt acknowledges a committed row
func RowConfirmedPrompt(lex *voice.Lexicon, op domain.Operation) string {
	if op == domain.OperationInventory {
		return lex.Prompt(voice.PromptCountConfirmed, nil)
	}
	return lex.Prompt(voice.PromptRowConfirmed, nil)
}

// ErrorPrompt is the spoken feedback for a rejected input
func ErrorPrompt(lex *voice.Lexicon, err error) string {
	switch {
	case errors.Is(err, domain.ErrLocationMismatch):
		return lex.Prompt(voice.PromptInvalidDigit, nil)
	case errors.Is(err, domain.ErrItemMismatch):
		return lex.Prompt(voice.PromptInvalidItem, nil)
	case errors.Is(err, domain.ErrInvalidQuantity), errors.Is(err, domain.ErrExceedsRequested):
		return lex.Prompt(voice.PromptInvalidQuantity, nil)
	case errors.Is(err, domain.ErrMissingLot):
		return lex.Prompt(voice.PromptMissingLot, nil)
	case errors.Is(err, domain.ErrMissingSerial):
		return lex.Prompt(voice.PromptMissingSerial, nil)
	case errors.Is(err, domain.ErrCommitFailure):
		return lex.Prompt(voice.PromptCommitFailed, nil)
	case errors.Is(err, domain.ErrUnexpectedInput), errors.Is(err, domain.ErrNoPendingCommit), errors.Is(err, domain.ErrRowAlreadyDone),
		errors.Is(err, domain.ErrNoNextRow), errors.Is(err, domain.ErrNoPreviousRow):
		return lex.Prompt(voice.PromptNotNow, nil)
	case errors.Is(err, domain.ErrSessionClosed):
		return lex.Prompt(voice.PromptClosed, nil)
	}
	return lex.Prompt(voice.PromptInvalidInput, nil)
}

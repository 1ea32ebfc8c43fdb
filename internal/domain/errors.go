package domain

import (
	"errors"
	"fmt"
)

// Step-local validation errors. They never end the session: the sequencer
// records the message and stays on the same step.
var (
	ErrLocationMismatch = errors.New("location mismatch")
	ErrItemMismatch     = errors.New("item mismatch")
	ErrInvalidQuantity  = errors.New("invalid quantity")
	ErrExceedsRequested = errors.New("quantity exceeds requested")
	ErrMissingLot       = errors.New("lot is required")
	ErrMissingSerial    = errors.New("serial number is required")
)

// Errors
var (
	ErrUnexpectedInput  = errors.New("input not accepted at this step")
	ErrRowAlreadyDone   = errors.New("row is already done")
	ErrCommitFailure    = errors.New("commit failed")
	ErrNoPendingCommit  = errors.New("no pending commit")
	ErrEmptyList        = errors.New("list has no rows")
	ErrInvalidRow       = errors.New("invalid list row")
	ErrListNotFound     = errors.New("list not found")
	ErrNoNextRow        = errors.New("already at the last row")
	ErrNoPreviousRow    = errors.New("already at the first row")
	ErrSessionClosed    = errors.New("execution is closed")
	ErrUnknownOperation = errors.New("unknown operation")
)

var stepErrors = []error{
	ErrLocationMismatch,
	ErrItemMismatch,
	ErrInvalidQuantity,
	ErrExceedsRequested,
	ErrMissingLot,
	ErrMissingSerial,
}

// ValidationError is a rejected input at a given step
type ValidationError struct {
	Step Step
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsStepValidation reports whether err is a recoverable step-local failure
func IsStepValidation(err error) bool {
	for _, target := range stepErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

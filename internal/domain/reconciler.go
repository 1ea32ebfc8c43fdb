package domain

import (
	"strconv"
	"strings"
)

// Outcome classifies an accepted quantity
type Outcome string

const (
	OutcomeExact   Outcome = "exact"   // picking, entered == required
	OutcomeShort   Outcome = "short"   // picking, 0 < entered < required; needs one more confirm
	OutcomeCounted Outcome = "counted" // inventory, any entered >= 0
)

// Reconciliation is the result of checking an entered quantity
type Reconciliation struct {
	Outcome  Outcome
	Quantity int
	Err      error
}

// Accepted reports whether the quantity may move the row forward
func (r Reconciliation) Accepted() bool {
	return r.Err == nil
}

// NeedsConfirmation reports whether the mismatch branch applies
func (r Reconciliation) NeedsConfirmation() bool {
	return r.Err == nil && r.Outcome == OutcomeShort
}

// ParseQuantity parses an integer quantity typed or spoken by the operator
func ParseQuantity(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0, ErrInvalidQuantity
	}
	return n, nil
}

// Reconcile checks an entered quantity against the required one. It has no
// side effects, so re-validating the same value gives the same result.
func Reconcile(op Operation, entered, required int) Reconciliation {
	if entered < 0 {
		return Reconciliation{Quantity: entered, Err: ErrInvalidQuantity}
	}

	if op == OperationInventory {
		return Reconciliation{Outcome: OutcomeCounted, Quantity: entered}
	}

	switch {
	case entered == 0:
		return Reconciliation{Quantity: entered, Err: ErrInvalidQuantity}
	case entered > required:
		return Reconciliation{Quantity: entered, Err: ErrExceedsRequested}
	case entered == required:
		return Reconciliation{Outcome: OutcomeExact, Quantity: entered}
	default:
		return Reconciliation{Outcome: OutcomeShort, Quantity: entered}
	}
}

// ReconcileRaw parses then reconciles
func ReconcileRaw(op Operation, raw string, required int) Reconciliation {
	n, err := ParseQuantity(raw)
	if err != nil {
		return Reconciliation{Err: err}
	}
	return Reconcile(op, n, required)
}

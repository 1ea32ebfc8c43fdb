package domain

import (
	"strings"
)

// InputKind says how a value reached the sequencer
type InputKind string

const (
	// InputSubmit is a complete field value from a touch form or a barcode scan
	InputSubmit InputKind = "submit"
	// InputAppend is a spoken fragment added to the current buffer
	InputAppend InputKind = "append"
	// InputCheckDigit is a spoken or typed location check digit
	InputCheckDigit InputKind = "check_digit"
	// InputConfirm accepts the displayed value or the buffer
	InputConfirm InputKind = "confirm"
)

// Input is one operator action applied to the current step
type Input struct {
	Kind  InputKind
	Value string
}

// Sequencer drives one row through its steps
type Sequencer struct {
	op      Operation
	row     ListRow
	step    Step
	session ExecutionSession
}

// NewSequencer starts row at ScanLocation with an empty session
func NewSequencer(op Operation, row ListRow) *Sequencer {
	s := &Sequencer{op: op}
	s.Reset(row)
	return s
}

// Reset discards the session and starts row from the beginning
func (s *Sequencer) Reset(row ListRow) {
	s.row = row
	s.step = StepScanLocation
	s.session = ExecutionSession{Trace: []Step{StepScanLocation}}
}

func (s *Sequencer) Step() Step { return s.step }

func (s *Sequencer) Row() ListRow { return s.row }

func (s *Sequencer) Operation() Operation { return s.op }

// Done reports whether the row reached its terminal step
func (s *Sequencer) Done() bool { return s.step == StepDone }

// Session returns a copy of the working data
func (s *Sequencer) Session() ExecutionSession { return s.session.clone() }

// Trace returns the steps visited so far
func (s *Sequencer) Trace() []Step { return s.Session().Trace }

// Apply validates in against the current step. A validation failure keeps the
// step, records LastError and returns a *ValidationError. An input kind the
// step does not take returns ErrUnexpectedInput and changes nothing.
func (s *Sequencer) Apply(in Input) error {
	if s.step == StepDone {
		return ErrRowAlreadyDone
	}

	var err error
	switch s.step {
	case StepScanLocation:
		err = s.scanLocation(in)
	case StepConfirmItem:
		err = s.confirmItem(in)
	case StepInputQuantity:
		err = s.inputQuantity(in)
	case StepInputLot:
		err = s.inputText(in, &s.session.Lot, ErrMissingLot)
	case StepInputSerial:
		err = s.inputText(in, &s.session.SerialNumber, ErrMissingSerial)
	case StepConfirm:
		err = s.confirm(in)
	}

	switch {
	case err == nil:
		s.session.LastError = ""
		return nil
	case err == ErrUnexpectedInput:
		return err
	default:
		s.session.LastError = err.Error()
		return &ValidationError{Step: s.step, Err: err}
	}
}

func (s *Sequencer) scanLocation(in Input) error {
	switch in.Kind {
	case InputSubmit:
		if strings.TrimSpace(in.Value) != strings.TrimSpace(s.row.LocationCode) {
			return ErrLocationMismatch
		}
	case InputCheckDigit, InputAppend:
		s.session.Buffer = strings.TrimSpace(in.Value)
		if err := VerifyCheckDigit(s.row, s.session.Buffer); err != nil {
			s.session.Buffer = ""
			return err
		}
	default:
		return ErrUnexpectedInput
	}

	s.session.ScannedLocation = s.row.LocationCode
	s.advance()
	return nil
}

func (s *Sequencer) confirmItem(in Input) error {
	switch in.Kind {
	case InputSubmit:
		if strings.TrimSpace(in.Value) != strings.TrimSpace(s.row.ItemCode) {
			return ErrItemMismatch
		}
	case InputConfirm:
	default:
		return ErrUnexpectedInput
	}

	s.session.ConfirmedItem = s.row.ItemCode
	s.advance()
	return nil
}

func (s *Sequencer) inputQuantity(in Input) error {
	var raw string
	switch in.Kind {
	case InputAppend:
		digits := strings.TrimSpace(in.Value)
		if digits == "" || strings.TrimLeft(digits, "0123456789") != "" {
			return ErrInvalidQuantity
		}
		s.session.Buffer += digits
		return nil
	case InputSubmit:
		raw = in.Value
	case InputConfirm:
		raw = s.session.Buffer
	default:
		return ErrUnexpectedInput
	}

	s.session.Buffer = ""
	rec := ReconcileRaw(s.op, raw, s.row.RequiredQuantity)
	if rec.Err != nil {
		return rec.Err
	}

	s.session.Quantity = rec.Quantity
	s.session.QuantitySet = true
	s.session.PendingMismatch = rec.NeedsConfirmation()
	s.advance()
	return nil
}

func (s *Sequencer) inputText(in Input, field *string, missing error) error {
	var value string
	switch in.Kind {
	case InputAppend:
		s.session.Buffer += strings.TrimSpace(in.Value)
		return nil
	case InputSubmit:
		value = strings.TrimSpace(in.Value)
	case InputConfirm:
		value = s.session.Buffer
	default:
		return ErrUnexpectedInput
	}

	s.session.Buffer = ""
	if value == "" {
		return missing
	}
	*field = value
	s.advance()
	return nil
}

// confirm is only reached while a short pick waits for its second confirmation
func (s *Sequencer) confirm(in Input) error {
	if in.Kind != InputConfirm {
		return ErrUnexpectedInput
	}
	s.session.PendingMismatch = false
	s.enter(StepConfirm)
	s.enter(StepDone)
	return nil
}

// advance moves to the next step. Confirm passes straight through to Done
// unless a short pick is waiting for confirmation.
func (s *Sequencer) advance() {
	s.session.Buffer = ""
	s.enter(NextStep(s.step, s.row))
	if s.step == StepConfirm && !s.session.PendingMismatch {
		s.enter(StepDone)
	}
}

func (s *Sequencer) enter(step Step) {
	s.step = step
	s.session.Trace = append(s.session.Trace, step)
}

package domain

// Step is one state of the per-row state machine
type Step string

const (
	StepScanLocation  Step = "scan_location"
	StepConfirmItem   Step = "confirm_item"
	StepInputQuantity Step = "input_quantity"
	StepInputLot      Step = "input_lot"
	StepInputSerial   Step = "input_serial"
	StepConfirm       Step = "confirm"
	StepDone          Step = "done"
)

// requirement selects a transition by row attribute
type requirement int

const (
	always requirement = iota
	ifLot
	ifSerial
)

type transition struct {
	when requirement
	to   Step
}

// transitionTable lists, per step, candidate successors in priority order.
// The first whose requirement holds for the row wins. Picking and inventory
// share it.
var transitionTable = map[Step][]transition{
	StepScanLocation:  {{always, StepConfirmItem}},
	StepConfirmItem:   {{always, StepInputQuantity}},
	StepInputQuantity: {{ifLot, StepInputLot}, {ifSerial, StepInputSerial}, {always, StepConfirm}},
	StepInputLot:      {{ifSerial, StepInputSerial}, {always, StepConfirm}},
	StepInputSerial:   {{always, StepConfirm}},
	StepConfirm:       {{always, StepDone}},
}

func (r requirement) holds(row ListRow) bool {
	switch r {
	case ifLot:
		return row.LotManaged
	case ifSerial:
		return row.SerialManaged
	default:
		return true
	}
}

// NextStep returns the successor of step for row. Done has no successor and maps to itself.
func NextStep(step Step, row ListRow) Step {
	for _, t := range transitionTable[step] {
		if t.when.holds(row) {
			return t.to
		}
	}
	return StepDone
}

// StepPath returns the canonical forward path for row, from ScanLocation to Done
func StepPath(row ListRow) []Step {
	path := []Step{StepScanLocation}
	for step := StepScanLocation; step != StepDone; {
		step = NextStep(step, row)
		path = append(path, step)
	}
	return path
}

// Valid reports whether s names a known step
func (s Step) Valid() bool {
	if s == StepDone {
		return true
	}
	_, ok := transitionTable[s]
	return ok
}

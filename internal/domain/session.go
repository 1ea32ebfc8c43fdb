package domain

// ExecutionSession is the per-row working data. A fresh one is created for every row.
type ExecutionSession struct {
	ScannedLocation string `json:"scannedLocation,omitempty"`
	ConfirmedItem   string `json:"confirmedItem,omitempty"`
	Quantity        int    `json:"quantity"`
	QuantitySet     bool   `json:"quantitySet"`
	Lot             string `json:"lot,omitempty"`
	SerialNumber    string `json:"serialNumber,omitempty"`
	LastError       string `json:"lastError,omitempty"`
	// PendingMismatch is set when a short pick waits for an explicit confirm
	PendingMismatch bool `json:"pendingMismatch"`
	// Buffer accumulates spoken fragments for the quantity, lot and serial steps
	Buffer string `json:"buffer,omitempty"`
	Trace  []Step `json:"trace"`
}

func (s ExecutionSession) clone() ExecutionSession {
	c := s
	c.Trace = append([]Step(nil), s.Trace...)
	return c
}

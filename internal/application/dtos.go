package application

import "time"

// ExecutionDTO represents an execution in responses
type ExecutionDTO struct {
	ExecutionID   string          `json:"executionId"`
	ListID        string          `json:"listId"`
	UserName      string          `json:"userName"`
	Operation     string          `json:"operation"`
	CurrentStep   string          `json:"currentStep"`
	CurrentRow    RowDTO          `json:"currentRow"`
	Session       SessionDTO      `json:"session"`
	Feedback      string          `json:"feedback"`
	Cursor        int             `json:"cursor"`
	RowCount      int             `json:"rowCount"`
	Progress      ProgressDTO     `json:"progress"`
	CommitPending bool            `json:"commitPending"`
	Completed     bool            `json:"completed"`
	Cancelled     bool            `json:"cancelled"`
	Paused        bool            `json:"paused"`
	StartedAt     time.Time       `json:"startedAt"`
	Voice         *VoiceStatusDTO `json:"voice,omitempty"`
}

// RowDTO represents a list row
type RowDTO struct {
	RowID            string `json:"rowId"`
	ItemID           string `json:"itemId"`
	ItemCode         string `json:"itemCode"`
	ItemDescription  string `json:"itemDescription"`
	LocationID       string `json:"locationId"`
	LocationCode     string `json:"locationCode"`
	RequiredQuantity int    `json:"requiredQuantity"`
	LotManaged       bool   `json:"lotManaged"`
	SerialManaged    bool   `json:"serialManaged"`
}

// SessionDTO represents the working data of the current row
type SessionDTO struct {
	ScannedLocation string   `json:"scannedLocation,omitempty"`
	ConfirmedItem   string   `json:"confirmedItem,omitempty"`
	Quantity        *int     `json:"quantity,omitempty"`
	Buffer          string   `json:"buffer,omitempty"`
	Lot             string   `json:"lot,omitempty"`
	SerialNumber    string   `json:"serialNumber,omitempty"`
	LastError       string   `json:"lastError,omitempty"`
	PendingMismatch bool     `json:"pendingMismatch"`
	Trace           []string `json:"trace"`
}

// ProgressDTO represents list completion
type ProgressDTO struct {
	ListID        string  `json:"listId"`
	TotalRows     int     `json:"totalRows"`
	CompletedRows int     `json:"completedRows"`
	Percent       float64 `json:"percent"`
}

// VoiceStatusDTO represents the voice session attached to an execution
type VoiceStatusDTO struct {
	State          string  `json:"state"`
	Enabled        bool    `json:"enabled"`
	Speaking       bool    `json:"speaking"`
	LastTranscript string  `json:"lastTranscript,omitempty"`
	LastConfidence float64 `json:"lastConfidence,omitempty"`
	LastCommand    string  `json:"lastCommand,omitempty"`
}

// InterpretationDTO represents an interpreted utterance
type InterpretationDTO struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
	Command    string  `json:"command,omitempty"`
	Value      string  `json:"value,omitempty"`
	Recognized bool    `json:"recognized"`
}

// UtteranceResultDTO is the response to a submitted utterance
type UtteranceResultDTO struct {
	Interpretation InterpretationDTO `json:"interpretation"`
	Action         string            `json:"action"`
	Feedback       string            `json:"feedback"`
	Error          string            `json:"error,omitempty"`
	Execution      *ExecutionDTO     `json:"execution"`
}

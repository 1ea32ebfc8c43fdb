package application

// StartExecutionCommand loads a list and opens an execution on it
type StartExecutionCommand struct {
	ListID string
	// Operation is optional; when set it must match the list
	Operation string
	UserName  string
}

// GetExecutionQuery looks up an execution
type GetExecutionQuery struct {
	ExecutionID string
}

// SubmitInputCommand carries a touch or scanner input
type SubmitInputCommand struct {
	ExecutionID string
	Kind        string
	Value       string
}

// SubmitUtteranceCommand carries a transcript recognized outside a voice session
type SubmitUtteranceCommand struct {
	ExecutionID string
	Transcript  string
	Confidence  float64
}

// ExecutionCommand targets an execution without extra arguments
type ExecutionCommand struct {
	ExecutionID string
}

// GetListProgressQuery asks the list source for progress
type GetListProgressQuery struct {
	ListID string
}

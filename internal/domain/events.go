package domain

import "time"

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

// ListCompletedEvent is raised after the last row of a list is committed
type ListCompletedEvent struct {
	ExecutionID string       `json:"executionId"`
	ListID      string       `json:"listId"`
	Operation   Operation    `json:"operation"`
	UserName    string       `json:"userName"`
	Rows        int          `json:"rows"`
	Picked      []PickResult `json:"picked,omitempty"` // committed pick rows, empty for inventory
	CompletedAt time.Time    `json:"completedAt"`
}

func (e *ListCompletedEvent) EventType() string    { return "wms.execution.list-completed" }
func (e *ListCompletedEvent) OccurredAt() time.Time { return e.CompletedAt }

// ExecutionCancelledEvent is raised when the operator exits a list
type ExecutionCancelledEvent struct {
	ExecutionID string    `json:"executionId"`
	ListID      string    `json:"listId"`
	RowID       string    `json:"rowId"`
	Step        Step      `json:"step"`
	UserName    string    `json:"userName"`
	CancelledAt time.Time `json:"cancelledAt"`
}

func (e *ExecutionCancelledEvent) EventType() string    { return "wms.execution.cancelled" }
func (e *ExecutionCancelledEvent) OccurredAt() time.Time { return e.CancelledAt }

package domain

import (
	"fmt"
	"strings"
	"time"
)

// Operation is the kind of physical task a list drives
type Operation string

const (
	OperationPicking   Operation = "picking"
	OperationInventory Operation = "inventory"
)

// ParseOperation validates an operation name
func ParseOperation(s string) (Operation, error) {
	switch op := Operation(strings.ToLower(strings.TrimSpace(s))); op {
	case OperationPicking, OperationInventory:
		return op, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownOperation, s)
	}
}

// ListRow is one line of a picking or inventory list. The engine never mutates it.
type ListRow struct {
	ID               string  `bson:"rowId" json:"rowId"`
	ItemID           string  `bson:"itemId" json:"itemId"`
	ItemCode         string  `bson:"itemCode" json:"itemCode"`
	ItemDescription  string  `bson:"itemDescription" json:"itemDescription"`
	LocationID       string  `bson:"locationId" json:"locationId"`
	LocationCode     string  `bson:"locationCode" json:"locationCode"`
	RequiredQuantity int     `bson:"requiredQuantity" json:"requiredQuantity"`
	LotManaged       bool    `bson:"lotManaged" json:"lotManaged"`
	SerialManaged    bool    `bson:"serialManaged" json:"serialManaged"`
	CheckDigit       string  `bson:"checkDigit,omitempty" json:"checkDigit,omitempty"`
	SystemQuantity   int     `bson:"systemQuantity,omitempty" json:"systemQuantity,omitempty"`
	UnitValue        float64 `bson:"unitValue,omitempty" json:"unitValue,omitempty"`
}

// Validate checks the fields the sequencer depends on
func (r ListRow) Validate() error {
	switch {
	case strings.TrimSpace(r.ID) == "":
		return fmt.Errorf("%w: row id is required", ErrInvalidRow)
	case strings.TrimSpace(r.ItemCode) == "":
		return fmt.Errorf("%w: row %s has no item code", ErrInvalidRow, r.ID)
	case r.RequiredQuantity < 0:
		return fmt.Errorf("%w: row %s has negative required quantity", ErrInvalidRow, r.ID)
	}
	return nil
}

// ExecutionList is an ordered list of rows with a cursor. Only the progression
// controller moves the cursor.
type ExecutionList struct {
	ID        string
	Operation Operation
	Rows      []ListRow
	Cursor    int
	Completed bool
	StartedAt time.Time

	committed map[string]bool
}

// NewExecutionList validates rows and positions the cursor on the first one
func NewExecutionList(id string, op Operation, rows []ListRow) (*ExecutionList, error) {
	if _, err := ParseOperation(string(op)); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrEmptyList
	}
	for _, row := range rows {
		if err := row.Validate(); err != nil {
			return nil, err
		}
	}

	copied := make([]ListRow, len(rows))
	copy(copied, rows)

	return &ExecutionList{
		ID:        id,
		Operation: op,
		Rows:      copied,
		StartedAt: time.Now().UTC(),
		committed: make(map[string]bool),
	}, nil
}

// Current returns the row under the cursor
func (l *ExecutionList) Current() ListRow {
	return l.Rows[l.Cursor]
}

// IsLast reports whether the cursor is on the last row
func (l *ExecutionList) IsLast() bool {
	return l.Cursor == len(l.Rows)-1
}

// Next moves the cursor forward one row
func (l *ExecutionList) Next() error {
	if l.IsLast() {
		return ErrNoNextRow
	}
	l.Cursor++
	return nil
}

// Previous moves the cursor back one row
func (l *ExecutionList) Previous() error {
	if l.Cursor == 0 {
		return ErrNoPreviousRow
	}
	l.Cursor--
	return nil
}

// MarkCommitted records that the current row's result was accepted by the sink
func (l *ExecutionList) MarkCommitted() {
	l.committed[l.Current().ID] = true
}

// IsCommitted reports whether a row was already committed
func (l *ExecutionList) IsCommitted(rowID string) bool {
	return l.committed[rowID]
}

// Progress summarises committed rows
func (l *ExecutionList) Progress() Progress {
	return NewProgress(l.ID, len(l.Rows), len(l.committed))
}

// Progress is the completion state of a list
type Progress struct {
	ListID        string  `json:"listId"`
	TotalRows     int     `json:"totalRows"`
	CompletedRows int     `json:"completedRows"`
	Percent       float64 `json:"percent"`
}

// NewProgress computes the percent complete, rounded to one decimal
func NewProgress(listID string, total, completed int) Progress {
	p := Progress{ListID: listID, TotalRows: total, CompletedRows: completed}
	if total > 0 {
		p.Percent = float64(int(float64(completed)/float64(total)*1000+0.5)) / 10
	}
	return p
}

package domain

import "time"

// PickResult is the immutable record of one picked row
type PickResult struct {
	ExecutionID      string    `json:"executionId"`
	ListID           string    `json:"listId"`
	RowID            string    `json:"rowId"`
	ItemID           string    `json:"itemId"`
	Quantity         int       `json:"quantity"`
	RequiredQuantity int       `json:"requiredQuantity"`
	Lot              string    `json:"lot,omitempty"`
	SerialNumber     string    `json:"serialNumber,omitempty"`
	SourceLocationID string    `json:"sourceLocationId"`
	UserName         string    `json:"userName"`
	Timestamp        time.Time `json:"timestamp"`
}

func (r PickResult) EventType() string    { return "wms.execution.pick-row-committed" }
func (r PickResult) OccurredAt() time.Time { return r.Timestamp }

// InventoryResult is the immutable record of one counted row
type InventoryResult struct {
	ExecutionID    string      `json:"executionId"`
	ListID         string      `json:"listId"`
	RowID          string      `json:"rowId"`
	ItemID         string      `json:"itemId"`
	LocationID     string      `json:"locationId"`
	Quantity       int         `json:"quantity"`
	SystemQuantity int         `json:"systemQuantity"`
	Lot            string      `json:"lot,omitempty"`
	SerialNumber   string      `json:"serialNumber,omitempty"`
	UserName       string      `json:"userName"`
	Timestamp      time.Time   `json:"timestamp"`
	Discrepancy    Discrepancy `json:"discrepancy"`
}

func (r InventoryResult) EventType() string    { return "wms.execution.inventory-row-committed" }
func (r InventoryResult) OccurredAt() time.Time { return r.Timestamp }

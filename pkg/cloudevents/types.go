package cloudevents

import (
	"time"
)

// Event types emitted by the execution service
const (
	PickRowCommitted      = "wms.execution.pick-row-committed"
	InventoryRowCommitted = "wms.execution.inventory-row-committed"
	ListCompleted         = "wms.execution.list-completed"
	ExecutionCancelled    = "wms.execution.cancelled"
)

// SourceExecution is the CloudEvents source of this service
const SourceExecution = "/wms/execution-service"

// WMSCloudEvent represents a CloudEvents v1.0 compliant event for WMS
type WMSCloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	Type            string      `json:"type"`
	Source          string      `json:"source"`
	Subject         string      `json:"subject,omitempty"`
	ID              string      `json:"id"`
	Time            time.Time   `json:"time"`
	DataContentType string      `json:"datacontenttype"`
	Data            interface{} `json:"data"`

	// WMS-specific extensions
	CorrelationID string `json:"wmscorrelationid,omitempty"`
	WorkflowID    string `json:"wmsworkflowid,omitempty"`
	TraceParent   string `json:"traceparent,omitempty"`
}

// PickRowCommittedData is the payload of PickRowCommitted
type PickRowCommittedData struct {
	ExecutionID      string `json:"executionId"`
	ListID           string `json:"listId"`
	RowID            string `json:"rowId"`
	ItemID           string `json:"itemId"`
	Quantity         int    `json:"quantity"`
	RequiredQuantity int    `json:"requiredQuantity"`
	Lot              string `json:"lot,omitempty"`
	SerialNumber     string `json:"serialNumber,omitempty"`
	SourceLocationID string `json:"sourceLocationId"`
	UserName         string `json:"userName"`
}

// InventoryRowCommittedData is the payload of InventoryRowCommitted
type InventoryRowCommittedData struct {
	ExecutionID           string  `json:"executionId"`
	ListID                string  `json:"listId"`
	RowID                 string  `json:"rowId"`
	ItemID                string  `json:"itemId"`
	LocationID            string  `json:"locationId"`
	Quantity              int     `json:"quantity"`
	SystemQuantity        int     `json:"systemQuantity"`
	Difference            int     `json:"difference"`
	DifferencePercent     float64 `json:"differencePercent"`
	RequiresRecount       bool    `json:"requiresRecount"`
	RequiresAuthorization bool    `json:"requiresAuthorization"`
	UserName              string  `json:"userName"`
}

// ListCompletedData is the payload of ListCompleted
type ListCompletedData struct {
	ExecutionID string `json:"executionId"`
	ListID      string `json:"listId"`
	Operation   string `json:"operation"`
	Rows        int    `json:"rows"`
	UserName    string `json:"userName"`
}

// ExecutionCancelledData is the payload of ExecutionCancelled
type ExecutionCancelledData struct {
	ExecutionID string `json:"executionId"`
	ListID      string `json:"listId"`
	RowID       string `json:"rowId"`
	Step        string `json:"step"`
	UserName    string `json:"userName"`
}

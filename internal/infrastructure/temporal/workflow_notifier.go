package temporal

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/client"

	"github.com/wms-platform/execution-service/internal/domain"
	"github.com/wms-platform/execution-service/pkg/logging"
	"github.com/wms-platform/execution-service/pkg/metrics"
)

// PickCompletedSignal is the signal the picking workflow waits on
const PickCompletedSignal = "pickCompleted"

// PickedItem is one committed pick row as the picking workflow expects it
type PickedItem struct {
	SKU        string `json:"sku"`
	Quantity   int    `json:"quantity"`
	LocationID string `json:"locationId"`
	ToteID     string `json:"toteId"`
}

// PickCompletedPayload is the signal argument
type PickCompletedPayload struct {
	PickedItems []PickedItem `json:"pickedItems"`
}

// WorkflowNotifier tells the owning picking workflow that a list has been picked
type WorkflowNotifier struct {
	client  client.Client
	logger  *logging.Logger
	metrics *metrics.Metrics
}

func NewWorkflowNotifier(c client.Client, logger *logging.Logger, m *metrics.Metrics) *WorkflowNotifier {
	return &WorkflowNotifier{
		client:  c,
		logger:  logger.WithComponent("workflow-notifier"),
		metrics: m,
	}
}

// WorkflowID returns the picking workflow id for a list
func WorkflowID(listID string) string {
	return fmt.Sprintf("picking-%s", listID)
}

// ListCompleted signals pickCompleted. Inventory lists have no workflow and are ignored.
func (n *WorkflowNotifier) ListCompleted(ctx context.Context, event *domain.ListCompletedEvent) error {
	if event.Operation != domain.OperationPicking {
		return nil
	}

	payload := PickCompletedPayload{PickedItems: make([]PickedItem, 0, len(event.Picked))}
	for _, p := range event.Picked {
		payload.PickedItems = append(payload.PickedItems, PickedItem{
			SKU:        p.ItemID,
			Quantity:   p.Quantity,
			LocationID: p.SourceLocationID,
		})
	}

	workflowID := WorkflowID(event.ListID)
	err := n.client.SignalWorkflow(ctx, workflowID, "", PickCompletedSignal, payload)
	n.metrics.RecordWorkflowSignal(PickCompletedSignal, err == nil)
	if err != nil {
		n.logger.WithError(err).Warn("Failed to signal picking workflow", "workflowId", workflowID)
		return fmt.Errorf("failed to signal workflow %s: %w", workflowID, err)
	}

	n.logger.Info("Signalled picking workflow",
		"workflowId", workflowID,
		"executionId", event.ExecutionID,
		"items", len(payload.PickedItems),
	)
	return nil
}

// ExecutionCancelled leaves the workflow waiting; a new execution can still finish the list.
func (n *WorkflowNotifier) ExecutionCancelled(ctx context.Context, event *domain.ExecutionCancelledEvent) error {
	n.logger.Debug("Execution cancelled, workflow not signalled",
		"workflowId", WorkflowID(event.ListID),
		"executionId", event.ExecutionID,
	)
	return nil
}

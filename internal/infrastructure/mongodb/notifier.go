package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/wms-platform/execution-service/internal/domain"
	"github.com/wms-platform/execution-service/pkg/cloudevents"
	"github.com/wms-platform/execution-service/pkg/kafka"
	"github.com/wms-platform/execution-service/pkg/outbox"
	outboxMongo "github.com/wms-platform/execution-service/pkg/outbox/mongodb"
)

// OutboxNotifier records list lifecycle events in the outbox and marks
// completed lists
type OutboxNotifier struct {
	lists        *mongo.Collection
	outboxRepo   *outboxMongo.OutboxRepository
	eventFactory *cloudevents.EventFactory
	tx           transactor
}

func NewOutboxNotifier(db *mongo.Database, eventFactory *cloudevents.EventFactory) *OutboxNotifier {
	return &OutboxNotifier{
		lists:        db.Collection(listsCollection),
		outboxRepo:   outboxMongo.NewOutboxRepository(db),
		eventFactory: eventFactory,
		tx:           clientTransactor{client: db.Client()},
	}
}

// ListCompleted marks the list completed and queues the completion event
func (n *OutboxNotifier) ListCompleted(ctx context.Context, event *domain.ListCompletedEvent) error {
	data := cloudevents.ListCompletedData{
		ExecutionID: event.ExecutionID,
		ListID:      event.ListID,
		Operation:   string(event.Operation),
		Rows:        event.Rows,
		UserName:    event.UserName,
	}

	return n.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		update := bson.M{"$set": bson.M{"status": "completed", "completedAt": event.CompletedAt}}
		if _, err := n.lists.UpdateOne(txCtx, bson.M{"listId": event.ListID}, update); err != nil {
			return fmt.Errorf("failed to mark list completed: %w", err)
		}
		return n.enqueue(txCtx, event.ListID, event.EventType(), data)
	})
}

// ExecutionCancelled queues the cancellation event
func (n *OutboxNotifier) ExecutionCancelled(ctx context.Context, event *domain.ExecutionCancelledEvent) error {
	data := cloudevents.ExecutionCancelledData{
		ExecutionID: event.ExecutionID,
		ListID:      event.ListID,
		RowID:       event.RowID,
		Step:        string(event.Step),
		UserName:    event.UserName,
	}
	return n.enqueue(ctx, event.ListID, event.EventType(), data)
}

func (n *OutboxNotifier) enqueue(ctx context.Context, listID, eventType string, data interface{}) error {
	event := n.eventFactory.CreateEvent(ctx, eventType, "list/"+listID, data)
	outboxEvent, err := outbox.NewOutboxEventFromCloudEvent(listID, "ExecutionList", kafka.Topics.ExecutionEvents, event)
	if err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	if err := n.outboxRepo.SaveAll(ctx, []*outbox.OutboxEvent{outboxEvent}); err != nil {
		return fmt.Errorf("failed to save outbox events: %w", err)
	}
	return nil
}

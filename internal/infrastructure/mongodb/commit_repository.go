package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/execution-service/internal/domain"
	"github.com/wms-platform/execution-service/pkg/cloudevents"
	"github.com/wms-platform/execution-service/pkg/kafka"
	"github.com/wms-platform/execution-service/pkg/metrics"
	"github.com/wms-platform/execution-service/pkg/outbox"
	outboxMongo "github.com/wms-platform/execution-service/pkg/outbox/mongodb"
)

type pickResultDocument struct {
	ExecutionID      string    `bson:"executionId"`
	ListID           string    `bson:"listId"`
	RowID            string    `bson:"rowId"`
	ItemID           string    `bson:"itemId"`
	Quantity         int       `bson:"quantity"`
	RequiredQuantity int       `bson:"requiredQuantity"`
	Lot              string    `bson:"lot,omitempty"`
	SerialNumber     string    `bson:"serialNumber,omitempty"`
	SourceLocationID string    `bson:"sourceLocationId"`
	UserName         string    `bson:"userName"`
	Timestamp        time.Time `bson:"timestamp"`
}

type inventoryCountDocument struct {
	ExecutionID    string             `bson:"executionId"`
	ListID         string             `bson:"listId"`
	RowID          string             `bson:"rowId"`
	ItemID         string             `bson:"itemId"`
	LocationID     string             `bson:"locationId"`
	Quantity       int                `bson:"quantity"`
	SystemQuantity int                `bson:"systemQuantity"`
	Lot            string             `bson:"lot,omitempty"`
	SerialNumber   string             `bson:"serialNumber,omitempty"`
	UserName       string             `bson:"userName"`
	Timestamp      time.Time          `bson:"timestamp"`
	Discrepancy    domain.Discrepancy `bson:"discrepancy"`
}

// CommitRepository stores row results together with their outbox events
type CommitRepository struct {
	picks        *mongo.Collection
	counts       *mongo.Collection
	outboxRepo   *outboxMongo.OutboxRepository
	eventFactory *cloudevents.EventFactory
	tx           transactor
	metrics      *metrics.Metrics
}

// NewCommitRepository creates a CommitRepository. m may be nil.
func NewCommitRepository(db *mongo.Database, eventFactory *cloudevents.EventFactory, m *metrics.Metrics) *CommitRepository {
	return &CommitRepository{
		picks:        db.Collection(pickResultsCollection),
		counts:       db.Collection(inventoryCountsCollection),
		outboxRepo:   outboxMongo.NewOutboxRepository(db),
		eventFactory: eventFactory,
		tx:           clientTransactor{client: db.Client()},
		metrics:      m,
	}
}

// EnsureIndexes makes one result per execution row and indexes results by list
func (r *CommitRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "executionId", Value: 1}, {Key: "rowId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "listId", Value: 1}}},
	}
	for _, coll := range []*mongo.Collection{r.picks, r.counts} {
		if _, err := coll.Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll.Name(), err)
		}
	}
	return r.outboxRepo.EnsureIndexes(ctx)
}

// CommitPick stores a pick result. Re-committing the same execution row
// overwrites it, so a retried commit does not duplicate the pick.
func (r *CommitRepository) CommitPick(ctx context.Context, result domain.PickResult) error {
	doc := pickResultDocument{
		ExecutionID:      result.ExecutionID,
		ListID:           result.ListID,
		RowID:            result.RowID,
		ItemID:           result.ItemID,
		Quantity:         result.Quantity,
		RequiredQuantity: result.RequiredQuantity,
		Lot:              result.Lot,
		SerialNumber:     result.SerialNumber,
		SourceLocationID: result.SourceLocationID,
		UserName:         result.UserName,
		Timestamp:        result.Timestamp,
	}
	data := cloudevents.PickRowCommittedData{
		ExecutionID:      result.ExecutionID,
		ListID:           result.ListID,
		RowID:            result.RowID,
		ItemID:           result.ItemID,
		Quantity:         result.Quantity,
		RequiredQuantity: result.RequiredQuantity,
		Lot:              result.Lot,
		SerialNumber:     result.SerialNumber,
		SourceLocationID: result.SourceLocationID,
		UserName:         result.UserName,
	}
	return r.commit(ctx, r.picks, result.ExecutionID, result.RowID, doc, result.EventType(), result.ListID, data)
}

// CommitInventoryCount stores an inventory count with its discrepancy
func (r *CommitRepository) CommitInventoryCount(ctx context.Context, result domain.InventoryResult) error {
	doc := inventoryCountDocument{
		ExecutionID:    result.ExecutionID,
		ListID:         result.ListID,
		RowID:          result.RowID,
		ItemID:         result.ItemID,
		LocationID:     result.LocationID,
		Quantity:       result.Quantity,
		SystemQuantity: result.SystemQuantity,
		Lot:            result.Lot,
		SerialNumber:   result.SerialNumber,
		UserName:       result.UserName,
		Timestamp:      result.Timestamp,
		Discrepancy:    result.Discrepancy,
	}
	data := cloudevents.InventoryRowCommittedData{
		ExecutionID:           result.ExecutionID,
		ListID:                result.ListID,
		RowID:                 result.RowID,
		ItemID:                result.ItemID,
		LocationID:            result.LocationID,
		Quantity:              result.Quantity,
		SystemQuantity:        result.SystemQuantity,
		Difference:            result.Discrepancy.Difference,
		DifferencePercent:     result.Discrepancy.Percent,
		RequiresRecount:       result.Discrepancy.RequiresRecount,
		RequiresAuthorization: result.Discrepancy.RequiresAuthorization,
		UserName:              result.UserName,
	}
	return r.commit(ctx, r.counts, result.ExecutionID, result.RowID, doc, result.EventType(), result.ListID, data)
}

func (r *CommitRepository) commit(
	ctx context.Context,
	coll *mongo.Collection,
	executionID, rowID string,
	doc interface{},
	eventType, listID string,
	data interface{},
) error {
	start := time.Now()
	err := r.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		filter := bson.M{"executionId": executionID, "rowId": rowID}
		opts := options.Replace().SetUpsert(true)
		if _, err := coll.ReplaceOne(txCtx, filter, doc, opts); err != nil {
			return fmt.Errorf("failed to save result: %w", err)
		}

		event := r.eventFactory.CreateEvent(txCtx, eventType, "list/"+listID+"/row/"+rowID, data)
		outboxEvent, err := outbox.NewOutboxEventFromCloudEvent(listID, "ExecutionList", kafka.Topics.ExecutionEvents, event)
		if err != nil {
			return fmt.Errorf("failed to create outbox event: %w", err)
		}
		if err := r.outboxRepo.SaveAll(txCtx, []*outbox.OutboxEvent{outboxEvent}); err != nil {
			return fmt.Errorf("failed to save outbox events: %w", err)
		}
		return nil
	})
	observe(r.metrics, coll.Name(), "commit", start, err)
	return err
}

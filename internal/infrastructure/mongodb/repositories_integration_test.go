//go:build integration

package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/wms-platform/execution-service/internal/domain"
	"github.com/wms-platform/execution-service/pkg/cloudevents"
	outboxMongo "github.com/wms-platform/execution-service/pkg/outbox/mongodb"
	wmstesting "github.com/wms-platform/execution-service/pkg/testing"
)

func TestCommitRepository_Integration(t *testing.T) {
	ctx := context.Background()

	container, err := wmstesting.NewMongoDBContainer(ctx)
	require.NoError(t, err)
	defer container.Close(ctx)

	client, err := container.GetClient(ctx)
	require.NoError(t, err)
	defer client.Disconnect(ctx)

	db := client.Database("execution_test")
	factory := cloudevents.NewEventFactory(cloudevents.SourceExecution)

	lists := NewListRepository(db, nil)
	commits := NewCommitRepository(db, factory, nil)
	require.NoError(t, lists.EnsureIndexes(ctx))
	require.NoError(t, commits.EnsureIndexes(ctx))

	_, err = db.Collection(listsCollection).InsertOne(ctx, listDoc())
	require.NoError(t, err)

	op, rows, err := lists.FetchRows(ctx, "LIST-001")
	require.NoError(t, err)
	assert.Equal(t, domain.OperationPicking, op)
	require.Len(t, rows, 2)

	result := domain.PickResult{
		ExecutionID: "EXE-001",
		ListID:      "LIST-001",
		RowID:       "ROW-001",
		ItemID:      "ITEM-001",
		Quantity:    10,
		Lot:         "LOT-1",
		Timestamp:   time.Now().UTC(),
	}
	require.NoError(t, commits.CommitPick(ctx, result))
	// a retried commit replaces the first one
	require.NoError(t, commits.CommitPick(ctx, result))

	count, err := db.Collection(pickResultsCollection).CountDocuments(ctx, bson.M{"listId": "LIST-001"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	progress, err := lists.FetchProgress(ctx, "LIST-001")
	require.NoError(t, err)
	assert.Equal(t, 50.0, progress.Percent)

	pending, err := outboxMongo.NewOutboxRepository(db).FindUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
	assert.Equal(t, cloudevents.PickRowCommitted, pending[0].EventType)

	notifier := NewOutboxNotifier(db, factory)
	require.NoError(t, notifier.ListCompleted(ctx, &domain.ListCompletedEvent{
		ExecutionID: "EXE-001",
		ListID:      "LIST-001",
		Operation:   domain.OperationPicking,
		Rows:        2,
		CompletedAt: time.Now().UTC(),
	}))

	var doc listDocument
	require.NoError(t, db.Collection(listsCollection).FindOne(ctx, bson.M{"listId": "LIST-001"}).Decode(&doc))
	assert.Equal(t, "completed", doc.Status)
}

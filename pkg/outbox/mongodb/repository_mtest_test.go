package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/wms-platform/execution-service/pkg/outbox"
)

func TestOutboxRepository_MockOps(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("save find mark retry", func(mt *mtest.T) {
		repo := NewOutboxRepository(mt.DB)
		ctx := context.Background()
		ns := mt.DB.Name() + "." + DefaultCollectionName

		require.NoError(t, repo.SaveAll(ctx, nil))

		mt.AddMockResponses(mtest.CreateSuccessResponse())
		err := repo.SaveAll(ctx, []*outbox.OutboxEvent{
			{ID: "evt-1", AggregateID: "LIST-1", EventType: "wms.execution.list-completed", CreatedAt: time.Now()},
		})
		require.NoError(t, err)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "evt-1"},
			{Key: "aggregateId", Value: "LIST-1"},
			{Key: "eventType", Value: "wms.execution.list-completed"},
			{Key: "retryCount", Value: 2},
		}))
		events, err := repo.FindUnpublished(ctx, 10)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "evt-1", events[0].ID)
		assert.Equal(t, 2, events[0].RetryCount)

		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 1}, {Key: "nModified", Value: 1}})
		require.NoError(t, repo.MarkPublished(ctx, "evt-1"))

		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 0}, {Key: "nModified", Value: 0}})
		err = repo.IncrementRetry(ctx, "missing", "boom")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	mt.Run("ensure indexes", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		require.NoError(t, NewOutboxRepository(mt.DB).EnsureIndexes(context.Background()))
	})
}

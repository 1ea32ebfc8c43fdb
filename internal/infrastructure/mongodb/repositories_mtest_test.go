package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/wms-platform/execution-service/internal/domain"
	"github.com/wms-platform/execution-service/pkg/cloudevents"
)

// passthroughTx runs fn without a session; mtest mock clients do not
// support transactions
type passthroughTx struct {
	calls int
}

func (p *passthroughTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	p.calls++
	return fn(ctx)
}

func listDoc() bson.D {
	return bson.D{
		{Key: "listId", Value: "LIST-001"},
		{Key: "operation", Value: "picking"},
		{Key: "rows", Value: bson.A{
			bson.D{
				{Key: "rowId", Value: "ROW-001"},
				{Key: "itemId", Value: "ITEM-001"},
				{Key: "itemCode", Value: "8001234567890"},
				{Key: "locationCode", Value: "A-12-05"},
				{Key: "requiredQuantity", Value: 10},
				{Key: "lotManaged", Value: true},
			},
			bson.D{
				{Key: "rowId", Value: "ROW-002"},
				{Key: "itemId", Value: "ITEM-002"},
				{Key: "itemCode", Value: "8009876543210"},
				{Key: "locationCode", Value: "B-03-07"},
				{Key: "requiredQuantity", Value: 4},
			},
		}},
	}
}

func TestListRepository_MockOps(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("fetch rows", func(mt *mtest.T) {
		repo := NewListRepository(mt.DB, nil)
		ns := mt.DB.Name() + "." + listsCollection

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, listDoc()))
		op, rows, err := repo.FetchRows(context.Background(), "LIST-001")
		require.NoError(t, err)
		assert.Equal(t, domain.OperationPicking, op)
		require.Len(t, rows, 2)
		assert.Equal(t, "A-12-05", rows[0].LocationCode)
		assert.True(t, rows[0].LotManaged)
		assert.Equal(t, 4, rows[1].RequiredQuantity)
	})

	mt.Run("list not found", func(mt *mtest.T) {
		repo := NewListRepository(mt.DB, nil)
		ns := mt.DB.Name() + "." + listsCollection

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		_, _, err := repo.FetchRows(context.Background(), "LIST-404")
		assert.ErrorIs(t, err, domain.ErrListNotFound)
	})

	mt.Run("fetch progress", func(mt *mtest.T) {
		repo := NewListRepository(mt.DB, nil)
		ns := mt.DB.Name() + "." + listsCollection

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, listDoc()),
			bson.D{{Key: "ok", Value: 1}, {Key: "values", Value: bson.A{"ROW-001"}}},
		)
		progress, err := repo.FetchProgress(context.Background(), "LIST-001")
		require.NoError(t, err)
		assert.Equal(t, 2, progress.TotalRows)
		assert.Equal(t, 1, progress.CompletedRows)
		assert.Equal(t, 50.0, progress.Percent)
	})

	mt.Run("ensure indexes", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		require.NoError(t, NewListRepository(mt.DB, nil).EnsureIndexes(context.Background()))
	})
}

func TestCommitRepository_MockOps(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	factory := cloudevents.NewEventFactory(cloudevents.SourceExecution)

	mt.Run("commit pick", func(mt *mtest.T) {
		tx := &passthroughTx{}
		repo := NewCommitRepository(mt.DB, factory, nil)
		repo.tx = tx

		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(),
		)
		err := repo.CommitPick(context.Background(), domain.PickResult{
			ExecutionID: "EXE-001",
			ListID:      "LIST-001",
			RowID:       "ROW-001",
			ItemID:      "ITEM-001",
			Quantity:    7,
			Timestamp:   time.Now(),
		})
		require.NoError(t, err)
		assert.Equal(t, 1, tx.calls)
	})

	mt.Run("commit inventory count", func(mt *mtest.T) {
		repo := NewCommitRepository(mt.DB, factory, nil)
		repo.tx = &passthroughTx{}

		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(),
		)
		err := repo.CommitInventoryCount(context.Background(), domain.InventoryResult{
			ExecutionID:    "EXE-002",
			ListID:         "INV-001",
			RowID:          "ROW-001",
			Quantity:       12,
			SystemQuantity: 10,
			Discrepancy:    domain.EvaluateDiscrepancy(12, 10, 1),
		})
		require.NoError(t, err)
	})

	mt.Run("write error fails the commit", func(mt *mtest.T) {
		repo := NewCommitRepository(mt.DB, factory, nil)
		repo.tx = &passthroughTx{}

		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))
		err := repo.CommitPick(context.Background(), domain.PickResult{ExecutionID: "EXE-001", RowID: "ROW-001"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to save result")
	})
}

func TestOutboxNotifier_MockOps(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	factory := cloudevents.NewEventFactory(cloudevents.SourceExecution)

	mt.Run("list completed", func(mt *mtest.T) {
		n := NewOutboxNotifier(mt.DB, factory)
		n.tx = &passthroughTx{}

		mt.AddMockResponses(
			bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 1}, {Key: "nModified", Value: 1}},
			mtest.CreateSuccessResponse(),
		)
		err := n.ListCompleted(context.Background(), &domain.ListCompletedEvent{
			ExecutionID: "EXE-001",
			ListID:      "LIST-001",
			Operation:   domain.OperationPicking,
			Rows:        2,
			CompletedAt: time.Now(),
		})
		require.NoError(t, err)
	})

	mt.Run("execution cancelled", func(mt *mtest.T) {
		n := NewOutboxNotifier(mt.DB, factory)

		mt.AddMockResponses(mtest.CreateSuccessResponse())
		err := n.ExecutionCancelled(context.Background(), &domain.ExecutionCancelledEvent{
			ExecutionID: "EXE-001",
			ListID:      "LIST-001",
			Step:        domain.StepConfirmItem,
		})
		require.NoError(t, err)
	})
}

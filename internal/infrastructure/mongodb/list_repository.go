package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/execution-service/internal/domain"
	"github.com/wms-platform/execution-service/pkg/metrics"
)

const (
	listsCollection           = "execution_lists"
	pickResultsCollection     = "pick_results"
	inventoryCountsCollection = "inventory_counts"
)

// listDocument is a picking or inventory list as stored by the list owner
type listDocument struct {
	ListID      string           `bson:"listId"`
	Operation   domain.Operation `bson:"operation"`
	Status      string           `bson:"status,omitempty"`
	Rows        []domain.ListRow `bson:"rows"`
	CompletedAt *time.Time       `bson:"completedAt,omitempty"`
}

// ListRepository reads execution lists and their progress
type ListRepository struct {
	lists   *mongo.Collection
	picks   *mongo.Collection
	counts  *mongo.Collection
	metrics *metrics.Metrics
}

// NewListRepository creates a ListRepository. m may be nil.
func NewListRepository(db *mongo.Database, m *metrics.Metrics) *ListRepository {
	return &ListRepository{
		lists:   db.Collection(listsCollection),
		picks:   db.Collection(pickResultsCollection),
		counts:  db.Collection(inventoryCountsCollection),
		metrics: m,
	}
}

// EnsureIndexes creates the list lookup index
func (r *ListRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.lists.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "listId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// FetchRows loads the operation and rows of a list
func (r *ListRepository) FetchRows(ctx context.Context, listID string) (domain.Operation, []domain.ListRow, error) {
	doc, err := r.find(ctx, listID)
	if err != nil {
		return "", nil, err
	}
	return doc.Operation, doc.Rows, nil
}

// FetchProgress counts distinct committed rows against the list size
func (r *ListRepository) FetchProgress(ctx context.Context, listID string) (domain.Progress, error) {
	projection := options.FindOne().SetProjection(bson.M{"listId": 1, "operation": 1, "rows.rowId": 1})
	doc, err := r.find(ctx, listID, projection)
	if err != nil {
		return domain.Progress{}, err
	}

	results := r.picks
	if doc.Operation == domain.OperationInventory {
		results = r.counts
	}

	start := time.Now()
	committed, err := results.Distinct(ctx, "rowId", bson.M{"listId": listID})
	observe(r.metrics, results.Name(), "distinct", start, err)
	if err != nil {
		return domain.Progress{}, fmt.Errorf("failed to count committed rows: %w", err)
	}

	return domain.NewProgress(listID, len(doc.Rows), len(committed)), nil
}

func (r *ListRepository) find(ctx context.Context, listID string, opts ...*options.FindOneOptions) (*listDocument, error) {
	start := time.Now()
	var doc listDocument
	err := r.lists.FindOne(ctx, bson.M{"listId": listID}, opts...).Decode(&doc)
	observe(r.metrics, listsCollection, "find", start, err)

	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", domain.ErrListNotFound, listID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load list %s: %w", listID, err)
	}
	return &doc, nil
}

package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/wms-platform/execution-service/pkg/metrics"
)

// transactor runs fn inside a multi-document transaction
type transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type clientTransactor struct {
	client *mongo.Client
}

func (t clientTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := t.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}

// observe records a MongoDB operation when metrics are configured
func observe(m *metrics.Metrics, collection, operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.RecordMongoDBOperation(collection, operation, err == nil, time.Since(start))
}

package application

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wms-platform/execution-service/internal/domain"
	"github.com/wms-platform/execution-service/internal/voice"
	"github.com/wms-platform/execution-service/pkg/logging"
	"github.com/wms-platform/execution-service/pkg/metrics"
)

type fakeSink struct {
	mu          sync.Mutex
	picks       []domain.PickResult
	counts      []domain.InventoryResult
	commitErr   error
	commitCalls int
}

func (f *fakeSink) CommitPick(ctx context.Context, result domain.PickResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commitCalls++
	if f.commitErr != nil {
		return f.commitErr
	}
	f.picks = append(f.picks, result)
	return nil
}

func (f *fakeSink) CommitInventoryCount(ctx context.Context, result domain.InventoryResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commitCalls++
	if f.commitErr != nil {
		return f.commitErr
	}
	f.counts = append(f.counts, result)
	return nil
}

func (f *fakeSink) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commitErr = err
}

type fakeSource struct {
	fetchRowsFn     func(ctx context.Context, listID string) (domain.Operation, []domain.ListRow, error)
	fetchProgressFn func(ctx context.Context, listID string) (domain.Progress, error)
}

func (f *fakeSource) FetchRows(ctx context.Context, listID string) (domain.Operation, []domain.ListRow, error) {
	return f.fetchRowsFn(ctx, listID)
}

func (f *fakeSource) FetchProgress(ctx context.Context, listID string) (domain.Progress, error) {
	return f.fetchProgressFn(ctx, listID)
}

type fakeNotifier struct {
	mu        sync.Mutex
	completed []*domain.ListCompletedEvent
	cancelled []*domain.ExecutionCancelledEvent
}

func (f *fakeNotifier) ListCompleted(ctx context.Context, event *domain.ListCompletedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, event)
	return nil
}

func (f *fakeNotifier) ExecutionCancelled(ctx context.Context, event *domain.ExecutionCancelledEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, event)
	return nil
}

// Test fixtures
func createTestRows() []domain.ListRow {
	return []domain.ListRow{
		{
			ID:               "ROW-001",
			ItemID:           "ITEM-001",
			ItemCode:         "8001234567890",
			ItemDescription:  "Viti M6 inox",
			LocationID:       "LOC-A1205",
			LocationCode:     "A-12-05",
			RequiredQuantity: 10,
			SystemQuantity:   10,
			UnitValue:        2.5,
		},
		{
			ID:               "ROW-002",
			ItemID:           "ITEM-002",
			ItemCode:         "8009876543210",
			ItemDescription:  "Dadi M6",
			LocationID:       "LOC-B0307",
			LocationCode:     "B-03-07",
			RequiredQuantity: 4,
			SystemQuantity:   4,
			LotManaged:       true,
		},
	}
}

type callbackRecorder struct {
	picks     []int
	completed int
	cancelled int
	paused    int
	resumed   int
}

func (r *callbackRecorder) callbacks() Callbacks {
	return Callbacks{
		OnPickConfirmed: func(itemID string, quantity int) { r.picks = append(r.picks, quantity) },
		OnListCompleted: func() { r.completed++ },
		OnCancel:        func() { r.cancelled++ },
		OnPause:         func() { r.paused++ },
		OnResume:        func() { r.resumed++ },
	}
}

func newTestController(t *testing.T, op domain.Operation, sink domain.CommitSink, rec *callbackRecorder) *Controller {
	t.Helper()
	list, err := domain.NewExecutionList("LIST-001", op, createTestRows())
	require.NoError(t, err)

	lex, err := voice.LoadLexicon("it-IT")
	require.NoError(t, err)

	return NewController(list, sink, ControllerConfig{
		ExecutionID: "EXE-001",
		UserName:    "mrossi",
		Lexicon:     lex,
		Callbacks:   rec.callbacks(),
		Logger:      logging.NewNop(),
		Metrics:     metrics.New(metrics.DefaultConfig("execution-service-test")),
	})
}

// completeFirstRow walks ROW-001 (plain row, qty 10) to Done with qty
func completeFirstRow(t *testing.T, c *Controller, qty string) (Outcome, error) {
	t.Helper()
	ctx := context.Background()
	_, err := c.HandleInput(ctx, domain.Input{Kind: domain.InputCheckDigit, Value: "5"})
	require.NoError(t, err)
	_, err = c.HandleInput(ctx, domain.Input{Kind: domain.InputConfirm})
	require.NoError(t, err)
	return c.HandleInput(ctx, domain.Input{Kind: domain.InputSubmit, Value: qty})
}

package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/execution-service/internal/domain"
)

func TestControllerExactPickAdvancesRow(t *testing.T) {
	sink := &fakeSink{}
	rec := &callbackRecorder{}
	c := newTestController(t, domain.OperationPicking, sink, rec)

	outcome, err := completeFirstRow(t, c, "10")
	require.NoError(t, err)

	assert.True(t, outcome.RowCommitted)
	assert.False(t, outcome.ListCompleted)
	require.Len(t, sink.picks, 1)
	assert.Equal(t, 10, sink.picks[0].Quantity)
	assert.Equal(t, "LOC-A1205", sink.picks[0].SourceLocationID)
	assert.Equal(t, "mrossi", sink.picks[0].UserName)
	assert.Equal(t, []int{10}, rec.picks)

	snap := c.Snapshot()
	assert.Equal(t, 1, snap.Cursor)
	assert.Equal(t, "ROW-002", snap.Row.ID)
	assert.Equal(t, domain.StepScanLocation, snap.Step)
	assert.Equal(t, []domain.Step{domain.StepScanLocation}, snap.Session.Trace)
	assert.Equal(t, 50.0, snap.Progress.Percent)
}

func TestControllerShortPickWaitsForConfirm(t *testing.T) {
	sink := &fakeSink{}
	c := newTestController(t, domain.OperationPicking, sink, &callbackRecorder{})

	outcome, err := completeFirstRow(t, c, "7")
	require.NoError(t, err)
	assert.True(t, outcome.Mismatch)
	assert.Equal(t, domain.StepConfirm, outcome.Step)
	assert.Empty(t, sink.picks)
	assert.Contains(t, c.Snapshot().Feedback, "Quantità inserita: 7")

	outcome, err = c.HandleInput(context.Background(), domain.Input{Kind: domain.InputConfirm})
	require.NoError(t, err)
	assert.True(t, outcome.RowCommitted)
	require.Len(t, sink.picks, 1)
	assert.Equal(t, 7, sink.picks[0].Quantity)
	assert.Equal(t, 10, sink.picks[0].RequiredQuantity)
}

func TestControllerValidationErrorKeepsStep(t *testing.T) {
	c := newTestController(t, domain.OperationPicking, &fakeSink{}, &callbackRecorder{})

	_, err := c.HandleInput(context.Background(), domain.Input{Kind: domain.InputCheckDigit, Value: "3"})
	assert.ErrorIs(t, err, domain.ErrLocationMismatch)

	snap := c.Snapshot()
	assert.Equal(t, domain.StepScanLocation, snap.Step)
	assert.Equal(t, "location mismatch", snap.Feedback)
}

func TestControllerCommitFailureIsRetryable(t *testing.T) {
	sink := &fakeSink{commitErr: errors.New("connection refused")}
	rec := &callbackRecorder{}
	c := newTestController(t, domain.OperationPicking, sink, rec)

	_, err := completeFirstRow(t, c, "10")
	require.ErrorIs(t, err, domain.ErrCommitFailure)

	snap := c.Snapshot()
	assert.True(t, snap.CommitPending)
	assert.Equal(t, 0, snap.Cursor)
	assert.Equal(t, domain.StepDone, snap.Step)
	assert.Equal(t, 10, snap.Session.Quantity)
	assert.Empty(t, rec.picks)

	_, err = c.HandleInput(context.Background(), domain.Input{Kind: domain.InputSubmit, Value: "10"})
	assert.ErrorIs(t, err, domain.ErrUnexpectedInput)

	_, err = c.RetryCommit(context.Background())
	assert.ErrorIs(t, err, domain.ErrCommitFailure)

	sink.setErr(nil)
	outcome, err := c.HandleInput(context.Background(), domain.Input{Kind: domain.InputConfirm})
	require.NoError(t, err)
	assert.True(t, outcome.RowCommitted)
	assert.Equal(t, 3, sink.commitCalls)
	assert.Equal(t, []int{10}, rec.picks)

	_, err = c.RetryCommit(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoPendingCommit)
}

func TestControllerCompletesList(t *testing.T) {
	sink := &fakeSink{}
	rec := &callbackRecorder{}
	c := newTestController(t, domain.OperationPicking, sink, rec)
	ctx := context.Background()

	_, err := completeFirstRow(t, c, "10")
	require.NoError(t, err)
	assert.Nil(t, c.CompletionEvent())

	inputs := []domain.Input{
		{Kind: domain.InputSubmit, Value: "B-03-07"},
		{Kind: domain.InputSubmit, Value: "8009876543210"},
		{Kind: domain.InputSubmit, Value: "4"},
		{Kind: domain.InputSubmit, Value: "LOT-77"},
	}
	var outcome Outcome
	for _, in := range inputs {
		outcome, err = c.HandleInput(ctx, in)
		require.NoError(t, err)
	}

	assert.True(t, outcome.ListCompleted)
	assert.Equal(t, 1, rec.completed)
	assert.Equal(t, "LOT-77", sink.picks[1].Lot)

	event := c.CompletionEvent()
	require.NotNil(t, event)
	assert.Equal(t, "LIST-001", event.ListID)
	assert.Len(t, event.Picked, 2)

	snap := c.Snapshot()
	assert.True(t, snap.Completed)
	assert.Equal(t, 100.0, snap.Progress.Percent)

	_, err = c.HandleInput(ctx, domain.Input{Kind: domain.InputConfirm})
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
	assert.Equal(t, 1, rec.completed)
}

func TestControllerInventoryCount(t *testing.T) {
	sink := &fakeSink{}
	rec := &callbackRecorder{}
	c := newTestController(t, domain.OperationInventory, sink, rec)

	outcome, err := completeFirstRow(t, c, "14")
	require.NoError(t, err)
	assert.True(t, outcome.RowCommitted)

	require.Len(t, sink.counts, 1)
	count := sink.counts[0]
	assert.Equal(t, 14, count.Quantity)
	assert.Equal(t, 10, count.SystemQuantity)
	assert.Equal(t, 4, count.Discrepancy.Difference)
	assert.True(t, count.Discrepancy.RequiresRecount)
	assert.Empty(t, rec.picks)
}

func TestControllerNavigation(t *testing.T) {
	sink := &fakeSink{}
	c := newTestController(t, domain.OperationPicking, sink, &callbackRecorder{})
	ctx := context.Background()

	assert.ErrorIs(t, c.PreviousRow(), domain.ErrNoPreviousRow)

	_, err := c.HandleInput(ctx, domain.Input{Kind: domain.InputCheckDigit, Value: "5"})
	require.NoError(t, err)

	require.NoError(t, c.NextRow())
	snap := c.Snapshot()
	assert.Equal(t, "ROW-002", snap.Row.ID)
	assert.Equal(t, domain.StepScanLocation, snap.Step)
	assert.Empty(t, sink.picks)

	assert.ErrorIs(t, c.NextRow(), domain.ErrNoNextRow)
	require.NoError(t, c.PreviousRow())
	assert.Equal(t, "ROW-001", c.Snapshot().Row.ID)
}

func TestControllerCancel(t *testing.T) {
	rec := &callbackRecorder{}
	c := newTestController(t, domain.OperationPicking, &fakeSink{}, rec)

	_, err := c.HandleInput(context.Background(), domain.Input{Kind: domain.InputCheckDigit, Value: "5"})
	require.NoError(t, err)

	event, err := c.Cancel()
	require.NoError(t, err)
	assert.Equal(t, domain.StepConfirmItem, event.Step)
	assert.Equal(t, "ROW-001", event.RowID)
	assert.Equal(t, 1, rec.cancelled)

	_, err = c.Cancel()
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
	_, err = c.HandleInput(context.Background(), domain.Input{Kind: domain.InputConfirm})
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
	assert.Equal(t, 1, rec.cancelled)

	snap := c.Snapshot()
	assert.True(t, snap.Cancelled)
	assert.Equal(t, "Operazione annullata.", snap.Feedback)
}

func TestControllerPauseResume(t *testing.T) {
	rec := &callbackRecorder{}
	c := newTestController(t, domain.OperationPicking, &fakeSink{}, rec)

	require.NoError(t, c.Pause())
	require.NoError(t, c.Pause())
	assert.True(t, c.Snapshot().Paused)
	assert.Equal(t, 1, rec.paused)

	require.NoError(t, c.Resume())
	require.NoError(t, c.Resume())
	assert.False(t, c.Snapshot().Paused)
	assert.Equal(t, 1, rec.resumed)
}

package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wms-platform/execution-service/internal/domain"
	"github.com/wms-platform/execution-service/internal/voice"
	"github.com/wms-platform/execution-service/pkg/logging"
	"github.com/wms-platform/execution-service/pkg/metrics"
)

// Callbacks notify the operator surface. Each fires once per engine event and
// runs while the controller is locked, so it must not call back into it.
type Callbacks struct {
	OnPickConfirmed func(itemID string, quantity int)
	OnListCompleted func()
	OnCancel        func()
	OnPause         func()
	OnResume        func()
}

// Outcome describes what one input did
type Outcome struct {
	Step          domain.Step
	RowCommitted  bool
	ListCompleted bool
	// Mismatch is set while a short pick waits for its extra confirmation
	Mismatch bool
}

// ControllerConfig holds the identity and collaborators of one execution
type ControllerConfig struct {
	ExecutionID string
	UserName    string
	Lexicon     *voice.Lexicon
	Callbacks   Callbacks
	Logger      *logging.Logger
	Metrics     *metrics.Metrics
	Clock       func() time.Time
}

// Controller drives an execution list row by row. All methods are safe for
// concurrent use; inputs are applied one at a time.
type Controller struct {
	mu sync.Mutex

	executionID string
	userName    string
	list        *domain.ExecutionList
	seq         *domain.Sequencer
	sink        domain.CommitSink
	lexicon     *voice.Lexicon
	callbacks   Callbacks
	logger      *logging.Logger
	metrics     *metrics.Metrics
	clock       func() time.Time

	commitPending bool
	cancelled     bool
	paused        bool
	picked        []domain.PickResult
	completedAt   time.Time
}

// NewController positions a sequencer on the list's current row
func NewController(list *domain.ExecutionList, sink domain.CommitSink, cfg ControllerConfig) *Controller {
	if cfg.Clock == nil {
		cfg.Clock = func() time.Time { return time.Now().UTC() }
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New(metrics.DefaultConfig("execution-service"))
	}

	return &Controller{
		executionID: cfg.ExecutionID,
		userName:    cfg.UserName,
		list:        list,
		seq:         domain.NewSequencer(list.Operation, list.Current()),
		sink:        sink,
		lexicon:     cfg.Lexicon,
		callbacks:   cfg.Callbacks,
		logger:      cfg.Logger.WithExecution(cfg.ExecutionID, list.ID),
		metrics:     cfg.Metrics,
		clock:       cfg.Clock,
	}
}

func (c *Controller) ExecutionID() string { return c.executionID }

// HandleInput applies one operator input. When the row reaches Done its result
// is committed before the next row starts. A confirm while a commit is
// pending retries the commit.
func (c *Controller) HandleInput(ctx context.Context, in domain.Input) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkOpen(); err != nil {
		return Outcome{Step: c.seq.Step()}, err
	}

	if c.commitPending {
		if in.Kind != domain.InputConfirm {
			return Outcome{Step: c.seq.Step()}, domain.ErrUnexpectedInput
		}
		return c.commit(ctx)
	}

	from := c.seq.Step()
	err := c.seq.Apply(in)
	c.metrics.RecordStep(string(c.list.Operation), string(from), stepOutcome(err))
	if err != nil {
		return Outcome{Step: from}, err
	}

	to := c.seq.Step()
	c.logger.StepTransition(ctx, c.seq.Row().ID, string(from), string(to))

	if !c.seq.Done() {
		return Outcome{Step: to, Mismatch: c.seq.Session().PendingMismatch}, nil
	}

	c.commitPending = true
	return c.commit(ctx)
}

// RetryCommit re-issues a commit that failed
func (c *Controller) RetryCommit(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkOpen(); err != nil {
		return Outcome{Step: c.seq.Step()}, err
	}
	if !c.commitPending {
		return Outcome{Step: c.seq.Step()}, domain.ErrNoPendingCommit
	}
	return c.commit(ctx)
}

// commit must be called with c.mu held and a Done sequencer
func (c *Controller) commit(ctx context.Context) (Outcome, error) {
	row := c.seq.Row()
	session := c.seq.Session()
	op := c.list.Operation
	start := time.Now()

	var (
		err  error
		pick domain.PickResult
	)
	switch op {
	case domain.OperationPicking:
		pick = c.pickResult(row, session)
		err = c.sink.CommitPick(ctx, pick)
	case domain.OperationInventory:
		result := c.inventoryResult(row, session)
		err = c.sink.CommitInventoryCount(ctx, result)
		if err == nil && result.Discrepancy.HasDifference() {
			c.logger.Event(ctx, "inventory.discrepancy", map[string]any{
				"rowId":                 row.ID,
				"difference":            result.Discrepancy.Difference,
				"percent":               result.Discrepancy.Percent,
				"requiresRecount":       result.Discrepancy.RequiresRecount,
				"requiresAuthorization": result.Discrepancy.RequiresAuthorization,
			})
		}
	}
	c.metrics.RecordRowCommitted(string(op), err == nil, time.Since(start))

	if err != nil {
		c.logger.WithError(err).Warn("Row commit failed", "rowId", row.ID)
		return Outcome{Step: domain.StepDone}, fmt.Errorf("%w: %w", domain.ErrCommitFailure, err)
	}

	c.commitPending = false
	c.list.MarkCommitted()
	c.logger.Audit(ctx, "commit", string(op)+"_row", row.ID, c.userName, map[string]any{
		"itemId":   row.ItemID,
		"quantity": session.Quantity,
	})

	if op == domain.OperationPicking {
		c.picked = append(c.picked, pick)
		if c.callbacks.OnPickConfirmed != nil {
			c.callbacks.OnPickConfirmed(row.ItemID, session.Quantity)
		}
	}

	if c.list.IsLast() {
		c.list.Completed = true
		c.completedAt = c.clock()
		c.metrics.RecordListCompleted(string(op))
		c.logger.Event(ctx, "list.completed", map[string]any{"rows": len(c.list.Rows)})
		if c.callbacks.OnListCompleted != nil {
			c.callbacks.OnListCompleted()
		}
		return Outcome{Step: domain.StepDone, RowCommitted: true, ListCompleted: true}, nil
	}

	_ = c.list.Next()
	c.seq.Reset(c.list.Current())
	return Outcome{Step: c.seq.Step(), RowCommitted: true}, nil
}

func (c *Controller) pickResult(row domain.ListRow, session domain.ExecutionSession) domain.PickResult {
	return domain.PickResult{
		ExecutionID:      c.executionID,
		ListID:           c.list.ID,
		RowID:            row.ID,
		ItemID:           row.ItemID,
		Quantity:         session.Quantity,
		RequiredQuantity: row.RequiredQuantity,
		Lot:              session.Lot,
		SerialNumber:     session.SerialNumber,
		SourceLocationID: row.LocationID,
		UserName:         c.userName,
		Timestamp:        c.clock(),
	}
}

func (c *Controller) inventoryResult(row domain.ListRow, session domain.ExecutionSession) domain.InventoryResult {
	return domain.InventoryResult{
		ExecutionID:    c.executionID,
		ListID:         c.list.ID,
		RowID:          row.ID,
		ItemID:         row.ItemID,
		LocationID:     row.LocationID,
		Quantity:       session.Quantity,
		SystemQuantity: row.SystemQuantity,
		Lot:            session.Lot,
		SerialNumber:   session.SerialNumber,
		UserName:       c.userName,
		Timestamp:      c.clock(),
		Discrepancy:    domain.EvaluateDiscrepancy(session.Quantity, row.SystemQuantity, row.UnitValue),
	}
}

// NextRow abandons the current row and moves forward
func (c *Controller) NextRow() error {
	return c.move((*domain.ExecutionList).Next)
}

// PreviousRow abandons the current row and moves back
func (c *Controller) PreviousRow() error {
	return c.move((*domain.ExecutionList).Previous)
}

func (c *Controller) move(step func(*domain.ExecutionList) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkOpen(); err != nil {
		return err
	}
	if err := step(c.list); err != nil {
		return err
	}
	c.commitPending = false
	c.seq.Reset(c.list.Current())
	return nil
}

// Cancel discards the current row and closes the execution
func (c *Controller) Cancel() (*domain.ExecutionCancelledEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkOpen(); err != nil {
		return nil, err
	}

	event := &domain.ExecutionCancelledEvent{
		ExecutionID: c.executionID,
		ListID:      c.list.ID,
		RowID:       c.seq.Row().ID,
		Step:        c.seq.Step(),
		UserName:    c.userName,
		CancelledAt: c.clock(),
	}
	c.cancelled = true
	c.commitPending = false
	c.seq.Reset(c.list.Current())

	if c.callbacks.OnCancel != nil {
		c.callbacks.OnCancel()
	}
	return event, nil
}

// Pause marks the execution paused. Pausing twice fires OnPause once.
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkOpen(); err != nil {
		return err
	}
	if c.paused {
		return nil
	}
	c.paused = true
	if c.callbacks.OnPause != nil {
		c.callbacks.OnPause()
	}
	return nil
}

func (c *Controller) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkOpen(); err != nil {
		return err
	}
	if !c.paused {
		return nil
	}
	c.paused = false
	if c.callbacks.OnResume != nil {
		c.callbacks.OnResume()
	}
	return nil
}

// CompletionEvent returns the list-completed event, or nil before completion
func (c *Controller) CompletionEvent() *domain.ListCompletedEvent {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.list.Completed {
		return nil
	}
	return &domain.ListCompletedEvent{
		ExecutionID: c.executionID,
		ListID:      c.list.ID,
		Operation:   c.list.Operation,
		UserName:    c.userName,
		Rows:        len(c.list.Rows),
		Picked:      append([]domain.PickResult(nil), c.picked...),
		CompletedAt: c.completedAt,
	}
}

// Snapshot is the observable state of an execution
type Snapshot struct {
	ExecutionID   string
	ListID        string
	UserName      string
	Operation     domain.Operation
	Step          domain.Step
	Row           domain.ListRow
	Session       domain.ExecutionSession
	Feedback      string
	Cursor        int
	RowCount      int
	Progress      domain.Progress
	CommitPending bool
	Completed     bool
	Cancelled     bool
	Paused        bool
	StartedAt     time.Time
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Controller) snapshot() Snapshot {
	s := Snapshot{
		ExecutionID:   c.executionID,
		ListID:        c.list.ID,
		UserName:      c.userName,
		Operation:     c.list.Operation,
		Step:          c.seq.Step(),
		Row:           c.seq.Row(),
		Session:       c.seq.Session(),
		Cursor:        c.list.Cursor,
		RowCount:      len(c.list.Rows),
		Progress:      c.list.Progress(),
		CommitPending: c.commitPending,
		Completed:     c.list.Completed,
		Cancelled:     c.cancelled,
		Paused:        c.paused,
		StartedAt:     c.list.StartedAt,
	}
	s.Feedback = s.Session.LastError
	if s.Feedback == "" {
		s.Feedback = StatusPrompt(c.lexicon, s)
	}
	return s
}

func (c *Controller) checkOpen() error {
	if c.cancelled || c.list.Completed {
		return domain.ErrSessionClosed
	}
	return nil
}

func stepOutcome(err error) string {
	var verr *domain.ValidationError
	switch {
	case err == nil:
		return "accepted"
	case errors.As(err, &verr):
		return verr.Err.Error()
	default:
		return "unexpected"
	}
}

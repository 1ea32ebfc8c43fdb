package application

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/wms-platform/execution-service/internal/domain"
	"github.com/wms-platform/execution-service/internal/voice"
	apperrors "github.com/wms-platform/execution-service/pkg/errors"
	"github.com/wms-platform/execution-service/pkg/logging"
	"github.com/wms-platform/execution-service/pkg/metrics"
)

// ExecutionService hosts guided executions and their voice sessions
type ExecutionService struct {
	source      domain.ListSource
	sink        domain.CommitSink
	notifiers   []domain.ExecutionNotifier
	interpreter *voice.Interpreter
	voiceConfig voice.Config
	dispatcher  VoiceDispatcher
	logger      *logging.Logger
	metrics     *metrics.Metrics

	mu         sync.RWMutex
	executions map[string]*execution
	voiceWG    sync.WaitGroup
}

type execution struct {
	controller *Controller

	voiceMu sync.Mutex
	voice   *voiceBinding
}

type voiceBinding struct {
	session *voice.Session
	prompts chan string
	final   chan string
	cancel  context.CancelFunc
	done    chan struct{}

	finishOnce sync.Once
}

// NewExecutionService creates a new ExecutionService
func NewExecutionService(
	source domain.ListSource,
	sink domain.CommitSink,
	notifiers []domain.ExecutionNotifier,
	interpreter *voice.Interpreter,
	voiceConfig voice.Config,
	logger *logging.Logger,
	m *metrics.Metrics,
) *ExecutionService {
	return &ExecutionService{
		source:      source,
		sink:        sink,
		notifiers:   notifiers,
		interpreter: interpreter,
		voiceConfig: voiceConfig,
		logger:      logger.WithComponent("execution-service"),
		metrics:     m,
		executions:  make(map[string]*execution),
	}
}

// StartExecution loads a list and opens a new execution on its first row
func (s *ExecutionService) StartExecution(ctx context.Context, cmd StartExecutionCommand) (*ExecutionDTO, error) {
	op, rows, err := s.source.FetchRows(ctx, cmd.ListID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to fetch list", "listId", cmd.ListID)
		return nil, toAppError(fmt.Errorf("failed to fetch list %s: %w", cmd.ListID, err))
	}

	if cmd.Operation != "" {
		requested, err := domain.ParseOperation(cmd.Operation)
		if err != nil {
			return nil, toAppError(err)
		}
		if requested != op {
			return nil, apperrors.ErrValidation(fmt.Sprintf("list %s is a %s list", cmd.ListID, op))
		}
	}

	list, err := domain.NewExecutionList(cmd.ListID, op, rows)
	if err != nil {
		return nil, toAppError(err)
	}

	executionID := uuid.NewString()
	logger := s.logger.WithExecution(executionID, cmd.ListID)
	controller := NewController(list, s.sink, ControllerConfig{
		ExecutionID: executionID,
		UserName:    cmd.UserName,
		Lexicon:     s.interpreter.Lexicon(),
		Callbacks:   s.callbacks(logger),
		Logger:      s.logger,
		Metrics:     s.metrics,
	})

	s.mu.Lock()
	s.executions[executionID] = &execution{controller: controller}
	s.metrics.SetExecutionsActive(len(s.executions))
	s.mu.Unlock()

	logger.Event(ctx, "execution.started", map[string]any{
		"operation": string(op),
		"rows":      len(rows),
		"userName":  cmd.UserName,
	})
	return ToExecutionDTO(controller.Snapshot()), nil
}

func (s *ExecutionService) callbacks(logger *logging.Logger) Callbacks {
	return Callbacks{
		OnPickConfirmed: func(itemID string, quantity int) {
			logger.Info("Pick confirmed", "itemId", itemID, "quantity", quantity)
		},
		OnListCompleted: func() { logger.Info("List completed") },
		OnCancel:        func() { logger.Info("Execution cancelled") },
		OnPause:         func() { logger.Info("Execution paused") },
		OnResume:        func() { logger.Info("Execution resumed") },
	}
}

// GetExecution returns the current snapshot of an execution
func (s *ExecutionService) GetExecution(ctx context.Context, query GetExecutionQuery) (*ExecutionDTO, error) {
	exec, err := s.lookup(query.ExecutionID)
	if err != nil {
		return nil, err
	}
	return s.toDTO(exec), nil
}

// SubmitInput applies a touch or scanner input
func (s *ExecutionService) SubmitInput(ctx context.Context, cmd SubmitInputCommand) (*ExecutionDTO, error) {
	exec, err := s.lookup(cmd.ExecutionID)
	if err != nil {
		return nil, err
	}

	in := domain.Input{Kind: domain.InputKind(cmd.Kind), Value: cmd.Value}
	if _, err := s.applyInput(ctx, exec, in); err != nil {
		return nil, toAppError(err)
	}
	return s.toDTO(exec), nil
}

// SubmitUtterance interprets a transcript and applies the resulting command.
// Rejected inputs are reported in the result, not as an error.
func (s *ExecutionService) SubmitUtterance(ctx context.Context, cmd SubmitUtteranceCommand) (*UtteranceResultDTO, error) {
	exec, err := s.lookup(cmd.ExecutionID)
	if err != nil {
		return nil, err
	}

	interp := s.interpreter.Interpret(cmd.Transcript, cmd.Confidence)
	s.metrics.RecordVoiceUtterance(string(interp.Command))

	action, feedback, err := s.handleUtterance(ctx, exec, interp)
	result := &UtteranceResultDTO{
		Interpretation: ToInterpretationDTO(interp),
		Action:         string(action.Kind),
		Feedback:       feedback,
		Execution:      s.toDTO(exec),
	}
	if err != nil {
		result.Error = err.Error()
	}
	return result, nil
}

// RetryCommit re-issues a failed row commit
func (s *ExecutionService) RetryCommit(ctx context.Context, cmd ExecutionCommand) (*ExecutionDTO, error) {
	exec, err := s.lookup(cmd.ExecutionID)
	if err != nil {
		return nil, err
	}

	outcome, err := exec.controller.RetryCommit(ctx)
	if err != nil {
		return nil, toAppError(err)
	}
	s.afterOutcome(ctx, exec, outcome)
	return s.toDTO(exec), nil
}

// NextRow moves to the next row without committing the current one
func (s *ExecutionService) NextRow(ctx context.Context, cmd ExecutionCommand) (*ExecutionDTO, error) {
	return s.navigate(cmd.ExecutionID, (*Controller).NextRow)
}

// PreviousRow moves to the previous row without committing the current one
func (s *ExecutionService) PreviousRow(ctx context.Context, cmd ExecutionCommand) (*ExecutionDTO, error) {
	return s.navigate(cmd.ExecutionID, (*Controller).PreviousRow)
}

func (s *ExecutionService) navigate(executionID string, move func(*Controller) error) (*ExecutionDTO, error) {
	exec, err := s.lookup(executionID)
	if err != nil {
		return nil, err
	}
	if err := move(exec.controller); err != nil {
		return nil, toAppError(err)
	}
	return s.toDTO(exec), nil
}

// CancelExecution closes an execution and notifies downstream systems. The
// returned snapshot is the last one; the execution is no longer addressable.
func (s *ExecutionService) CancelExecution(ctx context.Context, cmd ExecutionCommand) (*ExecutionDTO, error) {
	exec, err := s.lookup(cmd.ExecutionID)
	if err != nil {
		return nil, err
	}
	if err := s.cancel(ctx, exec); err != nil {
		return nil, toAppError(err)
	}
	return s.toDTO(exec), nil
}

func (s *ExecutionService) cancel(ctx context.Context, exec *execution) error {
	event, err := exec.controller.Cancel()
	if err != nil {
		return err
	}

	for _, n := range s.notifiers {
		if err := n.ExecutionCancelled(ctx, event); err != nil {
			s.logger.WithError(err).Error("Failed to notify cancellation", "executionId", event.ExecutionID)
		}
	}
	s.retire(exec)
	return nil
}

// GetListProgress asks the list source how far a list has been executed
func (s *ExecutionService) GetListProgress(ctx context.Context, query GetListProgressQuery) (*ProgressDTO, error) {
	progress, err := s.source.FetchProgress(ctx, query.ListID)
	if err != nil {
		return nil, toAppError(err)
	}
	dto := ToProgressDTO(progress)
	return &dto, nil
}

func (s *ExecutionService) applyInput(ctx context.Context, exec *execution, in domain.Input) (Outcome, error) {
	outcome, err := exec.controller.HandleInput(ctx, in)
	if err != nil {
		return outcome, err
	}
	s.afterOutcome(ctx, exec, outcome)
	return outcome, nil
}

func (s *ExecutionService) afterOutcome(ctx context.Context, exec *execution, outcome Outcome) {
	if !outcome.ListCompleted {
		return
	}

	event := exec.controller.CompletionEvent()
	for _, n := range s.notifiers {
		if err := n.ListCompleted(ctx, event); err != nil {
			s.logger.WithError(err).Error("Failed to notify list completion", "listId", event.ListID)
		}
	}
	s.retire(exec)
}

// retire drops a cancelled or completed execution from the registry. An
// attached voice session speaks the closing prompt and stops.
func (s *ExecutionService) retire(exec *execution) {
	s.mu.Lock()
	delete(s.executions, exec.controller.ExecutionID())
	s.metrics.SetExecutionsActive(len(s.executions))
	s.mu.Unlock()

	exec.voiceMu.Lock()
	b := exec.voice
	exec.voice = nil
	exec.voiceMu.Unlock()

	if b != nil {
		b.finish(StatusPrompt(s.interpreter.Lexicon(), exec.controller.Snapshot()))
	}
}

// handleUtterance performs the action for interp and returns the feedback to speak
func (s *ExecutionService) handleUtterance(ctx context.Context, exec *execution, interp voice.Interpretation) (Action, string, error) {
	c := exec.controller
	lex := s.interpreter.Lexicon()
	snap := c.Snapshot()
	action := s.dispatcher.Translate(interp, snap.Step, snap.Paused)

	var err error
	switch action.Kind {
	case ActionIgnore:
		s.logger.Debug("Ignoring utterance", "transcript", interp.Transcript, "step", string(snap.Step))
		return action, "", nil
	case ActionInput:
		var outcome Outcome
		outcome, err = s.applyInput(ctx, exec, action.Input)
		if err == nil && outcome.RowCommitted && !outcome.ListCompleted {
			next := c.Snapshot()
			return action, RowConfirmedPrompt(lex, next.Operation) + " " + StatusPrompt(lex, next), nil
		}
	case ActionCancel:
		err = s.cancel(ctx, exec)
	case ActionRepeat:
	case ActionHelp:
		return action, lex.Prompt(voice.PromptHelp, nil), nil
	case ActionNext:
		err = c.NextRow()
	case ActionPrevious:
		err = c.PreviousRow()
	case ActionPause:
		err = c.Pause()
	case ActionResume:
		if err = c.Resume(); err == nil {
			return action, lex.Prompt(voice.PromptResumed, nil) + " " + StatusPrompt(lex, c.Snapshot()), nil
		}
	}

	if err != nil {
		return action, ErrorPrompt(lex, err), err
	}
	return action, StatusPrompt(lex, c.Snapshot()), nil
}

// AttachVoice binds a speech backend to an execution. Recognized utterances
// drive the execution until the backend disconnects or DetachVoice is called.
// A previously attached session is closed.
func (s *ExecutionService) AttachVoice(ctx context.Context, executionID string, backend voice.Backend) (*voice.Session, error) {
	exec, err := s.lookup(executionID)
	if err != nil {
		return nil, err
	}

	session := voice.NewSession(backend, s.interpreter, s.voiceConfig, s.logger.WithExecution(executionID, ""), s.metrics)
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	binding := &voiceBinding{
		session: session,
		prompts: make(chan string, 8),
		final:   make(chan string, 1),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	exec.voiceMu.Lock()
	previous := exec.voice
	exec.voice = binding
	exec.voiceMu.Unlock()
	if previous != nil {
		s.stopVoice(previous)
	}

	s.voiceWG.Add(2)
	go func() {
		defer s.voiceWG.Done()
		if err := session.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.WithError(err).Warn("Voice session stopped", "executionId", executionID)
		}
	}()
	go func() {
		defer s.voiceWG.Done()
		defer close(binding.done)
		s.pumpVoice(runCtx, exec, binding)
	}()

	// the execution may have ended since lookup
	if snap := exec.controller.Snapshot(); snap.Completed || snap.Cancelled {
		s.retire(exec)
	}
	return session, nil
}

// DetachVoice closes the voice session of an execution. A non-nil session is
// only detached while it is still the attached one.
func (s *ExecutionService) DetachVoice(executionID string, session *voice.Session) {
	exec, err := s.lookup(executionID)
	if err != nil {
		return
	}

	exec.voiceMu.Lock()
	binding := exec.voice
	if binding != nil && session != nil && binding.session != session {
		binding = nil
	} else {
		exec.voice = nil
	}
	exec.voiceMu.Unlock()

	if binding != nil {
		s.stopVoice(binding)
	}
}

func (s *ExecutionService) stopVoice(b *voiceBinding) {
	b.close()
	<-b.done
}

// pumpVoice feeds utterances to the controller and speaks feedback. It is the
// only goroutine that speaks for the binding, and it closes the session on
// return.
func (s *ExecutionService) pumpVoice(ctx context.Context, exec *execution, b *voiceBinding) {
	defer b.close()

	utterances := b.session.Utterances()
	errs := b.session.Errors()

	for {
		var text string
		last := false
		select {
		case <-ctx.Done():
			return
		case u, ok := <-utterances:
			if !ok {
				return
			}
			_, text, _ = s.handleUtterance(ctx, exec, u.Interpretation)
			// the utterance may have closed the execution
			select {
			case text = <-b.final:
				last = true
			default:
			}
		case text = <-b.final:
			last = true
		case text = <-b.prompts:
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			s.logger.WithError(err).Warn("Voice recognition stopped", "executionId", exec.controller.ExecutionID())
			continue
		}

		if text != "" {
			if err := b.session.Speak(ctx, text); err != nil && ctx.Err() == nil {
				s.logger.WithError(err).Warn("Failed to speak prompt")
			}
		}
		if last {
			return
		}
	}
}

// StartVoice begins listening and announces the current instruction
func (s *ExecutionService) StartVoice(ctx context.Context, cmd ExecutionCommand) (*ExecutionDTO, error) {
	return s.voiceControl(cmd.ExecutionID, func(exec *execution, b *voiceBinding) error {
		if err := b.session.Start(ctx); err != nil {
			return err
		}
		b.announce(StatusPrompt(s.interpreter.Lexicon(), exec.controller.Snapshot()))
		return nil
	})
}

// StopVoice stops listening
func (s *ExecutionService) StopVoice(ctx context.Context, cmd ExecutionCommand) (*ExecutionDTO, error) {
	return s.voiceControl(cmd.ExecutionID, func(_ *execution, b *voiceBinding) error {
		return b.session.Stop()
	})
}

// PauseVoice suspends recognition and pauses the execution
func (s *ExecutionService) PauseVoice(ctx context.Context, cmd ExecutionCommand) (*ExecutionDTO, error) {
	return s.voiceControl(cmd.ExecutionID, func(exec *execution, b *voiceBinding) error {
		if err := b.session.Pause(); err != nil {
			return err
		}
		return exec.controller.Pause()
	})
}

// ResumeVoice resumes recognition and the execution
func (s *ExecutionService) ResumeVoice(ctx context.Context, cmd ExecutionCommand) (*ExecutionDTO, error) {
	return s.voiceControl(cmd.ExecutionID, func(exec *execution, b *voiceBinding) error {
		if err := b.session.Resume(ctx); err != nil {
			return err
		}
		if err := exec.controller.Resume(); err != nil {
			return err
		}
		b.announce(StatusPrompt(s.interpreter.Lexicon(), exec.controller.Snapshot()))
		return nil
	})
}

func (s *ExecutionService) voiceControl(executionID string, fn func(*execution, *voiceBinding) error) (*ExecutionDTO, error) {
	exec, err := s.lookup(executionID)
	if err != nil {
		return nil, err
	}

	exec.voiceMu.Lock()
	b := exec.voice
	exec.voiceMu.Unlock()
	if b == nil {
		return nil, toAppError(ErrVoiceNotAttached)
	}

	if err := fn(exec, b); err != nil {
		return nil, toAppError(err)
	}
	return s.toDTO(exec), nil
}

// announce queues a prompt without blocking the caller
func (b *voiceBinding) announce(text string) {
	select {
	case b.prompts <- text:
	default:
	}
}

// finish makes the pump speak text and end the session
func (b *voiceBinding) finish(text string) {
	b.finishOnce.Do(func() { b.final <- text })
}

func (b *voiceBinding) close() {
	_ = b.session.Close()
	b.cancel()
}

// Shutdown closes every voice session and waits for their goroutines
func (s *ExecutionService) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	ids := make([]string, 0, len(s.executions))
	for id := range s.executions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	for _, id := range ids {
		s.DetachVoice(id, nil)
	}

	done := make(chan struct{})
	go func() {
		s.voiceWG.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *ExecutionService) lookup(executionID string) (*execution, error) {
	s.mu.RLock()
	exec, ok := s.executions[executionID]
	s.mu.RUnlock()
	if !ok {
		return nil, toAppError(fmt.Errorf("%w: %s", ErrExecutionNotFound, executionID))
	}
	return exec, nil
}

func (s *ExecutionService) toDTO(exec *execution) *ExecutionDTO {
	dto := ToExecutionDTO(exec.controller.Snapshot())

	exec.voiceMu.Lock()
	if exec.voice != nil {
		dto.Voice = ToVoiceStatusDTO(exec.voice.session)
	}
	exec.voiceMu.Unlock()
	return dto
}

package voice

import (
	"context"
	"sync"
	"time"

	"github.com/wms-platform/execution-service/pkg/logging"
	"github.com/wms-platform/execution-service/pkg/metrics"
)

// EventType is the kind of a backend event
type EventType string

const (
	EventStarted EventType = "started"
	EventResult  EventType = "result"
	EventError   EventType = "error"
	EventEnded   EventType = "ended"
)

// Event is emitted by a speech backend. Result events carry one final
// utterance, error events carry the backend error code.
type Event struct {
	Type       EventType `json:"type"`
	Transcript string    `json:"transcript,omitempty"`
	Confidence float64   `json:"confidence,omitempty"`
	Code       string    `json:"code,omitempty"`
}

// Backend recognizes and synthesizes speech
type Backend interface {
	StartRecognition(ctx context.Context) error
	StopRecognition() error
	Events() <-chan Event
	// Speak blocks until playback completes or ctx is cancelled
	Speak(ctx context.Context, text string) error
	CancelSpeech()
}

// State of a voice session
type State string

const (
	StateIdle      State = "idle"
	StateListening State = "listening"
	StatePaused    State = "paused"
)

// Utterance is a final recognition result with its interpretation
type Utterance struct {
	Interpretation
	ReceivedAt time.Time `json:"receivedAt"`
}

// Config holds voice session settings
type Config struct {
	Locale             string
	MinConfidence      float64
	RestartDelay       time.Duration
	NoSpeechRetryDelay time.Duration
}

// DefaultConfig returns the default voice settings
func DefaultConfig() Config {
	return Config{
		Locale:             DefaultLocale,
		RestartDelay:       100 * time.Millisecond,
		NoSpeechRetryDelay: 500 * time.Millisecond,
	}
}

// Session runs continuous recognition for one execution
type Session struct {
	backend     Backend
	interpreter *Interpreter
	config      Config
	logger      *logging.Logger
	metrics     *metrics.Metrics

	mu       sync.Mutex
	state    State
	enabled  bool
	speaking bool
	running  bool
	last     *Utterance

	speakMu     sync.Mutex
	speakGen    uint64
	cancelSpeak context.CancelFunc

	utterances chan Utterance
	errs       chan error
	done       chan struct{}
	closeOnce  sync.Once
}

// NewSession creates an idle session. m may be nil.
func NewSession(backend Backend, interpreter *Interpreter, config Config, logger *logging.Logger, m *metrics.Metrics) *Session {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Session{
		backend:     backend,
		interpreter: interpreter,
		config:      config,
		logger:      logger.WithComponent("voice-session"),
		metrics:     m,
		state:       StateIdle,
		utterances:  make(chan Utterance, 16),
		errs:        make(chan error, 4),
		done:        make(chan struct{}),
	}
}

// Utterances delivers interpreted results. It is closed when Run returns.
func (s *Session) Utterances() <-chan Utterance { return s.utterances }

// Done is closed once the session is closed
func (s *Session) Done() <-chan struct{} { return s.done }

// Errors delivers recognition errors that stopped listening. It is closed when Run returns.
func (s *Session) Errors() <-chan error { return s.errs }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

func (s *Session) Speaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speaking
}

// LastUtterance returns the most recent result, if any
func (s *Session) LastUtterance() (Utterance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Utterance{}, false
	}
	return *s.last, true
}

// Start begins listening
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isClosed() {
		return ErrSessionClosed
	}
	if s.enabled && s.state != StateIdle {
		return nil
	}
	if err := s.backend.StartRecognition(ctx); err != nil {
		return &RecognitionError{Code: "start", Err: err}
	}
	s.enabled = true
	s.state = StateListening
	s.logger.Info("Voice recognition started", "locale", s.config.Locale)
	return nil
}

// Stop ends listening. Pending restarts are suppressed.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.enabled = false
	if s.state == StateIdle {
		return nil
	}
	s.state = StateIdle
	return s.backend.StopRecognition()
}

// Pause stops recognition without disabling the session
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateListening {
		return ErrNotListening
	}
	s.state = StatePaused
	return s.backend.StopRecognition()
}

// Resume restarts recognition after Pause
func (s *Session) Resume(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePaused {
		return ErrNotPaused
	}
	if err := s.backend.StartRecognition(ctx); err != nil {
		return &RecognitionError{Code: "start", Err: err}
	}
	s.state = StateListening
	return nil
}

// Speak says text, interrupting any prompt still playing. Calls are
// serialized; recognition results arriving meanwhile are dropped.
func (s *Session) Speak(ctx context.Context, text string) error {
	if s.isClosed() {
		return ErrSessionClosed
	}

	s.mu.Lock()
	if s.cancelSpeak != nil {
		s.cancelSpeak()
		s.backend.CancelSpeech()
	}
	speakCtx, cancel := context.WithCancel(ctx)
	s.speakGen++
	gen := s.speakGen
	s.cancelSpeak = cancel
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.speakGen == gen {
			s.cancelSpeak = nil
		}
		s.mu.Unlock()
		cancel()
	}()

	s.speakMu.Lock()
	defer s.speakMu.Unlock()

	if speakCtx.Err() != nil && ctx.Err() == nil {
		// superseded before it started
		return nil
	}

	s.setSpeaking(true)
	err := s.backend.Speak(speakCtx, text)
	s.setSpeaking(false)

	if err != nil && speakCtx.Err() != nil && ctx.Err() == nil {
		return nil
	}
	return err
}

func (s *Session) setSpeaking(v bool) {
	s.mu.Lock()
	s.speaking = v
	s.mu.Unlock()
}

// Run consumes backend events until ctx is done or the session is closed
func (s *Session) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.running = true
	s.mu.Unlock()

	defer close(s.errs)
	defer close(s.utterances)

	var (
		restart       *time.Timer
		restartC      <-chan time.Time
		restartReason string
	)
	schedule := func(delay time.Duration, reason string) {
		if restart != nil {
			restart.Stop()
		}
		restart = time.NewTimer(delay)
		restartC = restart.C
		restartReason = reason
	}
	defer func() {
		if restart != nil {
			restart.Stop()
		}
	}()

	events := s.backend.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return nil
		case <-restartC:
			restartC = nil
			s.restart(ctx, restartReason)
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev.Type {
			case EventStarted:
				s.logger.Debug("Recognition started")
			case EventResult:
				s.handleResult(ctx, ev)
			case EventError:
				if ev.Code == NoSpeechCode {
					if s.shouldRestart() {
						s.logger.Debug("No speech detected, retrying", "delay", s.config.NoSpeechRetryDelay)
						schedule(s.config.NoSpeechRetryDelay, "no_speech")
					}
					continue
				}
				s.fail(&RecognitionError{Code: ev.Code})
			case EventEnded:
				// a no-speech retry is already pending
				if restartC != nil {
					continue
				}
				if s.shouldRestart() {
					schedule(s.config.RestartDelay, "ended")
				}
			}
		}
	}
}

// Close stops the session and makes Run return
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.Stop()
		s.mu.Lock()
		if s.cancelSpeak != nil {
			s.cancelSpeak()
			s.backend.CancelSpeech()
		}
		s.mu.Unlock()
		close(s.done)
	})
	return err
}

func (s *Session) isClosed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *Session) shouldRestart() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled && s.state == StateListening
}

func (s *Session) restart(ctx context.Context, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled || s.state != StateListening {
		return
	}
	if s.metrics != nil {
		s.metrics.RecordVoiceRestart(reason)
	}
	if err := s.backend.StartRecognition(ctx); err != nil {
		s.logger.WithError(err).Warn("Failed to restart recognition", "reason", reason)
		s.enabled = false
		s.state = StateIdle
		s.publishError(&RecognitionError{Code: "restart", Err: err})
	}
}

func (s *Session) fail(err *RecognitionError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.WithError(err).Error("Speech recognition failed", "code", err.Code)
	s.enabled = false
	s.state = StateIdle
	s.publishError(err)
}

// publishError must be called with s.mu held
func (s *Session) publishError(err error) {
	select {
	case s.errs <- err:
	default:
		s.logger.Warn("Dropping recognition error, no reader", "error", err.Error())
	}
}

func (s *Session) handleResult(ctx context.Context, ev Event) {
	s.mu.Lock()
	if s.speaking || s.state != StateListening {
		s.mu.Unlock()
		return
	}
	u := Utterance{
		Interpretation: s.interpreter.Interpret(ev.Transcript, ev.Confidence),
		ReceivedAt:     time.Now().UTC(),
	}
	s.last = &u
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordVoiceUtterance(string(u.Command))
	}
	s.logger.Debug("Utterance recognized",
		"transcript", u.Transcript,
		"confidence", u.Confidence,
		"command", string(u.Command),
	)

	select {
	case s.utterances <- u:
	case <-ctx.Done():
	case <-s.done:
	}
}
